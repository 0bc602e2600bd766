// Package llm provides the LLM client used for screening-answer fallback and
// resume tailoring. Centralizing model selection here keeps the rest of the
// pipeline provider-agnostic.
package llm

// ModelTier selects model capability per task.
type ModelTier string

const (
	// TierLite is for short, cheap completions: screening answers.
	TierLite ModelTier = "lite"
	// TierStandard is for structured output: resume tailoring.
	TierStandard ModelTier = "standard"
)

// Config holds the model configuration.
type Config struct {
	Models map[ModelTier]string
}

// DefaultConfig returns the default Gemini model mapping.
func DefaultConfig() *Config {
	return &Config{
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
		},
	}
}

// GetModel returns the model name for a tier, falling back to the standard
// tier when the requested one is not configured.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	return c.Models[TierStandard]
}
