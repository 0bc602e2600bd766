package llm

import "testing"

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"bare fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence with brace on first line", "```{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  \n```json\n[1, 2]\n```\n ", "[1, 2]"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanJSONBlock(tt.input); got != tt.expected {
				t.Errorf("CleanJSONBlock(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetModel(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.GetModel(TierLite) == "" {
		t.Error("lite tier has no model")
	}
	if got := cfg.GetModel(ModelTier("nonsense")); got != cfg.Models[TierStandard] {
		t.Errorf("unknown tier should fall back to standard, got %q", got)
	}
}
