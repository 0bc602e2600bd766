// Package tailor produces a tailored resume artifact for one job. The LLM
// tailor asks the model to select and rephrase resume content against the
// job description and validates the result against a JSON schema before
// writing it; the static tailor just hands back the base resume.
package tailor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/apply-pilot/internal/llm"
)

// LLM tailors resumes with the model. It implements pipeline.ResumeTailor.
type LLM struct {
	client     llm.Client
	baseResume string // source material handed to the model
	outputDir  string
}

// NewLLM creates a tailor that reads base resume content from baseResume and
// writes tailored artifacts under outputDir.
func NewLLM(client llm.Client, baseResume, outputDir string) *LLM {
	return &LLM{client: client, baseResume: baseResume, outputDir: outputDir}
}

// Tailor generates a tailored resume artifact and returns its path.
func (t *LLM) Tailor(ctx context.Context, jdText, roleTitle, company string) (string, error) {
	if strings.TrimSpace(jdText) == "" {
		return "", fmt.Errorf("job has no description text to tailor against")
	}

	base, err := os.ReadFile(t.baseResume)
	if err != nil {
		return "", fmt.Errorf("failed to read base resume: %w", err)
	}

	raw, err := t.client.GenerateJSON(ctx, buildPrompt(string(base), jdText, roleTitle, company), llm.TierStandard)
	if err != nil {
		return "", fmt.Errorf("failed to tailor resume: %w", err)
	}
	if err := ValidateArtifact(raw); err != nil {
		return "", fmt.Errorf("model returned invalid resume artifact: %w", err)
	}

	dir := filepath.Join(t.outputDir, Slugify(company))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(dir, Slugify(roleTitle)+".json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		return "", fmt.Errorf("failed to write resume artifact: %w", err)
	}
	return path, nil
}

// Static returns a fixed resume for every job. Used when no API key is
// configured or tailoring is disabled for a run.
type Static struct {
	Path string
}

// Tailor returns the configured base resume, verifying it exists.
func (s *Static) Tailor(_ context.Context, _, _, _ string) (string, error) {
	if s.Path == "" {
		return "", fmt.Errorf("no base resume configured")
	}
	if _, err := os.Stat(s.Path); err != nil {
		return "", fmt.Errorf("base resume not found: %w", err)
	}
	return s.Path, nil
}

// artifactSchema constrains what the model may return. Validated before the
// artifact is written so a malformed generation never reaches a form filler.
const artifactSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["summary", "skills", "bullets"],
  "properties": {
    "summary": {"type": "string", "minLength": 1},
    "skills": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "minItems": 1
    },
    "bullets": {
      "type": "array",
      "items": {"type": "string", "minLength": 1},
      "minItems": 1
    }
  },
  "additionalProperties": false
}`

// ValidateArtifact checks a generated resume artifact against the schema.
func ValidateArtifact(jsonContent string) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(artifactSchema),
		gojsonschema.NewStringLoader(jsonContent),
	)
	if err != nil {
		return fmt.Errorf("failed to validate artifact: %w", err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("artifact failed schema validation: %s", strings.Join(msgs, "; "))
	}
	return nil
}

func buildPrompt(baseResume, jdText, roleTitle, company string) string {
	var sb strings.Builder
	sb.WriteString("You tailor resumes to job descriptions. Select and rephrase content from the ")
	sb.WriteString("base resume so it speaks to this job. Never invent experience.\n\n")
	fmt.Fprintf(&sb, "Target role: %s at %s\n\n", roleTitle, company)
	fmt.Fprintf(&sb, "Job description:\n%s\n\n", jdText)
	fmt.Fprintf(&sb, "Base resume:\n%s\n\n", baseResume)
	sb.WriteString("Return ONLY valid JSON with this structure:\n")
	sb.WriteString(`{"summary": "2-3 sentence professional summary targeted at this role", `)
	sb.WriteString(`"skills": ["skills from the base resume, most relevant first"], `)
	sb.WriteString(`"bullets": ["experience bullets rephrased toward the job description"]}`)
	return sb.String()
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns free text into a filesystem-safe slug.
func Slugify(s string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(s), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "untitled"
	}
	return slug
}
