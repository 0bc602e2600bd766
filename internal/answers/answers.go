// Package answers resolves screening questions against an operator-curated
// lookup table. The table lives in a YAML file edited outside the pipeline;
// the pipeline only reads it. Questions that match nothing fall through to
// the AI answerer.
package answers

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// MatchKind is how an entry's pattern is compared to a question.
type MatchKind string

const (
	// MatchExact compares the whole question, case-insensitive, trimmed.
	MatchExact MatchKind = "exact"
	// MatchSubstring checks the pattern occurs in the question, case-insensitive.
	MatchSubstring MatchKind = "substring"
	// MatchRegex matches the pattern as a regular expression against the
	// lowercased question.
	MatchRegex MatchKind = "regex"
)

// Entry is one row of the lookup table.
type Entry struct {
	Pattern string    `yaml:"pattern"`
	Answer  string    `yaml:"answer"`
	Match   MatchKind `yaml:"match"`

	re *regexp.Regexp
}

// Applicant is the static context passed to the AI answerer for questions the
// table cannot answer.
type Applicant struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Location string `yaml:"location"`
	LinkedIn string `yaml:"linkedin"`
	GitHub   string `yaml:"github"`
	Website  string `yaml:"website"`
	About    string `yaml:"about"`
}

// FirstName returns the leading word of the applicant's name.
func (a Applicant) FirstName() string {
	first, _, _ := strings.Cut(strings.TrimSpace(a.Name), " ")
	return first
}

// LastName returns everything after the first word of the applicant's name.
func (a Applicant) LastName() string {
	_, rest, ok := strings.Cut(strings.TrimSpace(a.Name), " ")
	if !ok {
		return ""
	}
	return rest
}

// Table is the parsed answers file. Entry order is preserved: within one
// match kind, the first matching entry wins.
type Table struct {
	Applicant Applicant `yaml:"applicant"`
	Entries   []Entry   `yaml:"entries"`
}

// Load reads and parses the answers file at path.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers file %s: %w", path, err)
	}
	table, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse answers file %s: %w", path, err)
	}
	return table, nil
}

// Parse parses YAML into a Table, compiling regex entries. Entries with an
// unknown match kind or an invalid regex are rejected so a bad edit is caught
// at load time, not mid-fill.
func Parse(data []byte) (*Table, error) {
	var table Table
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}

	for i := range table.Entries {
		e := &table.Entries[i]
		if e.Match == "" {
			e.Match = MatchExact
		}
		switch e.Match {
		case MatchExact, MatchSubstring:
		case MatchRegex:
			re, err := regexp.Compile(e.Pattern)
			if err != nil {
				return nil, fmt.Errorf("entry %d: invalid regex %q: %w", i, e.Pattern, err)
			}
			e.re = re
		default:
			return nil, fmt.Errorf("entry %d: unknown match kind %q", i, e.Match)
		}
		if e.Pattern == "" {
			return nil, fmt.Errorf("entry %d: empty pattern", i)
		}
	}
	return &table, nil
}

// normalize trims and lowercases a question for comparison.
func normalize(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
