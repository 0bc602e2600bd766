package answers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
applicant:
  name: Jane Doe
  email: jane@example.com
  about: Backend engineer, ships things.
entries:
  - pattern: "Are you authorized to work in the United States?"
    answer: "Yes"
    match: exact
  - pattern: "sponsorship"
    answer: "No"
    match: substring
  - pattern: "years.*experience"
    answer: "4"
    match: regex
  - pattern: "linkedin"
    answer: "https://linkedin.com/in/janedoe"
    match: substring
`

func TestParse(t *testing.T) {
	table, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", table.Applicant.Name)
	require.Len(t, table.Entries, 4)
	assert.Equal(t, MatchExact, table.Entries[0].Match)
	assert.NotNil(t, table.Entries[2].re, "regex entries are compiled at load")
}

func TestParse_DefaultsToExact(t *testing.T) {
	table, err := Parse([]byte("entries:\n  - pattern: \"gpa\"\n    answer: \"3.8\"\n"))
	require.NoError(t, err)
	assert.Equal(t, MatchExact, table.Entries[0].Match)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"invalid regex", "entries:\n  - pattern: \"([\"\n    answer: x\n    match: regex\n"},
		{"unknown kind", "entries:\n  - pattern: a\n    answer: x\n    match: fuzzy\n"},
		{"empty pattern", "entries:\n  - pattern: \"\"\n    answer: x\n    match: exact\n"},
		{"not yaml", "entries: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestResolver_MatchOrder(t *testing.T) {
	table, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	r := NewResolver(table)

	tests := []struct {
		name     string
		question string
		answer   string
		matched  bool
	}{
		{"exact case-insensitive trimmed", "  are you AUTHORIZED to work in the united states?  ", "Yes", true},
		{"substring", "Will you now or in the future require sponsorship?", "No", true},
		{"regex", "How many years of experience do you have with Go?", "4", true},
		{"no match", "What is your favorite color?", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.question)
			assert.Equal(t, tt.matched, ok)
			assert.Equal(t, tt.answer, got)
		})
	}
}

func TestResolver_ExactBeatsSubstringAndRegex(t *testing.T) {
	// All three kinds match the same question; exact must win even though it
	// appears last in the table.
	yamlDoc := `
entries:
  - pattern: "visa"
    answer: "substring-answer"
    match: substring
  - pattern: "visa.*status"
    answer: "regex-answer"
    match: regex
  - pattern: "What is your visa status?"
    answer: "exact-answer"
    match: exact
`
	table, err := Parse([]byte(yamlDoc))
	require.NoError(t, err)
	r := NewResolver(table)

	got, ok := r.Resolve("What is your visa status?")
	require.True(t, ok)
	assert.Equal(t, "exact-answer", got)
}

func TestResolver_TableOrderBreaksTies(t *testing.T) {
	yamlDoc := `
entries:
  - pattern: "relocate"
    answer: "first"
    match: substring
  - pattern: "relocat"
    answer: "second"
    match: substring
`
	table, err := Parse([]byte(yamlDoc))
	require.NoError(t, err)
	r := NewResolver(table)

	got, ok := r.Resolve("Are you willing to relocate?")
	require.True(t, ok)
	assert.Equal(t, "first", got)
}

func TestResolver_Reload(t *testing.T) {
	table, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	r := NewResolver(table)

	_, ok := r.Resolve("Do you have a github profile?")
	assert.False(t, ok)

	updated, err := Parse([]byte("entries:\n  - pattern: github\n    answer: https://github.com/janedoe\n    match: substring\n"))
	require.NoError(t, err)
	r.Reload(updated)

	got, ok := r.Resolve("Do you have a github profile?")
	require.True(t, ok)
	assert.Equal(t, "https://github.com/janedoe", got)
}
