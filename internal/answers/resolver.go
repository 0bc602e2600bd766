package answers

import (
	"strings"
	"sync"
)

// Resolver answers screening questions from the lookup table. Matching order
// is exact, then substring, then regex; within one kind the table order
// breaks ties. Safe for concurrent use; Reload swaps the table atomically so
// a fill in progress keeps a consistent view.
type Resolver struct {
	mu    sync.RWMutex
	table *Table
}

// NewResolver wraps a parsed table.
func NewResolver(table *Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve returns the answer for a question and whether the table matched.
// No match means the caller should fall through to the AI answerer.
func (r *Resolver) Resolve(question string) (string, bool) {
	r.mu.RLock()
	table := r.table
	r.mu.RUnlock()

	q := normalize(question)

	for _, e := range table.Entries {
		if e.Match == MatchExact && normalize(e.Pattern) == q {
			return e.Answer, true
		}
	}
	for _, e := range table.Entries {
		if e.Match == MatchSubstring && contains(q, e.Pattern) {
			return e.Answer, true
		}
	}
	for _, e := range table.Entries {
		if e.Match == MatchRegex && e.re.MatchString(q) {
			return e.Answer, true
		}
	}
	return "", false
}

// Applicant returns the static applicant context from the current table.
func (r *Resolver) Applicant() Applicant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.table.Applicant
}

// Reload swaps in a new table. Used by the file watcher.
func (r *Resolver) Reload(table *Table) {
	r.mu.Lock()
	r.table = table
	r.mu.Unlock()
}

func contains(normalizedQuestion, pattern string) bool {
	p := normalize(pattern)
	return p != "" && strings.Contains(normalizedQuestion, p)
}
