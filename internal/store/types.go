package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/apply-pilot/internal/platform"
)

// JobRecord is one row in the job queue: a discovered or manually added
// application tracked from scraping through submission. Records are never
// physically deleted; terminal states are retained for audit and stats.
type JobRecord struct {
	ID            uuid.UUID         `json:"id"`
	URL           string            `json:"url"`
	Company       string            `json:"company"`
	RoleTitle     string            `json:"role_title"`
	Platform      platform.Platform `json:"platform"`
	JDText        string            `json:"jd_text,omitempty"`
	State         State             `json:"state"`
	ResumePath    string            `json:"resume_path,omitempty"`
	AttemptCount  int               `json:"attempt_count"`
	LastError     string            `json:"last_error,omitempty"`
	ScreenshotRef string            `json:"screenshot_ref,omitempty"`
	Source        string            `json:"source,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	SubmittedAt   *time.Time        `json:"submitted_at,omitempty"`
}

// InsertInput carries the fields settable at insertion time.
// Platform is detected by the caller; empty means unknown.
type InsertInput struct {
	URL       string
	Company   string
	RoleTitle string
	Platform  platform.Platform
	JDText    string
	Source    string
}

// Filter narrows List results. Zero value lists everything in insertion order.
type Filter struct {
	State State // empty = all states
}

// CachedAnswer is a screening answer persisted for one job so repeat fill
// attempts do not re-query the AI answerer for the same question.
type CachedAnswer struct {
	JobID       uuid.UUID
	QuestionKey string
	Question    string
	Answer      string
	Source      string // "lookup" or "ai"
	CreatedAt   time.Time
}

// QuestionKey normalizes a screening question into a stable cache key.
func QuestionKey(question string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(question), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
