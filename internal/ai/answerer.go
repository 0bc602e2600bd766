// Package ai answers free-text screening questions that the lookup table
// cannot. It is the last resort of the resolution chain: table first, cached
// answers second, the model only for genuinely new questions.
package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/apply-pilot/internal/answers"
	"github.com/jonathan/apply-pilot/internal/llm"
	"github.com/jonathan/apply-pilot/internal/store"
)

// Answerer generates short screening answers with the LLM.
type Answerer struct {
	client llm.Client
}

// NewAnswerer wraps an LLM client.
func NewAnswerer(client llm.Client) *Answerer {
	return &Answerer{client: client}
}

// Answer generates an answer for one screening question in the context of a
// specific job and the static applicant profile.
func (a *Answerer) Answer(ctx context.Context, question string, applicant answers.Applicant, job *store.JobRecord) (string, error) {
	prompt := buildPrompt(question, applicant, job)
	text, err := a.client.GenerateText(ctx, prompt, llm.TierLite)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func buildPrompt(question string, applicant answers.Applicant, job *store.JobRecord) string {
	company := job.Company
	if company == "" {
		company = "a company"
	}
	role := job.RoleTitle
	if role == "" {
		role = "Software Engineer"
	}
	about := applicant.About
	if about == "" {
		about = "A software engineer who builds things and ships them."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are filling out a job application for %s, role: %s.\n\n", company, role)
	fmt.Fprintf(&sb, "Applicant background: %s\n\n", about)
	sb.WriteString("Answer this screening question in 2-3 sentences max. Be direct, no fluff, ")
	sb.WriteString("no corporate speak. Sound like a real person, not a chatbot.\n\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", question)
	sb.WriteString("Rules:\n")
	sb.WriteString("- Keep under 500 characters\n")
	sb.WriteString("- No made-up claims\n")
	sb.WriteString("- Don't mention other companies\n")
	sb.WriteString("- Be honest and straightforward\n")
	sb.WriteString("- If the question is about salary, say \"open to discussion\"\n\n")
	sb.WriteString("Answer:")
	return sb.String()
}
