package scrape

import (
	"context"
	"fmt"
	"time"
)

const ashbyAPIBase = "https://api.ashbyhq.com/posting-api/job-board"

// AshbyBackend lists a company's openings from the public Ashby posting API.
type AshbyBackend struct {
	c       *client
	apiBase string
}

func NewAshby() *AshbyBackend {
	return &AshbyBackend{c: newClient(30 * time.Second), apiBase: ashbyAPIBase}
}

func (b *AshbyBackend) Name() string { return "ashby" }

type ashbyBoard struct {
	Jobs []struct {
		Title           string `json:"title"`
		JobURL          string `json:"jobUrl"`
		DescriptionHTML string `json:"descriptionHtml"`
		Location        string `json:"location"`
	} `json:"jobs"`
}

func (b *AshbyBackend) Scrape(ctx context.Context, slug string) ([]Posting, error) {
	var board ashbyBoard
	url := fmt.Sprintf("%s/%s?includeCompensation=true", b.apiBase, slug)
	if err := b.c.getJSON(ctx, url, &board); err != nil {
		return nil, fmt.Errorf("failed to list ashby postings for %q: %w", slug, err)
	}

	out := make([]Posting, 0, len(board.Jobs))
	for _, j := range board.Jobs {
		if j.JobURL == "" || j.Title == "" {
			continue
		}
		out = append(out, Posting{
			URL:       j.JobURL,
			Company:   slug,
			RoleTitle: j.Title,
			JDText:    htmlToText(j.DescriptionHTML),
			Source:    b.Name(),
		})
	}
	return out, nil
}
