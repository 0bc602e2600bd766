package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	leverAPIBase   = "https://api.lever.co/v0/postings"
	leverEUAPIBase = "https://api.eu.lever.co/v0/postings"
)

// LeverBackend lists a company's openings from the public Lever postings
// API. EU-hosted tenants 404 on the US endpoint, so it retries there.
type LeverBackend struct {
	c       *client
	apiBase string
	euBase  string
}

func NewLever() *LeverBackend {
	return &LeverBackend{c: newClient(30 * time.Second), apiBase: leverAPIBase, euBase: leverEUAPIBase}
}

func (b *LeverBackend) Name() string { return "lever" }

type leverPosting struct {
	Text             string `json:"text"`
	HostedURL        string `json:"hostedUrl"`
	DescriptionPlain string `json:"descriptionPlain"`
	Categories       struct {
		Location   string `json:"location"`
		Team       string `json:"team"`
		Commitment string `json:"commitment"`
	} `json:"categories"`
}

func (b *LeverBackend) Scrape(ctx context.Context, slug string) ([]Posting, error) {
	postings, err := b.list(ctx, b.apiBase, slug)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
			postings, err = b.list(ctx, b.euBase, slug)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list lever postings for %q: %w", slug, err)
	}

	out := make([]Posting, 0, len(postings))
	for _, p := range postings {
		if p.HostedURL == "" || p.Text == "" {
			continue
		}
		out = append(out, Posting{
			URL:       p.HostedURL,
			Company:   slug,
			RoleTitle: p.Text,
			JDText:    p.DescriptionPlain,
			Source:    b.Name(),
		})
	}
	return out, nil
}

func (b *LeverBackend) list(ctx context.Context, base, slug string) ([]leverPosting, error) {
	var postings []leverPosting
	url := fmt.Sprintf("%s/%s?mode=json", base, slug)
	if err := b.c.getJSON(ctx, url, &postings); err != nil {
		return nil, err
	}
	return postings, nil
}
