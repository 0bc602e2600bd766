package scrape

import (
	"context"
	"fmt"
	"html"
	"time"
)

const greenhouseAPIBase = "https://boards-api.greenhouse.io/v1/boards"

// GreenhouseBackend lists a company's openings from the public Greenhouse
// board API. Descriptions come back HTML-escaped and are flattened to text.
type GreenhouseBackend struct {
	c       *client
	apiBase string
}

func NewGreenhouse() *GreenhouseBackend {
	return &GreenhouseBackend{c: newClient(30 * time.Second), apiBase: greenhouseAPIBase}
}

func (b *GreenhouseBackend) Name() string { return "greenhouse" }

type greenhouseBoard struct {
	Jobs []struct {
		Title       string `json:"title"`
		AbsoluteURL string `json:"absolute_url"`
		Content     string `json:"content"`
		Location    struct {
			Name string `json:"name"`
		} `json:"location"`
	} `json:"jobs"`
}

func (b *GreenhouseBackend) Scrape(ctx context.Context, slug string) ([]Posting, error) {
	var board greenhouseBoard
	url := fmt.Sprintf("%s/%s/jobs?content=true", b.apiBase, slug)
	if err := b.c.getJSON(ctx, url, &board); err != nil {
		return nil, fmt.Errorf("failed to list greenhouse postings for %q: %w", slug, err)
	}

	out := make([]Posting, 0, len(board.Jobs))
	for _, j := range board.Jobs {
		if j.AbsoluteURL == "" || j.Title == "" {
			continue
		}
		out = append(out, Posting{
			URL:       j.AbsoluteURL,
			Company:   slug,
			RoleTitle: j.Title,
			JDText:    htmlToText(html.UnescapeString(j.Content)),
			Source:    b.Name(),
		})
	}
	return out, nil
}
