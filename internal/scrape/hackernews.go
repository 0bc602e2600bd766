package scrape

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const hnAlgoliaBase = "https://hn.algolia.com/api/v1"

// HackerNewsBackend pulls jobs from the monthly "Ask HN: Who is hiring?"
// thread via the Algolia API. The target, if set, filters roles by substring.
// Top-level comments follow the "Company | Role | Location | ..." convention.
type HackerNewsBackend struct {
	c        *client
	apiBase  string
	maxItems int
}

func NewHackerNews() *HackerNewsBackend {
	return &HackerNewsBackend{c: newClient(30 * time.Second), apiBase: hnAlgoliaBase, maxItems: 200}
}

func (b *HackerNewsBackend) Name() string { return "hackernews" }

type hnSearch struct {
	Hits []struct {
		ObjectID string `json:"objectID"`
		Title    string `json:"title"`
	} `json:"hits"`
}

type hnItem struct {
	Children []struct {
		Text string `json:"text"`
	} `json:"children"`
}

var hrefRe = regexp.MustCompile(`href="(https?://[^"]+)"`)

// applyURLHints mark links worth following out of a hiring comment.
var applyURLHints = []string{
	"lever", "greenhouse", "ashby", "careers", "jobs",
	"apply", "workday", "hire", "recruiting",
}

func (b *HackerNewsBackend) Scrape(ctx context.Context, roleFilter string) ([]Posting, error) {
	threadID, err := b.latestThread(ctx)
	if err != nil {
		return nil, err
	}

	var item hnItem
	if err := b.c.getJSON(ctx, fmt.Sprintf("%s/items/%s", b.apiBase, threadID), &item); err != nil {
		return nil, fmt.Errorf("failed to fetch hiring thread %s: %w", threadID, err)
	}

	children := item.Children
	if len(children) > b.maxItems {
		children = children[:b.maxItems]
	}

	var out []Posting
	for _, c := range children {
		if p, ok := b.parseComment(c.Text, roleFilter); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// latestThread finds the most recent Who is Hiring story. The comment-count
// filter skips the bot's companion threads (freelancer, wants-to-be-hired).
func (b *HackerNewsBackend) latestThread(ctx context.Context) (string, error) {
	q := url.Values{
		"query":          {"Ask HN: Who is hiring"},
		"tags":           {"story,ask_hn"},
		"numericFilters": {"num_comments>50"},
	}
	var search hnSearch
	u := fmt.Sprintf("%s/search_by_date?%s", b.apiBase, q.Encode())
	if err := b.c.getJSON(ctx, u, &search); err != nil {
		return "", fmt.Errorf("failed to search for hiring thread: %w", err)
	}
	if len(search.Hits) == 0 {
		return "", fmt.Errorf("no hiring thread found")
	}
	return search.Hits[0].ObjectID, nil
}

func (b *HackerNewsBackend) parseComment(text, roleFilter string) (Posting, bool) {
	if text == "" {
		return Posting{}, false
	}

	firstLine, _, _ := strings.Cut(strings.ReplaceAll(text, "<p>", "\n"), "\n")
	firstLine = strings.TrimSpace(stripTags(firstLine))
	if len(firstLine) < 5 {
		return Posting{}, false
	}

	parts := strings.Split(firstLine, "|")
	if len(parts) < 2 {
		return Posting{}, false
	}
	company := strings.TrimSpace(parts[0])
	role := strings.TrimSpace(parts[1])
	if roleFilter != "" && !strings.Contains(strings.ToLower(role), strings.ToLower(roleFilter)) {
		return Posting{}, false
	}

	applyURL := pickApplyURL(text)
	if applyURL == "" {
		return Posting{}, false
	}

	return Posting{
		URL:       applyURL,
		Company:   truncate(company, 50),
		RoleTitle: truncate(role, 100),
		JDText:    htmlToText(html.UnescapeString(text)),
		Source:    b.Name(),
	}, true
}

// pickApplyURL prefers links that look like an application page, falling
// back to the first link in the comment.
func pickApplyURL(text string) string {
	matches := hrefRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return ""
	}
	for _, m := range matches {
		lower := strings.ToLower(m[1])
		for _, hint := range applyURLHints {
			if strings.Contains(lower, hint) {
				return m[1]
			}
		}
	}
	return matches[0][1]
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

func stripTags(s string) string {
	return html.UnescapeString(tagRe.ReplaceAllString(s, ""))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
