package scrape

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/jonathan/apply-pilot/internal/platform"
	"github.com/jonathan/apply-pilot/internal/store"
)

// Target names one source to scrape, e.g. {Backend: "lever", Value: "acme"}
// or {Backend: "hackernews", Value: "golang"}.
type Target struct {
	Backend string
	Value   string
}

// ParseTarget splits "backend:value" CLI syntax. A bare backend name is
// allowed for backends that take no value.
func ParseTarget(s string) (Target, error) {
	backend, value, _ := strings.Cut(s, ":")
	backend = strings.TrimSpace(backend)
	if backend == "" {
		return Target{}, fmt.Errorf("empty scrape target")
	}
	return Target{Backend: backend, Value: strings.TrimSpace(value)}, nil
}

// Result summarizes one scrape run.
type Result struct {
	Found    int
	Inserted int
	Skipped  int
}

// Service coordinates backends and persists discovered postings.
type Service struct {
	store    store.Store
	backends map[string]Backend
	limiter  *rate.Limiter
	log      *zap.SugaredLogger
}

// NewService wires the default backends. The limiter spaces requests across
// all backends so a multi-target run stays polite to the boards.
func NewService(st store.Store, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Service{
		store:    st,
		backends: make(map[string]Backend),
		limiter:  rate.NewLimiter(rate.Limit(2), 1),
		log:      log,
	}
	for _, b := range []Backend{NewLever(), NewGreenhouse(), NewAshby(), NewHackerNews()} {
		s.backends[b.Name()] = b
	}
	return s
}

// Register adds or replaces a backend, mainly for tests.
func (s *Service) Register(b Backend) {
	s.backends[b.Name()] = b
}

// Backends lists the registered backend names.
func (s *Service) Backends() []string {
	out := make([]string, 0, len(s.backends))
	for name := range s.backends {
		out = append(out, name)
	}
	return out
}

// Run scrapes one target and inserts what it finds. Postings already in the
// store (matched by URL) count as skipped, not errors.
func (s *Service) Run(ctx context.Context, t Target) (*Result, error) {
	backend, ok := s.backends[t.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown scrape backend %q", t.Backend)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	postings, err := backend.Scrape(ctx, t.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape %s: %w", t.Backend, err)
	}

	res := &Result{Found: len(postings)}
	for _, p := range postings {
		rec, created, err := s.store.Insert(ctx, store.InsertInput{
			URL:       p.URL,
			Company:   p.Company,
			RoleTitle: p.RoleTitle,
			JDText:    p.JDText,
			Platform:  platform.Detect(p.URL),
			Source:    p.Source,
		})
		if err != nil {
			return res, fmt.Errorf("failed to insert posting %s: %w", p.URL, err)
		}
		if created {
			res.Inserted++
			s.log.Infow("Scraped job", "company", rec.Company, "role", rec.RoleTitle, "platform", rec.Platform)
		} else {
			res.Skipped++
		}
	}
	return res, nil
}

// RunAll scrapes targets concurrently and merges their results. Backend
// failures are collected; a partial run still reports what was inserted.
func (s *Service) RunAll(ctx context.Context, targets []Target) (*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	results := make([]*Result, len(targets))
	for i, t := range targets {
		g.Go(func() error {
			r, err := s.Run(ctx, t)
			if r != nil {
				results[i] = r
			}
			return err
		})
	}
	err := g.Wait()

	total := &Result{}
	for _, r := range results {
		if r == nil {
			continue
		}
		total.Found += r.Found
		total.Inserted += r.Inserted
		total.Skipped += r.Skipped
	}
	return total, err
}
