package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/apply-pilot/internal/ai"
	"github.com/jonathan/apply-pilot/internal/answers"
	"github.com/jonathan/apply-pilot/internal/config"
	"github.com/jonathan/apply-pilot/internal/fill"
	"github.com/jonathan/apply-pilot/internal/llm"
	"github.com/jonathan/apply-pilot/internal/logging"
	"github.com/jonathan/apply-pilot/internal/pipeline"
	"github.com/jonathan/apply-pilot/internal/scrape"
	"github.com/jonathan/apply-pilot/internal/store"
	"github.com/jonathan/apply-pilot/internal/tailor"
)

// app wires the pipeline for one CLI invocation.
type app struct {
	cfg       *config.Config
	log       *zap.SugaredLogger
	store     store.Store
	orch      *pipeline.Orchestrator
	resolver  *answers.Resolver
	screening *ai.Service
	scraper   *scrape.Service
	llmClient llm.Client
}

// newApp builds the dependency graph from config: Postgres when DATABASE_URL
// is set (in-memory otherwise, useful for dry runs), Gemini when an API key
// is present, and the answers lookup table when its file exists.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	log, err := logging.New(logging.Options{JSON: flagJSONLog, Verbose: flagVerbose || cfg.Verbose})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	a := &app{cfg: cfg, log: log}

	if cfg.DatabaseURL != "" {
		pg, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, fmt.Errorf("failed to apply schema: %w", err)
		}
		a.store = pg
	} else {
		log.Warnw("DATABASE_URL not set, using in-memory store")
		a.store = store.NewMemory()
	}

	a.resolver = loadResolver(cfg.AnswersFile, log)

	if cfg.APIKey != "" {
		client, err := llm.NewGeminiClient(ctx, llm.DefaultConfig(), cfg.APIKey)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		a.llmClient = client
	}

	var answerer ai.QuestionAnswerer
	if a.llmClient != nil {
		answerer = ai.NewAnswerer(a.llmClient)
	}
	a.screening = ai.NewService(a.resolver, a.store, answerer, log)

	registry := pipeline.NewRegistry()
	fill.RegisterAll(registry, fill.Config{
		Applicant:     a.resolver.Applicant(),
		Headless:      cfg.Headless,
		ScreenshotDir: cfg.ScreenshotDir,
	}, log)

	a.orch = pipeline.New(pipeline.Config{
		Store:         a.store,
		Registry:      registry,
		Tailor:        a.buildTailor(),
		Screening:     a.screening,
		Logger:        log,
		DefaultResume: cfg.DefaultResume,
	})

	a.scraper = scrape.NewService(a.store, log)
	return a, nil
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if flagConfig != "" {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadResolver loads the lookup table, falling back to an empty one when the
// file is absent so the AI fallback still works.
func loadResolver(path string, log *zap.SugaredLogger) *answers.Resolver {
	if path != "" {
		table, err := answers.Load(path)
		if err == nil {
			return answers.NewResolver(table)
		}
		if errors.Is(err, os.ErrNotExist) {
			log.Warnw("Answers file not found", "path", path)
		} else {
			log.Warnw("Failed to load answers file", "path", path, "error", err)
		}
	}
	return answers.NewResolver(&answers.Table{})
}

// buildTailor prefers the LLM tailor; without an API key it falls back to
// the static default resume, and with neither the tailor step is disabled.
func (a *app) buildTailor() pipeline.ResumeTailor {
	if a.llmClient != nil && a.cfg.BaseResume != "" {
		return tailor.NewLLM(a.llmClient, a.cfg.BaseResume, a.cfg.OutputDir)
	}
	if a.cfg.DefaultResume != "" {
		return &tailor.Static{Path: a.cfg.DefaultResume}
	}
	return nil
}

func (a *app) Close() {
	if a.llmClient != nil {
		_ = a.llmClient.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
	_ = a.log.Sync()
}

// resolveJobID accepts a full UUID or a unique ID prefix, the way operators
// copy short IDs out of the queue listing.
func (a *app) resolveJobID(ctx context.Context, arg string) (uuid.UUID, error) {
	if id, err := uuid.Parse(arg); err == nil {
		return id, nil
	}

	jobs, err := a.store.List(ctx, store.Filter{})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	var match uuid.UUID
	found := 0
	for _, j := range jobs {
		if strings.HasPrefix(j.ID.String(), strings.ToLower(arg)) {
			match = j.ID
			found++
		}
	}
	switch found {
	case 0:
		return uuid.Nil, fmt.Errorf("no job matches %q", arg)
	case 1:
		return match, nil
	default:
		return uuid.Nil, fmt.Errorf("%q is ambiguous, %d jobs match", arg, found)
	}
}
