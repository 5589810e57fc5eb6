// Package app wires the scan core from configuration. Both binaries use it.
package app

import (
	"context"
	"database/sql"
	"log"
	"time"

	"menu-lens/api/internal/analysis"
	"menu-lens/api/internal/analysis/gemini"
	"menu-lens/api/internal/analysis/gpt"
	"menu-lens/api/internal/config"
	"menu-lens/api/internal/dish"
	"menu-lens/api/internal/ingest"
	"menu-lens/api/internal/progress"
	"menu-lens/api/internal/prompt"
	"menu-lens/api/internal/scan"
	"menu-lens/api/internal/session"
	"menu-lens/api/internal/store"
)

const purgeEvery = 24 * time.Hour

type App struct {
	Scanner  *scan.Scanner
	Ingest   *ingest.Ingestor
	Sessions *session.Registry
	DB       *sql.DB // nil without DATABASE_URL
}

// Engines builds the engines that have credentials. An engine without a key
// stays nil so Engines.Get reports it as not configured.
func Engines(cfg *config.Config) *analysis.Engines {
	engs := &analysis.Engines{Default: cfg.DefaultLLM}
	if cfg.GeminiAPIKey != "" {
		engs.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	if cfg.OpenAIAPIKey != "" {
		engs.OpenAI = gpt.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	}
	return engs
}

func PhotoStore(ctx context.Context, cfg *config.Config) (ingest.PhotoStore, error) {
	if !cfg.HasR2() {
		return ingest.NewMemoryStore(), nil
	}
	return ingest.NewS3Store(ctx, ingest.S3Options{
		Endpoint:      cfg.R2Endpoint,
		AccessKey:     cfg.R2AccessKey,
		SecretKey:     cfg.R2SecretKey,
		Bucket:        cfg.R2Bucket,
		PublicBaseURL: cfg.R2PublicBaseURL,
	})
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	engs := Engines(cfg)
	if engs.Gemini == nil && engs.OpenAI == nil {
		log.Printf("no analysis engine configured: set GEMINI_API_KEY or OPENAI_API_KEY")
	}

	ps, err := PhotoStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	in := ingest.New(ps, cfg.MaxImageBytes)

	sc := &scan.Scanner{
		Ingest:      in,
		Builder:     analysis.NewBuilder(prompt.Loader{Dir: cfg.PromptDir}, cfg.DefaultLanguage),
		Engines:     engs,
		Normalizer:  dish.NewNormalizer(cfg.IllustrationBaseURL),
		CacheMaxAge: cfg.CacheMaxAge,
		Progress:    progress.DefaultOptions(),
	}
	a := &App{Scanner: sc, Ingest: in, Sessions: session.NewRegistry()}

	if cfg.DatabaseURL != "" {
		db, err := store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Printf("db connected: %s", store.DSNSummary(cfg.DatabaseURL))
		repo := store.NewCacheRepo(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		sc.Cache = repo
		a.DB = db
		go purgeLoop(ctx, repo, cfg.CacheMaxAge)
	}
	return a, nil
}

func purgeLoop(ctx context.Context, repo *store.CacheRepo, maxAge time.Duration) {
	if maxAge <= 0 {
		return
	}
	t := time.NewTicker(purgeEvery)
	defer t.Stop()
	for {
		n, err := repo.PurgeOlderThan(ctx, maxAge)
		if err != nil {
			log.Printf("cache purge: %v", err)
		} else if n > 0 {
			log.Printf("cache purge: %d rows", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// Healthz answers ok, or 503 when the cache database is unreachable.
func (a *App) Healthz(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.DB.PingContext(ctx)
}
