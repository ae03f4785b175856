// Package app assembles the extraction stack from configuration. It is shared
// by the API server and the command line tool.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/octobees/leads-extractor/internal/browser"
	"github.com/octobees/leads-extractor/internal/config"
	"github.com/octobees/leads-extractor/internal/database"
	"github.com/octobees/leads-extractor/internal/repository"
	"github.com/octobees/leads-extractor/internal/scraper"
	"github.com/octobees/leads-extractor/internal/service"
)

const (
	windowWidth  = 1280
	windowHeight = 800
)

// ScraperOptions maps configuration onto engine options. Unset values keep
// the engine defaults.
func ScraperOptions(cfg config.ScraperConfig) scraper.Options {
	opts := scraper.DefaultOptions()
	if cfg.SearchURL != "" {
		opts.SearchURL = cfg.SearchURL
	}
	if cfg.ScrollStep > 0 {
		opts.ScrollStep = cfg.ScrollStep
	}
	if cfg.ScrollDelay > 0 {
		opts.ScrollDelay = cfg.ScrollDelay
	}
	if cfg.ScrollMaxIdle > 0 {
		opts.MaxIdleAttempts = cfg.ScrollMaxIdle
	}
	if cfg.PhoneSuppressThreshold > 0 {
		opts.PhoneSuppressThreshold = cfg.PhoneSuppressThreshold
	}
	return opts
}

// PoolConfig maps configuration onto browser pool settings.
func PoolConfig(cfg config.BrowserConfig) browser.PoolConfig {
	return browser.PoolConfig{
		Size:         cfg.PoolSize,
		Headless:     cfg.Headless,
		UserAgent:    cfg.UserAgent,
		ExecPath:     cfg.ExecPath,
		WindowWidth:  windowWidth,
		WindowHeight: windowHeight,
	}
}

// Stack is everything a search needs. Close releases the browser and the
// database pool.
type Stack struct {
	Pool    *browser.Pool
	Engine  *scraper.Engine
	DB      *pgxpool.Pool
	Service *service.LeadsService
}

// Build wires the browser pool, engine and leads service. Persistence is
// enabled when cfg.DatabaseURL is set, webhook delivery when cfg.WebhookURL is.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Stack, error) {
	if log == nil {
		log = zap.L()
	}

	st := &Stack{Pool: browser.NewPool(PoolConfig(cfg.Browser))}
	st.Engine = scraper.NewEngine(st.Pool, ScraperOptions(cfg.Scraper), log.Named("scraper"))

	opts := []service.LeadsServiceOption{
		service.WithSessionTimeout(cfg.Scraper.SessionTimeout),
		service.WithLogger(log.Named("leads")),
	}

	if cfg.DatabaseURL != "" {
		db, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("connect database: %w", err)
		}
		st.DB = db
		if err := database.EnsureSchema(ctx, db); err != nil {
			st.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		opts = append(opts, service.WithRepository(repository.NewPGXLeadsRepository(db)))
	} else {
		log.Info("app: DATABASE_URL not set, lead persistence disabled")
	}

	if cfg.WebhookURL != "" {
		notifier, err := service.NewWebhookNotifier(nil, cfg.WebhookURL)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("configure webhook: %w", err)
		}
		opts = append(opts, service.WithNotifier(notifier))
	}

	st.Service = service.NewLeadsService(st.Engine, service.NewLeadNormalizer(cfg.DefaultPhoneRegion), opts...)
	return st, nil
}

// Close releases the resources held by the stack.
func (s *Stack) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
