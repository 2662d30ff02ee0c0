// Package app initializes and holds the long-lived services a sync run
// needs, acting as the composition root. It builds the logger, the remote
// clients, the scraping backend, and the progress pipeline once, then hands
// them to commands through accessors.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mkedev/planning-sync/internal/api"
	"github.com/mkedev/planning-sync/internal/config"
	"github.com/mkedev/planning-sync/internal/convex"
	"github.com/mkedev/planning-sync/internal/filesearch"
	"github.com/mkedev/planning-sync/internal/hash/md5"
	"github.com/mkedev/planning-sync/internal/httpclient"
	"github.com/mkedev/planning-sync/internal/logging"
	"github.com/mkedev/planning-sync/internal/policy/ratelimit"
	"github.com/mkedev/planning-sync/internal/progress"
	"github.com/mkedev/planning-sync/internal/progress/sinks"
	"github.com/mkedev/planning-sync/internal/scrape"
	"github.com/mkedev/planning-sync/internal/scrape/browser"
	"github.com/mkedev/planning-sync/internal/scrape/firecrawl"
	"github.com/mkedev/planning-sync/internal/sync"
)

// App holds the shared, long-lived services for the application. It is
// initialized once at startup and passed to the commands that need it.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    *convex.Client
	index    *filesearch.Client
	scraper  scrape.Scraper
	hub      *progress.Hub
	state    *sinks.StateSink
	orch     *sync.Orchestrator
	ops      *http.Server
	registry prometheus.Registerer
}

// Option adjusts construction, mainly for tests.
type Option func(*App)

// WithRegistry directs run metrics at reg instead of the default Prometheus
// registry. Tests use this to build independent Apps without duplicate
// collector registration.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(a *App) { a.registry = reg }
}

// GetLogger returns the shared zap logger.
func (a *App) GetLogger() *zap.Logger {
	return a.logger
}

// GetStore exposes the metadata store client.
func (a *App) GetStore() *convex.Client {
	return a.store
}

// GetIndex exposes the search index client.
func (a *App) GetIndex() *filesearch.Client {
	return a.index
}

// GetScraper returns the configured scraping backend.
func (a *App) GetScraper() scrape.Scraper {
	return a.scraper
}

// GetSync returns the orchestrator that runs sync operations.
func (a *App) GetSync() *sync.Orchestrator {
	return a.orch
}

// NewApp builds the service graph from cfg. It fails fast when a service
// cannot be constructed; nothing dials out until the first sync operation,
// so construction is cheap even with the browser backend.
func NewApp(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger}
	for _, opt := range opts {
		opt(a)
	}

	a.store = convex.New(cfg.Convex.URL, cfg.Convex.DeployKey,
		convex.WithHTTPClient(httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Convex.Timeout()}),
			httpclient.WithHeader("Authorization", "Bearer "+cfg.Convex.DeployKey),
			httpclient.WithLogger(logger),
		)),
		convex.WithLogger(logger),
	)

	a.index = filesearch.New(cfg.Gemini.APIKey,
		filesearch.WithHTTPClient(httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Index.UploadTimeout()}),
			httpclient.WithHeader("x-goog-api-key", cfg.Gemini.APIKey),
			httpclient.WithLogger(logger),
		)),
		filesearch.WithLogger(logger),
	)

	if cfg.UseFirecrawl() {
		logger.Info("using firecrawl scraping backend")
		a.scraper = firecrawl.New(
			firecrawl.Config{APIKey: cfg.Firecrawl.APIKey, BaseURL: cfg.Firecrawl.BaseURL},
			firecrawl.WithHTTPClient(httpclient.New(
				httpclient.WithHTTPClient(&http.Client{Timeout: cfg.Firecrawl.Timeout()}),
				httpclient.WithHeader("Authorization", "Bearer "+cfg.Firecrawl.APIKey),
				httpclient.WithGate(ratelimit.NewGate(cfg.Firecrawl.RequestSpacing())),
				httpclient.WithLogger(logger),
			)),
			firecrawl.WithLogger(logger),
		)
	} else {
		logger.Info("using headless browser scraping backend")
		a.scraper = browser.New(browser.Config{
			UserAgent:         cfg.Scrape.UserAgent,
			NavigationTimeout: cfg.Scrape.NavTimeout(),
		}, logger)
	}

	promSink, err := sinks.NewPrometheusSink(a.registry)
	if err != nil {
		return nil, err
	}
	a.state = sinks.NewStateSink()
	a.hub = progress.NewHub(
		progress.Config{BaseContext: ctx, Logger: logger},
		sinks.NewLogSink(logger),
		promSink,
		a.state,
	)

	a.orch = sync.New(a.store, a.index, a.scraper, md5.New(),
		sync.WithEmitter(a.hub),
		sync.WithLogger(logger),
		sync.WithStoreDisplayName(cfg.Index.StoreDisplayName),
	)

	if cfg.Ops.Enabled {
		srv := api.NewServer(a.state, logger)
		a.ops = &http.Server{
			Addr:              cfg.Ops.Addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("ops server listening", zap.String("addr", cfg.Ops.Addr))
			if err := a.ops.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("ops server failed", zap.Error(err))
			}
		}()
	}

	return a, nil
}

// Close shuts the services down in dependency order: stop serving ops
// traffic, release the scraping backend, then flush pending progress events
// before the final logger sync.
func (a *App) Close(ctx context.Context) {
	if a.ops != nil {
		if err := a.ops.Shutdown(ctx); err != nil {
			a.logger.Warn("ops server shutdown", zap.Error(err))
		}
	}
	if a.scraper != nil {
		if err := a.scraper.Close(); err != nil {
			a.logger.Warn("scraper close", zap.Error(err))
		}
	}
	if a.hub != nil {
		if err := a.hub.Close(ctx); err != nil {
			a.logger.Warn("progress hub close", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
