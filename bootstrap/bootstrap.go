// Package bootstrap wires all dependencies and starts the application.
// Configuration comes from an optional YAML file overlaid with PAGEBLOCKS_*
// environment variables.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/pageblocks/adapters/clock"
	apihttp "github.com/artpar/pageblocks/adapters/http"
	"github.com/artpar/pageblocks/adapters/idgen"
	mcpserver "github.com/artpar/pageblocks/adapters/mcp"
	"github.com/artpar/pageblocks/adapters/media"
	"github.com/artpar/pageblocks/adapters/memory"
	"github.com/artpar/pageblocks/adapters/metrics"
	"github.com/artpar/pageblocks/adapters/sqlite"
	"github.com/artpar/pageblocks/app"
	"github.com/artpar/pageblocks/config"
	"github.com/artpar/pageblocks/core/block"
	"github.com/artpar/pageblocks/core/builtin"
	"github.com/artpar/pageblocks/core/info"
	"github.com/artpar/pageblocks/core/pipeline"
	"github.com/artpar/pageblocks/core/registry"
	"github.com/artpar/pageblocks/core/validation"
	"github.com/artpar/pageblocks/ports"
)

// purgingCache is a discovery cache store the janitor can sweep.
type purgingCache interface {
	ports.CacheStore
	Purger
}

// Options configures application initialization.
type Options struct {
	// ConfigPath is an optional YAML file. When it exists it is watched for
	// changes; otherwise configuration comes from the environment alone.
	ConfigPath string

	// Version is reported by /version and the MCP server.
	Version string

	// HostBlocks are block definitions contributed by the embedding program.
	// A host definition producing a built-in key replaces the built-in.
	HostBlocks []block.Definition

	// LogOutput defaults to stdout. The MCP stdio server needs stderr.
	LogOutput io.Writer
}

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Config     *config.Holder
	DB         *sqlite.DB
	Metrics    *metrics.Collector
	Registry   *registry.Registry
	Pipeline   *pipeline.Pipeline
	Content    *app.ContentService
	HTTPServer *http.Server

	version string
	cache   Purger
	janitor *Janitor
	promReg *prometheus.Registry
}

// New creates and initializes the application.
func New(opts Options) (*App, error) {
	cfg, err := config.LoadWithFallback(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Logging, opts.LogOutput)
	logger.Info().Str("environment", cfg.Environment).Msg("initializing pageblocks")

	a := &App{
		Logger:  logger,
		version: opts.Version,
	}

	if err := a.initConfig(opts.ConfigPath, cfg); err != nil {
		return nil, err
	}

	if cfg.Metrics.Enabled {
		a.promReg = prometheus.NewRegistry()
		a.promReg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.NewWithRegistry(a.promReg)
		a.Config.SetMetrics(a.Metrics)
		logger.Info().Msg("prometheus metrics enabled")
	}

	if err := a.initDatabase(cfg.Database.DSN); err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}

	if err := a.initContent(cfg, opts.HostBlocks); err != nil {
		a.Close()
		return nil, err
	}

	if err := a.initJanitor(cfg.Cache.PurgeSchedule); err != nil {
		a.Close()
		return nil, err
	}

	a.initHTTPServer(cfg)
	a.Config.OnChange(a.applyConfig)

	return a, nil
}

func (a *App) initConfig(path string, cfg *config.Config) error {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			h, err := config.NewHolder(path, a.Logger)
			if err != nil {
				return err
			}
			a.Config = h
			return nil
		}
		a.Logger.Warn().Str("path", path).Msg("config file not found, using environment")
	}
	a.Config = config.NewStaticHolder(cfg, a.Logger)
	return nil
}

func (a *App) initDatabase(dsn string) error {
	db, err := sqlite.Open(dsn)
	if err != nil {
		return err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}

	a.DB = db
	a.Logger.Info().Str("dsn", dsn).Msg("database ready")
	return nil
}

func (a *App) initContent(cfg *config.Config, host []block.Definition) error {
	resolver, err := media.NewResolver(cfg.Media.BaseURL)
	if err != nil {
		return fmt.Errorf("media: %w", err)
	}

	var cache purgingCache
	switch cfg.Cache.Store {
	case config.StoreSQLite:
		cache = sqlite.NewCacheStore(a.DB, clock.Real{})
	default:
		cache = memory.NewCacheStore()
	}
	a.cache = cache

	a.Registry = registry.New(registry.Options{
		Builtin:      builtin.Definitions(resolver),
		Host:         host,
		Cache:        cache,
		CacheEnabled: cfg.Cache.Enabled,
		CacheKey:     cfg.Cache.Key,
		CacheTTL:     cfg.Cache.TTLDuration(),
		Bypass:       cfg.IsLocal(),
		Disabled:     cfg.DisabledBlocks,
		Logger:       a.Logger.With().Str("component", "registry").Logger(),
		Metrics:      a.Metrics,
	})

	a.Pipeline = pipeline.New(a.Registry,
		pipeline.WithLogger(a.Logger.With().Str("component", "pipeline").Logger()),
		pipeline.WithMetrics(a.Metrics),
		pipeline.WithFilterMissing(cfg.FilterMissingBlocks),
	)

	a.Content = app.NewContentService(
		sqlite.NewPageStore(a.DB),
		a.Registry,
		a.Pipeline,
		info.NewExtractor(a.Logger),
		validation.New(a.Metrics),
		clock.Real{},
		idgen.UUID{Prefix: idgen.PagePrefix},
		a.Logger,
	)
	return nil
}

func (a *App) initJanitor(schedule string) error {
	if schedule == "" {
		return nil
	}
	j, err := NewJanitor(schedule, a.cache, a.Logger.With().Str("component", "janitor").Logger())
	if err != nil {
		return err
	}
	a.janitor = j
	return nil
}

func (a *App) initHTTPServer(cfg *config.Config) {
	rc := apihttp.RouterConfig{
		Metrics:     a.Metrics,
		MetricsPath: cfg.Metrics.Path,
		Version:     a.version,
		Timeout:     cfg.Server.WriteTimeout,
	}
	if a.promReg != nil {
		rc.MetricsHandler = promhttp.HandlerFor(a.promReg, promhttp.HandlerOpts{})
	}

	router := apihttp.NewRouter(apihttp.NewHandler(a.Content, a.Logger), a.Logger, rc)
	a.HTTPServer = &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}

// applyConfig applies the reloadable part of a new configuration.
func (a *App) applyConfig(cfg *config.Config) {
	a.Registry.SetDisabled(cfg.DisabledBlocks)
	a.Pipeline.SetFilterMissing(cfg.FilterMissingBlocks)
	setLevel(cfg.Logging.Level)

	a.Logger.Info().
		Strs("disabled_blocks", cfg.DisabledBlocks).
		Bool("filter_missing_blocks", cfg.FilterMissingBlocks).
		Msg("block settings applied")
}

// MCP returns an MCP server over the application's content service.
func (a *App) MCP() *mcpserver.Server {
	return mcpserver.New(a.Content, a.Logger, a.version)
}

// StartBackground starts the cache janitor and config watchers.
func (a *App) StartBackground() {
	if a.janitor != nil {
		a.janitor.Start()
	}
	if a.Config.Path() != "" {
		if err := a.Config.WatchFile(); err != nil {
			a.Logger.Warn().Err(err).Msg("config file watching disabled")
		}
		a.Config.WatchSignals()
	}
}

// Run serves HTTP until SIGINT or SIGTERM, then shuts down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return a.Serve(ctx)
}

// Serve serves HTTP until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	a.StartBackground()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().
			Str("addr", a.HTTPServer.Addr).
			Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		a.Logger.Info().Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the HTTP server and releases resources.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	if a.HTTPServer != nil {
		if err = a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if cerr := a.Close(); cerr != nil && err == nil {
		err = cerr
	}

	a.Logger.Info().Msg("shutdown complete")
	return err
}

// Close stops background work and closes the database.
func (a *App) Close() error {
	if a.janitor != nil {
		<-a.janitor.Stop().Done()
	}
	if a.Config != nil {
		a.Config.Stop()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
