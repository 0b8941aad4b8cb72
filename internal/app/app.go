// Package app wires configuration, storage, the pipeline and the transports.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mark3labs/mcp-go/server"

	"github.com/samvad-hq/samvad-news-topics/internal/auth"
	"github.com/samvad-hq/samvad-news-topics/internal/config"
	"github.com/samvad-hq/samvad-news-topics/internal/crawler"
	"github.com/samvad-hq/samvad-news-topics/internal/logger"
	"github.com/samvad-hq/samvad-news-topics/internal/pipeline"
	"github.com/samvad-hq/samvad-news-topics/internal/store"
	"github.com/samvad-hq/samvad-news-topics/internal/tools"
	"github.com/samvad-hq/samvad-news-topics/internal/topics"
	"github.com/samvad-hq/samvad-news-topics/internal/transport/mcpserver"
	"github.com/samvad-hq/samvad-news-topics/internal/transport/rest"
	"github.com/samvad-hq/samvad-news-topics/pkg/providers"
	"github.com/samvad-hq/samvad-news-topics/pkg/publishers"
)

const shutdownTimeout = 10 * time.Second

// App holds the wired service.
type App struct {
	cfg   *config.Config
	log   logger.Logger
	db    *store.BoltStore
	tools *tools.Toolbox
	mcp   *server.MCPServer
	echo  *echo.Echo
}

// New builds every component from cfg. Startup fails on a configuration
// error, an unreadable rules or publishers file, or a failed migration.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.NopLogger{}
	}

	db, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := migrate(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, err
	}

	a, err := build(ctx, cfg, log, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, log logger.Logger, db *store.BoltStore) (*App, error) {
	rules := topics.DefaultRules()
	if cfg.RulesFile != "" {
		loaded, err := topics.LoadRules(cfg.RulesFile)
		if err != nil {
			return nil, err
		}
		rules = loaded
	}

	client := providers.NewHTTPClient(cfg.HTTPClientTimeout)
	source, err := providers.NewSource(providers.DefaultFetcherRegistry(client), cfg.Provider())
	if err != nil {
		return nil, err
	}

	pubs, err := loadPublishers(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	pipe := pipeline.New(source, topics.NewClassifier(rules),
		pipeline.WithLogger(log),
		pipeline.WithObservers(
			pipeline.StoreObserver{Runs: db},
			pipeline.PublisherObserver{Publishers: pubs},
		),
	)

	tb := &tools.Toolbox{
		Pipeline: pipe,
		Enricher: crawler.NewEnricher(client, log, cfg.Enricher()),
		Auth:     auth.NewJWTAuthenticator(cfg.JWT()),
		Runs:     db,
	}

	mcpSrv := mcpserver.New(tb, log)
	e := rest.NewServer(tb, log)
	rest.Mount(e, "/mcp", mcpserver.NewHTTPHandler(mcpSrv))

	log.InfoObj("service wired", "startup", map[string]any{
		"provider":   source.ProviderID(),
		"language":   rules.Language,
		"keywords":   len(rules.Keywords),
		"triggers":   len(rules.Triggers),
		"publishers": len(pubs),
	})

	return &App{cfg: cfg, log: log, db: db, tools: tb, mcp: mcpSrv, echo: e}, nil
}

// migrate prepares the store before any request is accepted.
func migrate(ctx context.Context, m store.Migrator, log logger.Logger) error {
	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate store: %w", err)
	}
	log.DebugObj("store migrated", "startup", map[string]any{"schema_version": store.SchemaVersion})
	return nil
}

func loadPublishers(ctx context.Context, path string, log logger.Logger) ([]publishers.Publisher, error) {
	if path == "" {
		return nil, nil
	}
	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, err
	}
	return publishers.BuildAll(ctx, publishers.DefaultRegistry(), reg.Enabled(), log)
}

// Handler returns the HTTP handler serving REST and MCP.
func (a *App) Handler() http.Handler { return a.echo }

// ServeHTTP listens on the configured address until ctx is cancelled.
func (a *App) ServeHTTP(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.InfoObj("http server listening", "startup", map[string]any{"addr": a.cfg.HTTPAddr})
		if err := a.echo.Start(a.cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.log.InfoObj("http server shutting down", "shutdown", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// ServeStdio serves the MCP tools over stdin and stdout.
func (a *App) ServeStdio() error {
	a.log.InfoObj("mcp stdio server started", "startup", nil)
	return mcpserver.ServeStdio(a.mcp, a.cfg.MCPStdioToken)
}

// Close releases the store.
func (a *App) Close() error {
	return a.db.Close()
}
