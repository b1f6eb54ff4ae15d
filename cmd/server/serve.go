package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/p-n-ai/sciencegpt/internal/ai"
	"github.com/p-n-ai/sciencegpt/internal/content"
	"github.com/p-n-ai/sciencegpt/internal/curriculum"
	"github.com/p-n-ai/sciencegpt/internal/platform/cache"
	"github.com/p-n-ai/sciencegpt/internal/platform/config"
	"github.com/p-n-ai/sciencegpt/internal/platform/database"
	"github.com/p-n-ai/sciencegpt/internal/tutor"
	"github.com/p-n-ai/sciencegpt/internal/video"
	"github.com/p-n-ai/sciencegpt/internal/web"
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the tutor web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log, os.Stdout)
			if err != nil {
				return err
			}
			slog.SetDefault(logger)
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(parent context.Context, cfg *config.Config) error {
	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(parent, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	return nil
}

// app is the wired server with the resources it owns.
type app struct {
	handler http.Handler
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func loadCatalog(path string) (*curriculum.Catalog, error) {
	if path == "" {
		return curriculum.Default()
	}
	return curriculum.Load(path)
}

func newRouter(cfg config.AIConfig) (*ai.Router, error) {
	router := ai.NewRouter()
	router.Register("groq", ai.NewGroqProvider(cfg.Groq.APIKey,
		ai.WithBaseURL(cfg.Groq.BaseURL),
		ai.WithDefaultModel(cfg.Groq.Model),
	))
	if cfg.Anthropic.APIKey != "" {
		p, err := ai.NewAnthropicProvider(cfg.Anthropic.APIKey)
		if err != nil {
			return nil, fmt.Errorf("anthropic provider: %w", err)
		}
		router.Register("anthropic", p)
	}
	return router, nil
}

// newApp wires the tutor from configuration. The redis session store and
// the postgres event log are used only when their URLs are set.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	fail := func(err error) (*app, error) {
		a.Close()
		return nil, err
	}

	catalog, err := loadCatalog(cfg.CurriculumPath)
	if err != nil {
		return fail(fmt.Errorf("load curriculum: %w", err))
	}

	router, err := newRouter(cfg.AI)
	if err != nil {
		return fail(err)
	}
	slog.Info("AI providers registered", "providers", router.Names())

	if !cfg.HasVideoSearch() {
		slog.Info("video search disabled, LEARN_YOUTUBE_API_KEY not set")
	}
	generator := content.NewGenerator(content.GeneratorConfig{
		AI:        router,
		Video:     video.New(cfg.YouTube.APIKey),
		Languages: catalog,
	})

	checks := map[string]web.HealthChecker{"ai": router}

	var store tutor.SessionStore
	if cfg.Cache.URL != "" {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return fail(fmt.Errorf("connect cache: %w", err))
		}
		a.closers = append(a.closers, func() { _ = c.Close() })
		checks["cache"] = c
		store = tutor.NewRedisStore(c.Client, cfg.Session.TTL())
		slog.Info("sessions stored in redis", "ttl", cfg.Session.TTL().String())
	} else {
		store = tutor.NewMemoryStore(cfg.Session.TTL())
		slog.Info("sessions stored in memory", "ttl", cfg.Session.TTL().String())
	}

	var events tutor.EventLogger = tutor.NopEventLogger{}
	if cfg.Database.URL != "" {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return fail(fmt.Errorf("connect database: %w", err))
		}
		a.closers = append(a.closers, db.Close)
		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				return fail(err)
			}
		}
		checks["database"] = db
		events = tutor.NewPostgresEventLogger(db.Pool)
	}

	engine := tutor.NewEngine(tutor.EngineConfig{
		Catalog:   catalog,
		Generator: generator,
		Events:    events,
	})
	a.handler = web.NewServer(web.Config{
		Engine: engine,
		Store:  store,
		Checks: checks,
	}).Handler()
	return a, nil
}
