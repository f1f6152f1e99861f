package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/docentsh/docent/core/agent"
	"github.com/docentsh/docent/core/config"
	"github.com/docentsh/docent/core/index"
	"github.com/docentsh/docent/core/providers"
	"github.com/docentsh/docent/core/server"
	"github.com/docentsh/docent/core/session"
	"github.com/docentsh/docent/core/tools"
)

var watchFiles bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Index the project and serve the chat agent",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&watchFiles, "watch", true, "re-index when indexed files change")
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ix, err := index.New(cfg.Index)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := ix.Reindex(ctx); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	caller, err := providers.New(cfg.Provider)
	if err != nil {
		return err
	}

	store, cleanup, err := newStore(cfg.Session)
	if err != nil {
		return err
	}
	defer cleanup()

	svc := agent.NewService(agent.ServiceConfig{
		Caller:           caller,
		Tools:            tools.NewProjectRegistry(ix, cfg.Index.CodeDir),
		Store:            store,
		SystemPrompt:     cfg.Agent.SystemPrompt,
		MaxTurns:         cfg.Agent.MaxTurns,
		MaxTokens:        cfg.Agent.MaxTokens,
		MaxMessageLength: cfg.Server.MaxMessageLength,
		Logger:           logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchFiles {
		watcher, err := index.NewWatcher(ix, 0)
		if err != nil {
			logger.Warn("file watching unavailable", "error", err)
		} else {
			go watcher.Run(ctx)
		}
	}

	srv := server.New(server.Config{
		Addr:    cfg.Server.Addr,
		Service: svc,
		Logger:  logger,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newStore builds the configured session backend.
func newStore(cfg config.SessionConfig) (session.Store, func(), error) {
	switch cfg.Backend {
	case config.BackendCache:
		store, err := session.NewCacheStore(cfg.MaxAge)
		if err != nil {
			return nil, nil, fmt.Errorf("create session cache: %w", err)
		}
		return store, store.Close, nil

	case config.BackendSQLite:
		store, err := session.NewSQLiteStore(cfg.SQLitePath, cfg.MaxAge)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil

	default:
		return session.NewMemoryStore(cfg.MaxAge), func() {}, nil
	}
}
