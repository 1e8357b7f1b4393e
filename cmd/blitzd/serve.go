package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"dutchblitz/internal/app"
	"dutchblitz/internal/config"
	"dutchblitz/internal/logging"
	"dutchblitz/internal/ports/ws"
	"dutchblitz/internal/session"

	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr    string
	Config  string
	Origins []string
	// IdleTimeout removes sessions that have had no players for this long.
	IdleTimeout time.Duration
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sessions over HTTP and websockets",
		Long: `Start the session server.

Game settings come from --config (YAML or JSON) and are then overridden by
blitz_* environment variables, including those from the env file.

Example:
  blitzd serve --addr :8080 --config data/game_config.yaml
  blitzd serve --origins example.com --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&opts.Config, "config", "", "game config file (defaults when empty)")
	cmd.Flags().StringSliceVar(&opts.Origins, "origins", nil, "accepted websocket Origin host patterns")
	cmd.Flags().DurationVar(&opts.IdleTimeout, "idle-timeout", session.DefaultIdleTimeout, "remove sessions left without players for this long (0 keeps them)")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	logger, err := logging.New(opts.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := loadConfig(opts.Config, environ(os.Environ()))
	if err != nil {
		return err
	}

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := app.NewService(rand.New(rand.NewSource(time.Now().UnixNano())), cfg.Tuning())
	sessions := session.NewManager(ctx, svc, logger, session.WithIdleTimeout(opts.IdleTimeout))
	defer sessions.Close()

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           ws.NewRouter(ws.NewHub(sessions, logger, opts.Origins)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.WithFields(map[string]interface{}{
		"addr":        opts.Addr,
		"max_players": cfg.MaxPlayers,
		"foundations": cfg.FoundationCount,
	}).Info("server listening")

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// loadConfig reads path, or the defaults when path is empty, and applies env.
func loadConfig(path string, env map[string]string) (*config.GameConfig, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnv(env); err != nil {
		return nil, err
	}
	return cfg, nil
}

// environ turns KEY=value pairs into a map.
func environ(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}
