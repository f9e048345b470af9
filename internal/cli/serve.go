package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ws1993/Baby-Growth-Record/internal/server"
)

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Serve the JSON API, live change notifications on /ws and Prometheus
metrics on /metrics. When sync.interval is set, pending changes are uploaded
in the background.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				rootOpts.cfg.Server.Port = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, rootOpts)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "listen port, overrides server.port")
	return cmd
}

func runServe(ctx context.Context, opts *RootOptions) error {
	cfg, logger := opts.cfg, opts.logger

	adapter, db := opts.adapter()
	if db != nil {
		defer db.Close()
	}

	srv, err := server.New(adapter, server.Config{
		OriginPatterns: cfg.Server.OriginPatterns,
		RateLimit:      cfg.Server.RateLimit,
		TrustProxy:     cfg.Server.TrustProxy,
		Sync:           opts.syncConfig(),
		AppSecret:      cfg.App.Secret,
	}, logger)
	if err != nil {
		return err
	}
	srv.Start(ctx)
	defer srv.Stop()

	addr := ":" + strconv.Itoa(cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Sync.Timeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("growthrec listening", "addr", addr, "persistent", srv.Persistent())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}
