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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"grameengo/internal/platform/config"
	"grameengo/internal/platform/httpserver"
	"grameengo/internal/platform/logger"
)

// limiterSweepInterval is how often idle per-actor limiters are dropped.
const limiterSweepInterval = 5 * time.Minute

func serveCmd(envFile *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the outbox relay",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Server.LogLevel, cfg.Server.LogFormat)
			slog.SetDefault(log)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply pending migrations before serving (postgres only)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log *slog.Logger, migrate bool) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	d, err := buildDeps(ctx, cfg, log, reg, migrate)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer d.Close()

	srv := httpserver.New(cfg.Server, newRouter(cfg, d, log, reg))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting grameengo",
			"addr", cfg.Server.Addr,
			"env", cfg.Server.Environment,
			"storage", d.storage,
			"catalog_cache", d.redis != nil,
			"outbox_relay", d.worker != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})
	if d.worker != nil {
		g.Go(func() error { return d.worker.Run(gctx) })
	}
	g.Go(func() error {
		ticker := time.NewTicker(limiterSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case now := <-ticker.C:
				if n := d.limiter.Sweep(now); n > 0 {
					log.Debug("swept idle rate limiters", "removed", n)
				}
			}
		}
	})
	return g.Wait()
}
