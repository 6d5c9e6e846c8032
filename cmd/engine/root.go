package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/ai-ethics-evaluator/internal/adapter/observability"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/app"
	"github.com/fairyhunter13/ai-ethics-evaluator/internal/config"
)

type rootOptions struct {
	metricsAddr string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "engine",
		Short:        "AI ethics answer generation and evaluation engine",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.metricsAddr, "metrics-addr", "", "ops server address (overrides METRICS_ADDR; empty keeps the env value)")

	cmd.AddCommand(
		newAnswerCmd(opts),
		newSentimentCmd(opts),
		newEvaluateCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// runEngine loads configuration, brings up logging, metrics, tracing and the
// ops server, then runs fn with a context cancelled on SIGINT/SIGTERM.
// serveOps=false keeps short one-shot commands from binding a port.
func runEngine(opts *rootOptions, serveOps bool, fn func(ctx context.Context, e *app.Engine) error) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		return err
	}
	if opts.metricsAddr != "" {
		cfg.MetricsAddr = opts.metricsAddr
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)
	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	e, err := app.NewEngine(cfg)
	if err != nil {
		slog.Error("engine init failed", slog.Any("error", err))
		return err
	}
	defer e.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveOps && cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           app.BuildRouter(e.OpsServer()),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("ops server listening", slog.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("ops server error", slog.Any("error", err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("engine started", slog.String("env", cfg.AppEnv), slog.Int("pid", os.Getpid()))
	return fn(ctx, e)
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the ops server (health, readiness, status, metrics) until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runEngine(opts, true, func(ctx context.Context, _ *app.Engine) error {
				<-ctx.Done()
				slog.Info("shutting down")
				return nil
			})
		},
	}
}
