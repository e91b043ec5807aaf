package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/joelkehle/intelbrief/internal/app"
	"github.com/joelkehle/intelbrief/internal/config"
	"github.com/joelkehle/intelbrief/internal/httpapi"
	"github.com/joelkehle/intelbrief/internal/logger"
	"github.com/joelkehle/intelbrief/internal/observability"
)

func main() {
	os.Exit(serve(os.Args[1:], os.Stderr))
}

// serve returns the process exit code so deferred cleanup, including the
// final log flush, runs before exit.
func serve(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("briefd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configFile := fs.String("config", "", "Path to a YAML config file (optional)")
	addr := fs.String("addr", "", "Listen address, overrides server.addr")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("briefd stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownTracing := observability.InitTracing(ctx, log, observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.App.Name,
		Environment: cfg.App.Environment,
		Version:     cfg.App.Version,
	})
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	providers, err := app.NewProviders(cfg)
	if err != nil {
		return err
	}
	pipeline, err := app.NewPipeline(cfg, providers, log)
	if err != nil {
		return err
	}
	storage, err := app.OpenStorage(cfg, log)
	if err != nil {
		return err
	}
	defer storage.Close()

	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: httpapi.NewRouter(httpapi.Options{
			Generator:    pipeline,
			Store:        storage.Store,
			Log:          log,
			HealthChecks: storage.Checks,
			Version:      cfg.App.Version,
			Debug:        cfg.Log.Level == "debug",
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting briefd",
			zap.String("addr", srv.Addr),
			zap.String("database", cfg.Database.Driver),
			zap.Bool("cache", cfg.Redis.Address != ""),
			zap.Bool("competitors", cfg.Pipeline.CompetitorsEnabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
