package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/backend"
	"fintrack/internal/cache"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/worker"
)

const dedupeCleanupInterval = 10 * time.Minute

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	logger := log.Setup("info", "text")
	if err := cli.LoadEnvFile(); err != nil {
		logger.Warn("Ignoring .env file", log.FieldError, err)
	}

	cfg, err := cli.LoadAndValidateConfig(os.Getenv("FINTRACK_CONFIG"))
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return err
	}
	if !cfg.EventsEnabled() {
		err := errors.New("AMQP_URL is required for the worker")
		logger.Error("Configuration validation failed", log.FieldError, err)
		return err
	}
	logger = cli.SetupLogger(cfg).WithComponent(log.ComponentWorker)
	logger.Info("Starting fintrack-worker")

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	mc, err := backend.MirrorFromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid sheets configuration", log.FieldError, err)
		return err
	}
	mirror, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).CreateMirror(ctx, mc)
	if err != nil {
		logger.Error("Failed to open mirror", log.FieldError, err)
		return err
	}

	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		return err
	}
	defer client.Close()

	seen := cache.NewLRUCache[struct{}](worker.DefaultDedupeSize, worker.DefaultDedupeTTL)
	w := worker.NewMirrorWorker(mirror, seen, logger)

	// Catch up on anything missed while the worker was down, when the ledger
	// is reachable from here.
	if cfg.DataBackend == string(backend.SQLiteBackend) {
		if err := resync(ctx, cfg, w, logger); err != nil {
			logger.Error("Startup resync failed", log.FieldError, err, log.FieldOperation, log.OpStartup)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cache.NewManager(seen).Run(gctx, dedupeCleanupInterval)
		return nil
	})
	g.Go(func() error {
		err := w.Run(gctx, client)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		if err != nil {
			logger.Error("Message consumption failed", log.FieldError, err)
		}
		return err
	})

	err = g.Wait()
	logger.Info("Worker shutdown complete", log.FieldOperation, log.OpShutdown)
	return err
}

func resync(ctx context.Context, cfg *config.Config, w *worker.MirrorWorker, logger *log.Logger) error {
	ledger, res, err := cli.OpenLedger(ctx, cfg, nil, logger)
	if err != nil {
		return err
	}
	defer res.Cleanup()

	l, err := ledger.GetLedger(ctx)
	if err != nil {
		return err
	}
	return w.Resync(ctx, l.Transactions)
}
