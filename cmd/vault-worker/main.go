package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/secondbrain/vault-service/internal/cloudstorage"
	"github.com/secondbrain/vault-service/internal/config"
	"github.com/secondbrain/vault-service/internal/pipeline"
	"github.com/secondbrain/vault-service/internal/platform/factory"
	"github.com/secondbrain/vault-service/internal/platform/logger"
	"github.com/secondbrain/vault-service/internal/services"
	"github.com/secondbrain/vault-service/internal/vault"
)

func main() {
	log := logger.New("vault-worker")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := factory.NewStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("store")
	}

	idx, err := factory.NewIndex(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("search index")
	}

	emb, err := factory.NewEmbedder(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("embedder unavailable – notes will be indexed without vectors")
		emb = nil
	}

	blobs := vault.NewBlobStore(cfg.StorageRoot)
	validator := vault.NewArchiveValidator(cfg.MaxVaultSize)
	svc := services.NewVaultService(st, blobs, validator, idx, emb, log)
	if cfg.BackupDir != "" {
		svc.WithBackup(cloudstorage.NewLocal(cfg.BackupDir))
	}

	w := pipeline.NewWorker(st, svc, pipeline.Config{
		BatchSize:   cfg.WorkerBatchSize,
		Interval:    cfg.WorkerInterval,
		StepTimeout: cfg.StepTimeout,
		Policy: pipeline.RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
			Retryable:   vault.Retryable,
		},
	}, log)

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("pipeline worker exit")
		os.Exit(1)
	}
}
