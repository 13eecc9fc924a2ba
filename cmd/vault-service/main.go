package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/secondbrain/vault-service/internal/api"
	"github.com/secondbrain/vault-service/internal/cloudstorage"
	"github.com/secondbrain/vault-service/internal/config"
	"github.com/secondbrain/vault-service/internal/embeddings"
	"github.com/secondbrain/vault-service/internal/health"
	"github.com/secondbrain/vault-service/internal/platform/factory"
	"github.com/secondbrain/vault-service/internal/platform/logger"
	"github.com/secondbrain/vault-service/internal/searchindex"
	"github.com/secondbrain/vault-service/internal/services"
	"github.com/secondbrain/vault-service/internal/store"
	"github.com/secondbrain/vault-service/internal/vault"
)

func main() {
	log := logger.New("vault-service")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("db_driver", cfg.DBDriver).
		Str("vector_store", cfg.VectorStore).
		Int("http_port", cfg.HTTPPort).
		Msg("Vault service starting…")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// -------- Storage layer -----------------
	st, err := factory.NewStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Store unavailable")
	}

	idx, err := factory.NewIndex(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Search index unavailable")
	}

	emb, err := factory.NewEmbedder(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Embeddings provider misconfigured")
	}

	gen, err := factory.NewLLM(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Text-generation provider misconfigured")
	}
	if gen != nil {
		log.Info().Str("provider", cfg.LLMProvider).Str("model", cfg.LLMModel).Msg("Text-generation provider ready")
	}

	// -------- Services ----------------------
	blobs := vault.NewBlobStore(cfg.StorageRoot)
	validator := vault.NewArchiveValidator(cfg.MaxVaultSize)
	vaultSvc := services.NewVaultService(st, blobs, validator, idx, emb, log)
	if cfg.BackupDir != "" {
		vaultSvc.WithBackup(cloudstorage.NewLocal(cfg.BackupDir))
	}
	searchSvc := services.NewSearchService(idx, emb, cfg.SearchAlpha, log)

	// -------- Health monitor ----------------
	var checkers []health.HealthChecker
	if p, ok := st.(store.HealthPinger); ok {
		hc := health.NewStoreHealthChecker(p, log, 2*time.Second)
		checkers = append(checkers, hc)
		go hc.Start(ctx, 30*time.Second)
	}
	if idx != nil {
		hc := searchindex.NewSearchIndexHealthChecker(idx, log, 2*time.Second)
		checkers = append(checkers, hc)
		go hc.Start(ctx, 30*time.Second)
	}
	if emb != nil {
		hc := embeddings.NewProviderHealthChecker(emb, log, 2*time.Second)
		checkers = append(checkers, hc)
		go hc.Start(ctx, 30*time.Second)
	}
	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, 10*time.Second)

	// -------- Router & Server ---------------
	storePinger, _ := st.(store.HealthPinger)
	router := api.NewRouter(
		api.NewVaultHandler(vaultSvc, cfg.MaxVaultSize),
		api.NewSearchHandler(searchSvc),
		api.NewHealthHandler(svcHealth.IsHealthy, storePinger),
	)
	server := &http.Server{
		Addr:         cfg.GetHTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	<-ctx.Done()

	log.Info().Msg("Shutting down server…")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}
