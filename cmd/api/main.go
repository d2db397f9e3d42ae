package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"songdrop/internal/adapter/repo"
	"songdrop/internal/catalog"
	"songdrop/internal/fulfillment"
	"songdrop/internal/generation"
	"songdrop/internal/http/handlers"
	"songdrop/internal/http/httpapi"
	"songdrop/internal/infra"
	"songdrop/internal/ledger"
	"songdrop/internal/queue"
	"songdrop/internal/storage"
	"songdrop/internal/webhook"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	if err := cfg.RequireAPISecrets(); err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := infra.Migrate(ctx, cfg.DatabaseURL, logger); err != nil {
		logger.Fatal().Err(err).Msg("api: migrations failed")
	}

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: db connection failed")
	}
	defer dbpool.Close()

	store := repo.NewStore(infra.NewSQLRunner(dbpool, logger))
	credits := ledger.New(store.Credits(), logger)
	jobs := queue.New(store.Jobs(), logger, queue.WithLease(cfg.JobLease))
	source := catalog.NewFileSource(cfg.CatalogPath)

	media, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: storage init failed")
	}

	verifier, err := webhook.NewVerifier(cfg.WebhookSecret, cfg.WebhookTolerance)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: invalid webhook secret")
	}

	app := &handlers.App{
		Webhooks:     webhook.NewProcessor(store, verifier, fulfillment.NewHandler(source, credits, logger), logger),
		Transactions: fulfillment.NewVerifier(store),
		Previews:     fulfillment.NewPreviewer(source),
		Songs:        generation.NewService(store, jobs, credits, logger),
		Ledger:       credits,
		Media:        media,
		Logger:       logger,
		Ping:         dbpool.Ping,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:       cfg.JWTSecret,
		RateLimitPerMin: cfg.RateLimitPerMin,
		CORSOrigins:     cfg.CORSOrigins,
		StaticDir:       media.BasePath(),
	})

	server := infra.NewHTTPServer(cfg, router)
	logger.Info().Str("addr", server.Addr()).Str("catalog", source.Path()).Msg("api: listening")
	if err := server.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("api: http server failed")
	}
	logger.Info().Msg("api: stopped")
}
