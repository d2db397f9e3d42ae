package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"songdrop/internal/adapter/repo"
	"songdrop/internal/domain"
	"songdrop/internal/infra"
	"songdrop/internal/ledger"
	"songdrop/internal/providers/audio"
	"songdrop/internal/providers/video"
	"songdrop/internal/queue"
	"songdrop/internal/storage"
	"songdrop/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	media, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: storage init failed")
	}

	store := repo.NewStore(infra.NewSQLRunner(pool, logger))
	w := worker.New(worker.Deps{
		Store:     store,
		Queue:     queue.New(store.Jobs(), logger, queue.WithLease(cfg.JobLease)),
		Ledger:    ledger.New(store.Credits(), logger),
		Generator: audio.NewSynthetic(),
		Renderer:  video.NewSynthetic(),
		Media:     media,
		Logger:    logger,
	}, worker.Options{
		PollInterval:    cfg.WorkerPollInterval,
		ReclaimInterval: cfg.WorkerReclaimEvery,
		MaxAttempts:     cfg.JobMaxAttempts,
		Capabilities: worker.Capabilities{Disabled: map[domain.JobType]bool{
			domain.JobTypeGenerate: cfg.GenerationDisabled,
			domain.JobTypeRender:   cfg.RenderDisabled,
		}},
	})

	logger.Info().Str("storage", media.BasePath()).Msg("worker: storage ready")
	if err := w.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
