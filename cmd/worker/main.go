package main

import (
	"os"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/adityahegde/counselflow/internal/bootstrap"
	"github.com/adityahegde/counselflow/internal/jobs"
	"github.com/adityahegde/counselflow/internal/pkg/logger"
)

// The worker process runs engine passes and deadline expiry sweeps off the
// request path. It shares configuration and wiring with the API process.
func main() {
	_ = godotenv.Load()

	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}

	dbPool, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to setup database")
		os.Exit(1)
	}
	defer dbPool.Close()

	deps, err := bootstrap.BuildDependencies(cfg, dbPool, lgr)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build dependencies")
		os.Exit(1)
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			// Round execution is single-flight per round via the redis lock;
			// low concurrency keeps seat updates uncontended.
			Concurrency: 2,
			Queues: map[string]int{
				jobs.QueueCritical: 6,
				jobs.QueueDefault:  3,
			},
		},
	)

	handlers := jobs.NewHandlers(deps.RoundService, deps.AllotmentService)

	lgr.Info().Msg("Worker starting")
	if err := srv.Run(handlers.NewMux()); err != nil {
		logger.Error().Err(err).Msg("Worker execution failed")
		os.Exit(1)
	}
}
