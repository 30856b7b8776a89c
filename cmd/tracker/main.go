package main

import (
	"context"
	"encoding/json"
	"net/http"

	"raid-tracker/internal/api"
	"raid-tracker/internal/cache"
	"raid-tracker/internal/config"
	"raid-tracker/internal/constants"
	"raid-tracker/internal/database"
	fxmodules "raid-tracker/internal/fx"
	applog "raid-tracker/internal/logger"
	"raid-tracker/internal/repository"
	"raid-tracker/internal/scheduler"
	"raid-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runTracker),
	).Run()
}

func runTracker(
	lc fx.Lifecycle,
	sched *scheduler.Scheduler,
	updater *service.UpdateOrchestrator,
	client *api.WarLogsClient,
	bosses *repository.RaidBossRepository,
	guilds *repository.GuildRepository,
	redisCache *cache.RedisCache,
	db *mongo.Database,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
		logger = applog.SetLevel(lvl)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     "ok",
			"state":      updater.State(),
			"rate_limit": client.GetRateLimitInfo(),
		})
	})

	srv := &http.Server{
		Addr:    ":8080",
		Handler: mux,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := bosses.EnsureIndexes(ctx); err != nil {
				return err
			}
			if err := guilds.EnsureIndexes(ctx); err != nil {
				return err
			}

			if err := sched.Start(context.Background()); err != nil {
				return err
			}

			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("health endpoint starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("health endpoint failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := sched.Stop(); err != nil {
				logger.Warn().Err(err).Msg("scheduler shutdown failed")
			}
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("health endpoint shutdown failed")
			}
			if err := redisCache.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing redis connection")
			}
			if err := database.Close(shutdownCtx, db); err != nil {
				logger.Error().Err(err).Msg("error closing mongodb connection")
				return err
			}
			logger.Info().Msg("stopped gracefully")
			return nil
		},
	})
}
