package fx

import (
	"raid-tracker/internal/api"
	"raid-tracker/internal/cache"
	"raid-tracker/internal/config"
	"raid-tracker/internal/database"
	"raid-tracker/internal/logger"
	"raid-tracker/internal/normalizer"
	"raid-tracker/internal/repository"
	"raid-tracker/internal/scheduler"
	"raid-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func ProvideNormalizer(log zerolog.Logger) *normalizer.Normalizer {
	return normalizer.New(normalizer.DefaultRules, log)
}

func ProvideCache(redis *cache.RedisCache) (*cache.SummaryTier, error) {
	return cache.NewSummaryTier(redis)
}

func ProvideUpdater(
	cfg *config.Config,
	client *api.WarLogsClient,
	norm *normalizer.Normalizer,
	bosses *repository.RaidBossRepository,
	guilds *repository.GuildRepository,
	maintenance *repository.MaintenanceRepository,
	committer *repository.Committer,
	leaderboard *repository.LeaderboardRepository,
	tier *cache.SummaryTier,
	log zerolog.Logger,
) *service.UpdateOrchestrator {
	return service.NewUpdateOrchestrator(cfg, client, norm, bosses, guilds, maintenance, committer, leaderboard, tier, log)
}

func ProvideGuildRefresher(
	cfg *config.Config,
	client *api.WarLogsClient,
	guilds *repository.GuildRepository,
	maintenance *repository.MaintenanceRepository,
	tier *cache.SummaryTier,
	updater *service.UpdateOrchestrator,
	log zerolog.Logger,
) *service.GuildRefresher {
	return service.NewGuildRefresher(cfg, client, guilds, maintenance, tier, updater, log)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewRaidBossRepository),
	fx.Provide(repository.NewGuildRepository),
	fx.Provide(repository.NewLeaderboardRepository),
	fx.Provide(repository.NewMaintenanceRepository),
	fx.Provide(repository.NewCommitter),
	// cache
	fx.Provide(cache.NewRedisCache),
	fx.Provide(ProvideCache),
	// api client
	fx.Provide(api.NewWarLogsClient),
	// svc
	fx.Provide(ProvideNormalizer),
	fx.Provide(ProvideUpdater),
	fx.Provide(ProvideGuildRefresher),
	// scheduler
	fx.Provide(scheduler.New),
)
