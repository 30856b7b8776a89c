package service

import (
	"context"
	"errors"
	"time"

	"raid-tracker/internal/api"
	"raid-tracker/internal/apperrors"
	"raid-tracker/internal/cache"
	"raid-tracker/internal/config"
	"raid-tracker/internal/constants"
	"raid-tracker/internal/domain"

	"github.com/rs/zerolog"
)

// GuildSource is the slice of the game-server client the refresher
// needs.
type GuildSource interface {
	GetGuild(ctx context.Context, guildID int64, realm string) (*api.RawGuild, error)
}

// GuildCatalog lists and prunes stored guild aggregates.
type GuildCatalog interface {
	All(ctx context.Context) ([]domain.GuildAggregate, error)
	Delete(ctx context.Context, name, realm string) error
}

// WatermarkWriter persists the maintenance record outside the update
// transaction. The refresher only ever advances LastGuildsUpdate.
type WatermarkWriter interface {
	Get(ctx context.Context) (*domain.Maintenance, error)
	Put(ctx context.Context, m *domain.Maintenance) error
}

// GuildListEntry is one row of the cached tracked-guild list view.
type GuildListEntry struct {
	Name    string `json:"name"`
	Realm   string `json:"realm"`
	Faction int    `json:"faction"`
}

// GuildRefresher re-validates every tracked guild against the game
// server and removes the ones that no longer exist (disbanded or
// name-changed). Transient lookup failures skip the guild; only a
// definitive not-found deletes.
type GuildRefresher struct {
	cfg         *config.Config
	source      GuildSource
	guilds      GuildCatalog
	maintenance WatermarkWriter
	cache       ViewCache
	updater     *UpdateOrchestrator
	logger      zerolog.Logger
}

func NewGuildRefresher(
	cfg *config.Config,
	source GuildSource,
	guilds GuildCatalog,
	maintenance WatermarkWriter,
	cache ViewCache,
	updater *UpdateOrchestrator,
	logger zerolog.Logger,
) *GuildRefresher {
	return &GuildRefresher{
		cfg:         cfg,
		source:      source,
		guilds:      guilds,
		maintenance: maintenance,
		cache:       cache,
		updater:     updater,
		logger:      logger,
	}
}

// Refresh runs one guild re-validation pass. It shares the updater's
// single-flight guard so a refresh never races an update cycle, and it
// no-ops when the last pass is more recent than the configured
// interval.
func (r *GuildRefresher) Refresh(ctx context.Context) error {
	if !r.updater.running.CompareAndSwap(false, true) {
		return apperrors.ErrAlreadyUpdating
	}
	defer r.updater.running.Store(false)

	wm, err := r.maintenance.Get(ctx)
	if err != nil {
		return err
	}
	if elapsed := time.Since(wm.LastGuildsUpdate); elapsed < r.cfg.GuildRefreshInterval {
		r.logger.Debug().Dur("elapsed", elapsed).Msg("guild refresh not due yet")
		return nil
	}

	guilds, err := r.guilds.All(ctx)
	if err != nil {
		return err
	}

	var removed, kept, failed int
	survivors := make([]GuildListEntry, 0, len(guilds))
	for i := range guilds {
		g := &guilds[i]
		_, err := r.source.GetGuild(ctx, g.GuildID, g.Realm)
		switch {
		case err == nil:
			survivors = append(survivors, GuildListEntry{Name: g.Name, Realm: g.Realm, Faction: int(g.Faction)})
			kept++
		case errors.Is(err, apperrors.ErrNotFound):
			if err := r.guilds.Delete(ctx, g.Name, g.Realm); err != nil {
				r.logger.Error().Err(err).Str("guild", g.Name).Str("realm", g.Realm).Msg("failed to remove vanished guild")
				survivors = append(survivors, GuildListEntry{Name: g.Name, Realm: g.Realm, Faction: int(g.Faction)})
				failed++
				continue
			}
			r.logger.Info().Str("guild", g.Name).Str("realm", g.Realm).Msg("removed vanished guild")
			removed++
		default:
			// Transient source failure: keep the guild, try again next
			// pass.
			r.logger.Warn().Err(err).Str("guild", g.Name).Str("realm", g.Realm).Msg("guild lookup failed, keeping")
			survivors = append(survivors, GuildListEntry{Name: g.Name, Realm: g.Realm, Faction: int(g.Faction)})
			failed++
		}
	}

	if err := r.cache.Set(ctx, cache.KeyGuildList, survivors, constants.GuildListCacheTTL); err != nil {
		r.logger.Warn().Err(err).Msg("failed to refresh guild list view")
	}

	wm.LastGuildsUpdate = time.Now()
	if err := r.maintenance.Put(ctx, wm); err != nil {
		return err
	}

	r.logger.Info().
		Int("kept", kept).
		Int("removed", removed).
		Int("failed", failed).
		Msg("guild refresh complete")
	return nil
}
