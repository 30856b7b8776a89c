package repository

import (
	"context"
	"fmt"

	"raid-tracker/internal/apperrors"
	"raid-tracker/internal/constants"
	"raid-tracker/internal/domain"
	"raid-tracker/internal/merge"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
)

// CommitBatch is everything one update cycle writes: merged aggregates,
// leaderboard rows and the advanced watermark. It is applied inside a
// single multi-document transaction; any failed write aborts the whole
// batch and leaves the watermark untouched.
type CommitBatch struct {
	Bosses        []*domain.RaidBossAggregate
	Guilds        []*domain.GuildAggregate
	CharacterRows map[BossCollectionKey][]domain.CharacterPerformanceRecord
	Leaderboards  []merge.LeaderboardUpsert
	Watermark     *domain.Maintenance
}

// TouchedCollections lists the per-boss collections this batch wrote,
// for the rank-recompute pass.
func (b *CommitBatch) TouchedCollections() []BossCollectionKey {
	keys := make([]BossCollectionKey, 0, len(b.CharacterRows))
	for k := range b.CharacterRows {
		keys = append(keys, k)
	}
	return keys
}

// Committer applies a CommitBatch transactionally.
type Committer struct {
	db          *mongo.Database
	bosses      *RaidBossRepository
	guilds      *GuildRepository
	leaderboard *LeaderboardRepository
	maintenance *MaintenanceRepository
	logger      zerolog.Logger
}

func NewCommitter(
	db *mongo.Database,
	bosses *RaidBossRepository,
	guilds *GuildRepository,
	leaderboard *LeaderboardRepository,
	maintenance *MaintenanceRepository,
	logger zerolog.Logger,
) *Committer {
	return &Committer{
		db:          db,
		bosses:      bosses,
		guilds:      guilds,
		leaderboard: leaderboard,
		maintenance: maintenance,
		logger:      logger,
	}
}

// Commit runs every write of the batch in one transaction with the
// client's majority read/write concern.
func (c *Committer) Commit(ctx context.Context, batch *CommitBatch) error {
	ctx, cancel := context.WithTimeout(ctx, constants.CommitTimeout)
	defer cancel()

	session, err := c.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		for _, boss := range batch.Bosses {
			if err := c.bosses.Upsert(sessCtx, boss); err != nil {
				return nil, err
			}
		}
		for _, guild := range batch.Guilds {
			if err := c.guilds.Upsert(sessCtx, guild); err != nil {
				return nil, err
			}
		}
		for key, rows := range batch.CharacterRows {
			if err := c.leaderboard.UpsertCharacterRows(sessCtx, key, rows); err != nil {
				return nil, err
			}
		}
		if err := c.leaderboard.UpsertLeaderboard(sessCtx, batch.Leaderboards); err != nil {
			return nil, err
		}
		if err := c.maintenance.Put(sessCtx, batch.Watermark); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("commit transaction aborted")
		return fmt.Errorf("%w: %v", apperrors.ErrTransactionAborted, err)
	}

	c.logger.Info().
		Int("bosses", len(batch.Bosses)).
		Int("guilds", len(batch.Guilds)).
		Int("boss_collections", len(batch.CharacterRows)).
		Int("leaderboard_upserts", len(batch.Leaderboards)).
		Msg("commit transaction applied")
	return nil
}
