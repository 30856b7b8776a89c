// Package service drives the update cycles: fetching new kill logs,
// merging them into the stored aggregates, and refreshing the cached
// views.
package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"raid-tracker/internal/api"
	"raid-tracker/internal/apperrors"
	"raid-tracker/internal/cache"
	"raid-tracker/internal/config"
	"raid-tracker/internal/constants"
	"raid-tracker/internal/domain"
	"raid-tracker/internal/gamedata"
	"raid-tracker/internal/merge"
	"raid-tracker/internal/normalizer"
	"raid-tracker/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

// LogSource is the slice of the game-server client the updater needs.
type LogSource interface {
	FetchNewLogs(ctx context.Context, realm, lastLogID string) ([]api.RawKillLog, string, error)
}

// BossStore reads stored boss aggregates.
type BossStore interface {
	Get(ctx context.Context, encounterID, difficulty int) (*domain.RaidBossAggregate, error)
	GetAllForRaid(ctx context.Context, encounterIDs []int, difficulty int) ([]domain.RaidBossAggregate, error)
}

// GuildStore reads stored guild aggregates.
type GuildStore interface {
	Get(ctx context.Context, name, realm string) (*domain.GuildAggregate, error)
}

// WatermarkStore reads the maintenance watermark. Writes go through the
// commit transaction, never through this interface.
type WatermarkStore interface {
	Get(ctx context.Context) (*domain.Maintenance, error)
}

// BatchCommitter applies one cycle's writes atomically.
type BatchCommitter interface {
	Commit(ctx context.Context, batch *repository.CommitBatch) error
}

// Ranker recomputes stored ranks for one per-boss collection and reads
// back tier leaderboards for the cached scored views.
type Ranker interface {
	RecomputeRanks(ctx context.Context, key repository.BossCollectionKey) error
	GetLeaderboard(ctx context.Context, raid string, difficulty int, metric domain.Metric) ([]domain.LeaderboardCharacter, error)
}

// ViewCache is the cache surface the post-commit refresh needs.
type ViewCache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
	RebuildSummary(ctx context.Context, build func(context.Context) (interface{}, error)) error
}

// UpdateOrchestrator runs the fetch → normalize → merge → commit →
// rank → cache-refresh cycle. At most one cycle runs at a time; a
// second caller gets ErrAlreadyUpdating immediately instead of queuing.
type UpdateOrchestrator struct {
	cfg         *config.Config
	source      LogSource
	normalizer  *normalizer.Normalizer
	bosses      BossStore
	guilds      GuildStore
	maintenance WatermarkStore
	committer   BatchCommitter
	ranker      Ranker
	cache       ViewCache
	logger      zerolog.Logger

	running atomic.Bool

	stateMu sync.RWMutex
	state   apperrors.CycleState
}

func NewUpdateOrchestrator(
	cfg *config.Config,
	source LogSource,
	norm *normalizer.Normalizer,
	bosses BossStore,
	guilds GuildStore,
	maintenance WatermarkStore,
	committer BatchCommitter,
	ranker Ranker,
	viewCache ViewCache,
	logger zerolog.Logger,
) *UpdateOrchestrator {
	return &UpdateOrchestrator{
		cfg:         cfg,
		source:      source,
		normalizer:  norm,
		bosses:      bosses,
		guilds:      guilds,
		maintenance: maintenance,
		committer:   committer,
		ranker:      ranker,
		cache:       viewCache,
		logger:      logger,
		state:       apperrors.StateIdle,
	}
}

// State reports the step the current cycle is in, or idle.
func (o *UpdateOrchestrator) State() apperrors.CycleState {
	o.stateMu.RLock()
	defer o.stateMu.RUnlock()
	return o.state
}

func (o *UpdateOrchestrator) setState(s apperrors.CycleState) {
	o.stateMu.Lock()
	o.state = s
	o.stateMu.Unlock()
}

// RunUpdate executes one full update cycle. A cycle already in flight
// makes it return ErrAlreadyUpdating without doing any work.
func (o *UpdateOrchestrator) RunUpdate(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return apperrors.ErrAlreadyUpdating
	}
	defer func() {
		o.setState(apperrors.StateIdle)
		o.running.Store(false)
	}()

	started := time.Now()
	// Per-cycle correlation id for the log stream.
	logger := o.logger.With().Str("cycle_id", uuid.NewString()).Logger()

	o.setState(apperrors.StateFetching)
	wm, err := o.maintenance.Get(ctx)
	if err != nil {
		return o.fail(logger, apperrors.StateFetching, err)
	}
	raw, watermarks, err := o.fetchAllRealms(ctx, wm)
	if err != nil {
		return o.fail(logger, apperrors.StateFetching, err)
	}
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].KilledAt.Before(raw[j].KilledAt) })

	o.setState(apperrors.StateNormalizing)
	records := o.normalizer.NormalizeBatch(raw)

	o.setState(apperrors.StateMerging)
	batch, err := o.mergeAll(ctx, records)
	if err != nil {
		return o.fail(logger, apperrors.StateMerging, err)
	}
	batch.Watermark = advanceWatermark(wm, watermarks, started)

	o.setState(apperrors.StateCommitting)
	if err := o.committer.Commit(ctx, batch); err != nil {
		return o.fail(logger, apperrors.StateCommitting, err)
	}

	o.setState(apperrors.StateRankRecompute)
	for _, key := range batch.TouchedCollections() {
		if err := o.ranker.RecomputeRanks(ctx, key); err != nil {
			return o.fail(logger, apperrors.StateRankRecompute, err)
		}
	}

	o.setState(apperrors.StateCacheRefresh)
	if err := o.refreshViews(ctx, batch); err != nil {
		return o.fail(logger, apperrors.StateCacheRefresh, err)
	}

	logger.Info().
		Int("raw_logs", len(raw)).
		Int("records", len(records)).
		Int("bosses", len(batch.Bosses)).
		Int("guilds", len(batch.Guilds)).
		Dur("took", time.Since(started)).
		Msg("update cycle complete")
	return nil
}

func (o *UpdateOrchestrator) fail(logger zerolog.Logger, state apperrors.CycleState, err error) error {
	logger.Error().Err(err).Str("state", string(state)).Msg("update cycle failed")
	return apperrors.NewCycleError(state, err)
}

// fetchAllRealms fetches every configured realm concurrently with
// exponential backoff on source errors, and returns the per-realm
// watermarks that will advance only if the cycle commits.
func (o *UpdateOrchestrator) fetchAllRealms(ctx context.Context, wm *domain.Maintenance) ([]api.RawKillLog, map[string]string, error) {
	var mu sync.Mutex
	all := make([]api.RawKillLog, 0)
	watermarks := make(map[string]string, len(o.cfg.Realms))

	g, gctx := errgroup.WithContext(ctx)
	for _, realm := range o.cfg.Realms {
		realm := realm
		g.Go(func() error {
			lastID := wm.LastLogIDPerRealm[realm]
			var logs []api.RawKillLog
			var newLast string

			backoff := retry.WithMaxRetries(constants.FetchMaxAttempts-1, retry.NewExponential(constants.FetchInitialDelay))
			err := retry.Do(gctx, backoff, func(ctx context.Context) error {
				reqCtx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
				defer cancel()

				var err error
				logs, newLast, err = o.source.FetchNewLogs(reqCtx, realm, lastID)
				if errors.Is(err, apperrors.ErrSourceTimeout) || errors.Is(err, apperrors.ErrSourceUnavailable) {
					return retry.RetryableError(err)
				}
				return err
			})
			if err != nil {
				return err
			}

			mu.Lock()
			all = append(all, logs...)
			watermarks[realm] = newLast
			mu.Unlock()

			o.logger.Debug().Str("realm", realm).Int("logs", len(logs)).Msg("fetched realm")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return all, watermarks, nil
}

type bossGroup struct {
	encounterID int
	difficulty  int
}

type guildGroup struct {
	id    int64
	name  string
	realm string
}

// mergeAll reads the stored priors and merges the batch into fresh
// copies, in memory. Independent bosses and guilds merge concurrently;
// nothing is written here.
func (o *UpdateOrchestrator) mergeAll(ctx context.Context, records []domain.NormalizedKillRecord) (*repository.CommitBatch, error) {
	bossBatches := make(map[bossGroup][]domain.NormalizedKillRecord)
	guildBatches := make(map[guildGroup][]domain.NormalizedKillRecord)
	for _, rec := range records {
		bk := bossGroup{rec.EncounterID, rec.Difficulty}
		bossBatches[bk] = append(bossBatches[bk], rec)
		if rec.IsGuildKill() {
			gk := guildGroup{rec.GuildID, rec.GuildName, rec.Realm}
			guildBatches[gk] = append(guildBatches[gk], rec)
		}
	}

	batch := &repository.CommitBatch{
		CharacterRows: make(map[repository.BossCollectionKey][]domain.CharacterPerformanceRecord),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for key, recs := range bossBatches {
		key, recs := key, recs
		g.Go(func() error {
			prior, err := o.bosses.Get(gctx, key.encounterID, key.difficulty)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			merged := merge.MergeBoss(prior, key.encounterID, key.difficulty, recs)

			mu.Lock()
			batch.Bosses = append(batch.Bosses, merged)
			mu.Unlock()
			return nil
		})
	}

	for key, recs := range guildBatches {
		key, recs := key, recs
		g.Go(func() error {
			prior, err := o.guilds.Get(gctx, key.name, key.realm)
			if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
				return err
			}
			merged := merge.MergeGuild(prior, key.id, key.name, key.realm, recs)

			mu.Lock()
			batch.Guilds = append(batch.Guilds, merged)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.collectCharacterRows(batch, records)
	return batch, nil
}

// collectCharacterRows expands the batch into per-boss character rows
// and leaderboard upserts, grouped by target collection.
func (o *UpdateOrchestrator) collectCharacterRows(batch *repository.CommitBatch, records []domain.NormalizedKillRecord) {
	perBoss := make(map[repository.BossCollectionKey][]domain.CharacterPerformanceRecord)
	for i := range records {
		for _, perf := range normalizer.PerformanceRecords(&records[i]) {
			key := repository.BossCollectionKey{
				EncounterID: records[i].EncounterID,
				Difficulty:  records[i].Difficulty,
				Metric:      perf.Metric,
			}
			perBoss[key] = append(perBoss[key], perf)
		}
	}
	batch.CharacterRows = perBoss

	for key, rows := range perBoss {
		raid, enc, ok := gamedata.RaidForEncounter(key.EncounterID)
		if !ok {
			continue
		}
		upserts := merge.MergeLeaderboard(rows, raid.Name, key.Difficulty, enc.Name, key.Metric)
		batch.Leaderboards = append(batch.Leaderboards, upserts...)
	}
}

func advanceWatermark(wm *domain.Maintenance, realmWatermarks map[string]string, now time.Time) *domain.Maintenance {
	next := &domain.Maintenance{
		ID:                domain.MaintenanceID,
		LastUpdated:       now,
		LastGuildsUpdate:  wm.LastGuildsUpdate,
		LastLogIDPerRealm: make(map[string]string, len(wm.LastLogIDPerRealm)),
		IsInitialized:     true,
	}
	for realm, id := range wm.LastLogIDPerRealm {
		next.LastLogIDPerRealm[realm] = id
	}
	for realm, id := range realmWatermarks {
		if id != "" {
			next.LastLogIDPerRealm[realm] = id
		}
	}
	return next
}

type leaderboardCoord struct {
	Raid       string
	Difficulty int
	Metric     domain.Metric
}

// refreshViews invalidates exactly the views the cycle touched, rebuilds
// the touched scored leaderboards and then the raid summary.
func (o *UpdateOrchestrator) refreshViews(ctx context.Context, batch *repository.CommitBatch) error {
	keys := make([]string, 0, len(batch.Bosses)+len(batch.Leaderboards)+1)
	for _, b := range batch.Bosses {
		keys = append(keys, cache.BossKey(b.EncounterID, b.Difficulty))
	}
	if len(batch.Guilds) > 0 {
		keys = append(keys, cache.KeyGuildList)
	}
	touched := make(map[leaderboardCoord]struct{})
	for _, up := range batch.Leaderboards {
		coord := leaderboardCoord{up.Raid, up.Difficulty, up.Metric}
		if _, ok := touched[coord]; ok {
			continue
		}
		touched[coord] = struct{}{}
		keys = append(keys, cache.LeaderboardKey(coord.Raid, coord.Difficulty, string(coord.Metric)))
	}

	if err := o.cache.Invalidate(ctx, keys...); err != nil {
		return err
	}
	for _, b := range batch.Bosses {
		key := cache.BossKey(b.EncounterID, b.Difficulty)
		if err := o.cache.Set(ctx, key, b, constants.BossDocCacheTTL); err != nil {
			return err
		}
	}
	for coord := range touched {
		if err := o.rebuildLeaderboard(ctx, coord); err != nil {
			return err
		}
	}
	return o.cache.RebuildSummary(ctx, o.buildSummary)
}

// LeaderboardEntry is one row of the cached scored leaderboard view.
type LeaderboardEntry struct {
	domain.LeaderboardCharacter

	ClassName string  `json:"class_name"`
	Score     float64 `json:"score"`
}

// rebuildLeaderboard recomputes one tier leaderboard's derived scores
// against the freshly committed per-boss bests and caches the sorted
// view.
func (o *UpdateOrchestrator) rebuildLeaderboard(ctx context.Context, coord leaderboardCoord) error {
	raid, ok := gamedata.RaidByName(coord.Raid)
	if !ok {
		return nil
	}

	ids := make([]int, 0, len(raid.Encounters))
	for _, enc := range raid.Encounters {
		ids = append(ids, enc.ID)
	}
	aggs, err := o.bosses.GetAllForRaid(ctx, ids, coord.Difficulty)
	if err != nil {
		return err
	}
	raidBest := make(map[string]float64, len(aggs))
	for i := range aggs {
		raidBest[gamedata.EncounterName(aggs[i].EncounterID)] = aggs[i].BestFor(coord.Metric)
	}

	rows, err := o.ranker.GetLeaderboard(ctx, coord.Raid, coord.Difficulty, coord.Metric)
	if err != nil {
		return err
	}

	bossNames := raid.BossNames()
	entries := make([]LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, LeaderboardEntry{
			LeaderboardCharacter: row,
			ClassName:            gamedata.ClassName(row.Class),
			Score:                row.Score(bossNames, raidBest, constants.LeaderboardMaxScore),
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Score > entries[j].Score })

	key := cache.LeaderboardKey(coord.Raid, coord.Difficulty, string(coord.Metric))
	return o.cache.Set(ctx, key, entries, constants.LeaderboardCacheTTL)
}

// RaidSummary is the cached overview of every tracked raid.
type RaidSummary struct {
	Raids     []RaidOverview `json:"raids"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type RaidOverview struct {
	Name         string           `json:"name"`
	Difficulties []DifficultyView `json:"difficulties"`
}

type DifficultyView struct {
	Difficulty int        `json:"difficulty"`
	Name       string     `json:"name"`
	Bosses     []BossView `json:"bosses"`
}

type BossView struct {
	EncounterID int                `json:"encounter_id"`
	Name        string             `json:"name"`
	KillCount   int64              `json:"kill_count"`
	BestValues  map[string]float64 `json:"best_values,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

func (o *UpdateOrchestrator) buildSummary(ctx context.Context) (interface{}, error) {
	summary := RaidSummary{UpdatedAt: time.Now()}
	for _, raid := range gamedata.Raids() {
		ids := make([]int, 0, len(raid.Encounters))
		for _, enc := range raid.Encounters {
			ids = append(ids, enc.ID)
		}

		overview := RaidOverview{Name: raid.Name}
		for _, diff := range raid.Difficulties {
			aggs, err := o.bosses.GetAllForRaid(ctx, ids, diff)
			if err != nil {
				return nil, err
			}
			byEncounter := make(map[int]*domain.RaidBossAggregate, len(aggs))
			for i := range aggs {
				byEncounter[aggs[i].EncounterID] = &aggs[i]
			}

			view := DifficultyView{Difficulty: diff, Name: gamedata.DifficultyName(diff)}
			for _, enc := range raid.Encounters {
				bv := BossView{EncounterID: enc.ID, Name: enc.Name}
				if agg, ok := byEncounter[enc.ID]; ok {
					bv.KillCount = agg.KillCount
					bv.UpdatedAt = agg.UpdatedAt
					for _, metric := range domain.Metrics {
						if best := agg.BestFor(metric); best > 0 {
							if bv.BestValues == nil {
								bv.BestValues = make(map[string]float64, len(domain.Metrics))
							}
							bv.BestValues[string(metric)] = best
						}
					}
				}
				view.Bosses = append(view.Bosses, bv)
			}
			overview.Difficulties = append(overview.Difficulties, view)
		}
		summary.Raids = append(summary.Raids, overview)
	}
	return summary, nil
}
