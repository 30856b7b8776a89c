// Package merge holds the pure fold algorithms that turn normalized kill
// batches into aggregate documents. Merges never touch storage; the
// orchestrator reads priors, calls in here, and commits the results.
package merge

import (
	"time"

	"raid-tracker/internal/constants"
	"raid-tracker/internal/domain"
	"raid-tracker/internal/normalizer"
)

func killFaster(a, b domain.TrimmedKill) bool {
	if a.DurationMs != b.DurationMs {
		return a.DurationMs < b.DurationMs
	}
	return a.KilledAt.Before(b.KilledAt)
}

func killEarlier(a, b domain.TrimmedKill) bool {
	return a.KilledAt.Before(b.KilledAt)
}

func killNewer(a, b domain.TrimmedKill) bool {
	return a.KilledAt.After(b.KilledAt)
}

func performerBetter(a, b domain.CharacterPerformanceRecord) bool {
	if a.Value != b.Value {
		return a.Value > b.Value
	}
	return a.KilledAt.Before(b.KilledAt)
}

func performerKey(r domain.CharacterPerformanceRecord) string {
	return r.Key.String()
}

// MergeBoss folds a batch of normalized kill records for one boss into
// the existing aggregate. existing may be nil for a first-seen boss; the
// input is never mutated. Merge cost is bounded by the batch size: each
// record is inserted entry-by-entry, nothing is re-derived from history.
func MergeBoss(existing *domain.RaidBossAggregate, encounterID, difficulty int, batch []domain.NormalizedKillRecord) *domain.RaidBossAggregate {
	agg := existing.Clone()
	if agg == nil {
		agg = domain.NewRaidBossAggregate(encounterID, difficulty)
	}

	for i := range batch {
		rec := &batch[i]
		if rec.EncounterID != encounterID || rec.Difficulty != difficulty {
			continue
		}
		applyKill(agg, rec)
	}
	agg.UpdatedAt = time.Now().UTC()
	return agg
}

func applyKill(agg *domain.RaidBossAggregate, rec *domain.NormalizedKillRecord) {
	agg.KillCount++

	kill := normalizer.TrimKill(rec)

	recent := domain.Restore(agg.RecentKills, constants.RecentKillsCap, killNewer, nil)
	recent.Insert(kill)
	agg.RecentKills = recent.Items

	fastest := agg.FastestFor(rec.Realm, rec.Faction)
	list := domain.Restore(fastest.Kills, constants.FastestKillsCap, killFaster, nil)
	list.Insert(kill)
	fastest.Kills = list.Items

	first := agg.FirstKillsFor(rec.Realm, rec.Faction)
	list = domain.Restore(first.Kills, constants.FirstKillsCap, killEarlier, nil)
	list.Insert(kill)
	first.Kills = list.Items

	for _, perf := range normalizer.PerformanceRecords(rec) {
		insertPerformer(agg, rec.Realm, perf)
	}
}

func insertPerformer(agg *domain.RaidBossAggregate, realm string, perf domain.CharacterPerformanceRecord) {
	cat := agg.PerformersFor(realm, perf.Faction, perf.Class, perf.Key.Spec, perf.Metric)
	list := domain.Restore(cat.Entries, constants.BestPerformersCap, performerBetter, performerKey)
	list.Insert(perf)
	cat.Entries = list.Items

	best, ok := agg.OverallBest[string(perf.Metric)]
	if !ok || best == nil || perf.Value > best.Value {
		cp := perf
		agg.OverallBest[string(perf.Metric)] = &cp
	}
}

// MergeBossAggregates folds a computed delta into a persisted prior by
// replaying the delta's entries under the same insert rules. Cost is the
// size of the delta, not of the full history.
func MergeBossAggregates(prior, delta *domain.RaidBossAggregate) *domain.RaidBossAggregate {
	if prior == nil {
		return delta.Clone()
	}
	agg := prior.Clone()
	agg.KillCount += delta.KillCount

	recent := domain.Restore(agg.RecentKills, constants.RecentKillsCap, killNewer, nil)
	for _, k := range delta.RecentKills {
		recent.Insert(k)
	}
	agg.RecentKills = recent.Items

	for _, cat := range delta.FastestKills {
		dst := agg.FastestFor(cat.Realm, cat.Faction)
		list := domain.Restore(dst.Kills, constants.FastestKillsCap, killFaster, nil)
		for _, k := range cat.Kills {
			list.Insert(k)
		}
		dst.Kills = list.Items
	}

	for _, cat := range delta.FirstKills {
		dst := agg.FirstKillsFor(cat.Realm, cat.Faction)
		list := domain.Restore(dst.Kills, constants.FirstKillsCap, killEarlier, nil)
		for _, k := range cat.Kills {
			list.Insert(k)
		}
		dst.Kills = list.Items
	}

	for _, cat := range delta.Performers {
		dst := agg.PerformersFor(cat.Realm, cat.Faction, cat.Class, cat.Spec, cat.Metric)
		list := domain.Restore(dst.Entries, constants.BestPerformersCap, performerBetter, performerKey)
		for _, e := range cat.Entries {
			list.Insert(e)
		}
		dst.Entries = list.Items
	}

	for metric, cand := range delta.OverallBest {
		if cand == nil {
			continue
		}
		best, ok := agg.OverallBest[metric]
		if !ok || best == nil || cand.Value > best.Value {
			cp := *cand
			agg.OverallBest[metric] = &cp
		}
	}

	agg.UpdatedAt = time.Now().UTC()
	return agg
}
