package merge

import (
	"sort"
	"time"

	"raid-tracker/internal/constants"
	"raid-tracker/internal/domain"
	"raid-tracker/internal/gamedata"
	"raid-tracker/internal/normalizer"
)

// MergeGuild folds a guild's batch of normalized kill records into the
// existing aggregate and recomputes the derived completion and ranking
// tables. existing may be nil for a first-seen guild. Only
// guild-attributed records belonging to this guild are applied.
func MergeGuild(existing *domain.GuildAggregate, guildID int64, name, realm string, batch []domain.NormalizedKillRecord) *domain.GuildAggregate {
	agg := existing.Clone()

	for i := range batch {
		rec := &batch[i]
		if !rec.IsGuildKill() || rec.GuildName != name || rec.Realm != realm {
			continue
		}
		if agg == nil {
			agg = domain.NewGuildAggregate(guildID, name, realm, rec.Faction)
		}
		applyGuildKill(agg, rec)
	}
	if agg == nil {
		return nil
	}

	recomputeCompletion(agg)
	recomputeRanking(agg)
	agg.UpdatedAt = time.Now().UTC()
	return agg
}

func applyGuildKill(agg *domain.GuildAggregate, rec *domain.NormalizedKillRecord) {
	agg.TouchActivity(rec.Difficulty, rec.KilledAt)

	day := mondayIndexedWeekday(rec.KilledAt.UTC())
	agg.RaidDays[day][rec.KilledAt.UTC().Hour()]++

	kill := normalizer.TrimKill(rec)
	insertGuildRecentKill(agg, kill)

	for _, p := range rec.Participants {
		if !contains(agg.Roster, p.Name) {
			agg.Roster = append(agg.Roster, p.Name)
		}
	}

	raid, encounter, ok := gamedata.RaidForEncounter(rec.EncounterID)
	if !ok {
		return
	}
	cell := agg.ProgressFor(raid.Name, rec.Difficulty, rec.EncounterID, encounter.Name)
	cell.KillCount++
	if cell.FirstKill.IsZero() || rec.KilledAt.Before(cell.FirstKill) {
		cell.FirstKill = rec.KilledAt
	}

	fastest := domain.Restore(cell.FastestKills, constants.GuildFastestKillCap, killFaster, nil)
	fastest.Insert(kill)
	cell.FastestKills = fastest.Items

	for _, perf := range normalizer.PerformanceRecords(rec) {
		switch perf.Metric {
		case domain.MetricDPS:
			cell.BestDPS = upsertGuildPerformer(cell.BestDPS, perf)
		case domain.MetricHPS:
			cell.BestHPS = upsertGuildPerformer(cell.BestHPS, perf)
		}
	}
}

// insertGuildRecentKill keeps the recent-kill list sorted newest first,
// trimming entries that are both beyond the list floor and older than
// the two-week window.
func insertGuildRecentKill(agg *domain.GuildAggregate, kill domain.TrimmedKill) {
	pos := sort.Search(len(agg.RecentKills), func(i int) bool {
		return kill.KilledAt.After(agg.RecentKills[i].KilledAt)
	})
	agg.RecentKills = append(agg.RecentKills, domain.TrimmedKill{})
	copy(agg.RecentKills[pos+1:], agg.RecentKills[pos:])
	agg.RecentKills[pos] = kill

	cutoff := time.Now().UTC().Add(-constants.GuildRecentKillsAge)
	for len(agg.RecentKills) > constants.GuildRecentKillsCap {
		last := agg.RecentKills[len(agg.RecentKills)-1]
		if !last.KilledAt.Before(cutoff) {
			break
		}
		agg.RecentKills = agg.RecentKills[:len(agg.RecentKills)-1]
	}
}

// upsertGuildPerformer is the uncapped keyed keep-best discipline: one
// entry per character who has ever killed this boss for the guild.
func upsertGuildPerformer(list []domain.GuildPerformer, perf domain.CharacterPerformanceRecord) []domain.GuildPerformer {
	for i := range list {
		if list[i].Key == perf.Key {
			if perf.Value > list[i].Value {
				list[i] = guildPerformer(perf)
			}
			return list
		}
	}
	return append(list, guildPerformer(perf))
}

func guildPerformer(perf domain.CharacterPerformanceRecord) domain.GuildPerformer {
	return domain.GuildPerformer{
		Key:       perf.Key,
		Class:     perf.Class,
		Value:     perf.Value,
		ItemLevel: perf.ItemLevel,
		KilledAt:  perf.KilledAt,
	}
}

// recomputeCompletion rebuilds the per-difficulty summaries and the
// raid-level completion timestamps from progression.
func recomputeCompletion(agg *domain.GuildAggregate) {
	agg.Completion = agg.Completion[:0]
	agg.ContentComplete = agg.ContentComplete[:0]

	for _, raid := range gamedata.Raids() {
		required := raid.RequiredBosses()

		var raidCompleted time.Time
		for _, difficulty := range raid.Difficulties {
			defeated := 0
			var lastFirstKill time.Time
			for _, e := range required {
				cell := agg.FindProgress(raid.Name, difficulty, e.ID)
				if cell == nil || cell.KillCount == 0 {
					continue
				}
				defeated++
				if cell.FirstKill.After(lastFirstKill) {
					lastFirstKill = cell.FirstKill
				}
			}
			if defeated == 0 {
				continue
			}

			summary := domain.CompletionSummary{
				Raid:           raid.Name,
				Difficulty:     difficulty,
				BossesDefeated: defeated,
				BossesRequired: len(required),
			}
			if defeated == len(required) {
				summary.FullyCompleted = true
				summary.CompletedAt = lastFirstKill

				if containsInt(raid.Hardest, difficulty) {
					if raidCompleted.IsZero() || lastFirstKill.Before(raidCompleted) {
						raidCompleted = lastFirstKill
					}
				}
			}
			agg.Completion = append(agg.Completion, summary)
		}

		if !raidCompleted.IsZero() {
			agg.ContentComplete = append(agg.ContentComplete, domain.RaidCompletion{
				Raid:      raid.Name,
				Completed: raidCompleted,
			})
		}
	}
}

// recomputeRanking rebuilds the fastest-clear and week-clear tables.
func recomputeRanking(agg *domain.GuildAggregate) {
	agg.Ranking.FastestClears = agg.Ranking.FastestClears[:0]
	agg.Ranking.WeekClears = computeWeekClears(agg)

	for _, raid := range gamedata.Raids() {
		required := raid.RequiredBosses()
		for _, difficulty := range raid.Difficulties {
			var total int64
			complete := true
			for _, e := range required {
				cell := agg.FindProgress(raid.Name, difficulty, e.ID)
				if cell == nil || len(cell.FastestKills) == 0 {
					complete = false
					break
				}
				total += cell.FastestKills[0].DurationMs
			}
			if !complete {
				continue
			}
			agg.Ranking.FastestClears = append(agg.Ranking.FastestClears, domain.RaidClear{
				Raid:            raid.Name,
				Difficulty:      difficulty,
				TotalDurationMs: total,
			})
		}
	}
}

func mondayIndexedWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, n := range list {
		if n == v {
			return true
		}
	}
	return false
}
