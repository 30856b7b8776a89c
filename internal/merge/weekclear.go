package merge

import (
	"sort"
	"time"

	"raid-tracker/internal/constants"
	"raid-tracker/internal/domain"
	"raid-tracker/internal/gamedata"
)

// raidGroup accumulates the kills attributed to one roster within one
// tracked week.
type raidGroup struct {
	roster   map[string]struct{}
	kills    []domain.TrimmedKill
	earliest time.Time
	latest   time.Time
}

// computeWeekClears scans the guild's recent-kill window and groups
// same-week kills by roster overlap. A group whose kills cover every
// required boss of a (raid, difficulty) is a full clear; its span is the
// earliest-to-latest kill timestamp.
//
// A kill joins the existing same-week group with the highest overlap
// ratio at or above the threshold; on a ratio tie the earlier-created
// group wins. The 80% heuristic is an approximation carried over from
// observed behavior, not a guaranteed-correct grouping.
func computeWeekClears(agg *domain.GuildAggregate) []domain.WeekClear {
	type bucketKey struct {
		week       time.Time
		raid       string
		difficulty int
	}

	buckets := make(map[bucketKey][]domain.TrimmedKill)
	for _, kill := range agg.RecentKills {
		raid, _, ok := gamedata.RaidForEncounter(kill.EncounterID)
		if !ok {
			continue
		}
		k := bucketKey{
			week:       weekStart(kill.KilledAt),
			raid:       raid.Name,
			difficulty: kill.Difficulty,
		}
		buckets[k] = append(buckets[k], kill)
	}

	var clears []domain.WeekClear
	for key, kills := range buckets {
		raid, _ := gamedata.RaidByName(key.raid)
		size := gamedata.RaidSize(key.difficulty)
		groups := groupByRoster(kills, size)

		for _, g := range groups {
			if !coversRequired(g.kills, raid) {
				continue
			}
			clears = append(clears, domain.WeekClear{
				Raid:       key.raid,
				Difficulty: key.difficulty,
				StartedAt:  g.earliest,
				FinishedAt: g.latest,
				SpanMs:     g.latest.Sub(g.earliest).Milliseconds(),
				Roster:     sortedRoster(g.roster),
			})
		}
	}

	sort.Slice(clears, func(i, j int) bool {
		if clears[i].Raid != clears[j].Raid {
			return clears[i].Raid < clears[j].Raid
		}
		if clears[i].Difficulty != clears[j].Difficulty {
			return clears[i].Difficulty < clears[j].Difficulty
		}
		return clears[i].SpanMs < clears[j].SpanMs
	})
	return clears
}

func groupByRoster(kills []domain.TrimmedKill, raidSize int) []*raidGroup {
	sort.Slice(kills, func(i, j int) bool {
		return kills[i].KilledAt.Before(kills[j].KilledAt)
	})

	threshold := constants.RaidGroupOverlap * float64(raidSize)

	var groups []*raidGroup
	for _, kill := range kills {
		var best *raidGroup
		var bestOverlap float64 = -1
		for _, g := range groups {
			overlap := float64(rosterOverlap(g.roster, kill.Roster))
			if overlap >= threshold && overlap > bestOverlap {
				best = g
				bestOverlap = overlap
			}
		}
		if best == nil {
			best = &raidGroup{
				roster:   make(map[string]struct{}),
				earliest: kill.KilledAt,
				latest:   kill.KilledAt,
			}
			groups = append(groups, best)
		}
		for _, name := range kill.Roster {
			best.roster[name] = struct{}{}
		}
		best.kills = append(best.kills, kill)
		if kill.KilledAt.Before(best.earliest) {
			best.earliest = kill.KilledAt
		}
		if kill.KilledAt.After(best.latest) {
			best.latest = kill.KilledAt
		}
	}
	return groups
}

func rosterOverlap(group map[string]struct{}, roster []string) int {
	n := 0
	for _, name := range roster {
		if _, ok := group[name]; ok {
			n++
		}
	}
	return n
}

func coversRequired(kills []domain.TrimmedKill, raid *gamedata.Raid) bool {
	killed := make(map[int]struct{}, len(kills))
	for _, k := range kills {
		killed[k.EncounterID] = struct{}{}
	}
	for _, e := range raid.RequiredBosses() {
		if _, ok := killed[e.ID]; !ok {
			return false
		}
	}
	return true
}

func sortedRoster(roster map[string]struct{}) []string {
	out := make([]string, 0, len(roster))
	for name := range roster {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// weekStart truncates to the Monday 00:00 UTC opening the tracked week.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -mondayIndexedWeekday(day))
}
