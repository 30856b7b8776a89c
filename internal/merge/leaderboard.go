package merge

import (
	"time"

	"raid-tracker/internal/domain"
)

// LeaderboardUpsert is one storage-agnostic upsert against a
// per-(raid, difficulty, metric) leaderboard collection. The boss value
// is max-merged; faction and race are set on insert only.
type LeaderboardUpsert struct {
	Raid       string
	Difficulty int
	Metric     domain.Metric

	Name  string
	Class int
	Realm string

	Boss      string
	Value     float64
	Faction   domain.Faction
	Race      int
	ItemLevel int
	UpdatedAt time.Time
}

type leaderboardIdentity struct {
	name  string
	class int
	realm string
}

// MergeLeaderboard turns one boss kill's performance records into
// leaderboard upserts. Leaderboard identity is cross-spec: the same
// character on two specs is one row, keyed (name, class, realm). Within
// a batch only the best value per identity survives; the keep-max
// against stored state happens in the write operation itself, so
// replaying a batch is idempotent.
func MergeLeaderboard(batch []domain.CharacterPerformanceRecord, raid string, difficulty int, boss string, metric domain.Metric) []LeaderboardUpsert {
	best := make(map[leaderboardIdentity]domain.CharacterPerformanceRecord)
	order := make([]leaderboardIdentity, 0, len(batch))

	for _, rec := range batch {
		if rec.Metric != metric {
			continue
		}
		id := leaderboardIdentity{name: rec.Key.Name, class: rec.Class, realm: rec.Key.Realm}
		prev, ok := best[id]
		if !ok {
			order = append(order, id)
			best[id] = rec
			continue
		}
		if rec.Value > prev.Value {
			best[id] = rec
		}
	}

	out := make([]LeaderboardUpsert, 0, len(order))
	for _, id := range order {
		rec := best[id]
		out = append(out, LeaderboardUpsert{
			Raid:       raid,
			Difficulty: difficulty,
			Metric:     metric,
			Name:       id.name,
			Class:      id.class,
			Realm:      id.realm,
			Boss:       boss,
			Value:      rec.Value,
			Faction:    rec.Faction,
			Race:       rec.Race,
			ItemLevel:  rec.ItemLevel,
			UpdatedAt:  rec.KilledAt,
		})
	}
	return out
}
