package domain

import (
	"time"
)

// LeaderboardCharacter is the denormalized scored view of one character
// across an entire raid tier for one metric. Identity is (name, class,
// realm, raid, difficulty); the collection it lives in fixes raid,
// difficulty and metric.
type LeaderboardCharacter struct {
	ID    string `bson:"_id,omitempty"`
	Name  string `bson:"name"`
	Class int    `bson:"class"`
	Realm string `bson:"realm"`

	// Set on insert, never rewritten.
	Faction Faction `bson:"faction"`
	Race    int     `bson:"race"`

	ItemLevel int `bson:"itemLevel"`

	// Best recorded value per boss name. One entry per boss, max-merged.
	BossValues map[string]float64 `bson:"bossValues"`

	UpdatedAt time.Time `bson:"updatedAt"`
}

// Score is the derived, never-stored leaderboard score: each boss
// contributes its value relative to the raid-wide best (clamped to 1),
// an unkilled boss contributes exactly 0, and the sum is normalized to
// maxScore over the full boss count.
func (c *LeaderboardCharacter) Score(bossNames []string, raidBest map[string]float64, maxScore float64) float64 {
	if len(bossNames) == 0 {
		return 0
	}
	var total float64
	for _, boss := range bossNames {
		v, ok := c.BossValues[boss]
		if !ok {
			continue
		}
		best := raidBest[boss]
		if best <= 0 {
			continue
		}
		rel := v / best
		if rel > 1 {
			rel = 1
		} else if rel < 0 {
			rel = 0
		}
		total += rel * 100
	}
	return total / (float64(len(bossNames)) * 100) * maxScore
}
