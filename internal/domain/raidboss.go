package domain

import "time"

// KillListCategory is one (realm, faction) bucket of a boss's kill
// history, sorted by the list's ordering key.
type KillListCategory struct {
	Realm   string        `bson:"realm"`
	Faction Faction       `bson:"faction"`
	Kills   []TrimmedKill `bson:"kills"`
}

// PerformerCategory is one (realm, faction, class, spec) bucket of a
// boss's best-performer table for one metric, sorted descending by value
// and identity-merged by character key.
type PerformerCategory struct {
	Realm   string                       `bson:"realm"`
	Faction Faction                      `bson:"faction"`
	Class   int                          `bson:"class"`
	Spec    int                          `bson:"spec"`
	Metric  Metric                       `bson:"metric"`
	Entries []CharacterPerformanceRecord `bson:"entries"`
}

// RaidBossAggregate is the continuously merged per-boss document.
// Identity is (encounter id, difficulty).
type RaidBossAggregate struct {
	EncounterID int   `bson:"encounterId"`
	Difficulty  int   `bson:"difficulty"`
	KillCount   int64 `bson:"killCount"`

	// Newest first, capped at RecentKillsCap.
	RecentKills []TrimmedKill `bson:"recentKills"`

	FastestKills []KillListCategory  `bson:"fastestKills"`
	FirstKills   []KillListCategory  `bson:"firstKills"`
	Performers   []PerformerCategory `bson:"performers"`

	// Unscoped best entry per metric, the normalization denominator for
	// leaderboard scoring. Keyed "dps"/"hps".
	OverallBest map[string]*CharacterPerformanceRecord `bson:"overallBest"`

	UpdatedAt time.Time `bson:"updatedAt"`
}

func NewRaidBossAggregate(encounterID, difficulty int) *RaidBossAggregate {
	return &RaidBossAggregate{
		EncounterID: encounterID,
		Difficulty:  difficulty,
		OverallBest: make(map[string]*CharacterPerformanceRecord),
	}
}

// FastestFor returns the (realm, faction) fastest-kill bucket, creating
// it on first use.
func (a *RaidBossAggregate) FastestFor(realm string, faction Faction) *KillListCategory {
	return findKillList(&a.FastestKills, realm, faction)
}

// FirstKillsFor returns the (realm, faction) first-kill bucket, creating
// it on first use.
func (a *RaidBossAggregate) FirstKillsFor(realm string, faction Faction) *KillListCategory {
	return findKillList(&a.FirstKills, realm, faction)
}

// PerformersFor returns the (realm, faction, class, spec, metric)
// best-performer bucket, creating it on first use.
func (a *RaidBossAggregate) PerformersFor(realm string, faction Faction, class, spec int, metric Metric) *PerformerCategory {
	for i := range a.Performers {
		c := &a.Performers[i]
		if c.Realm == realm && c.Faction == faction && c.Class == class && c.Spec == spec && c.Metric == metric {
			return c
		}
	}
	a.Performers = append(a.Performers, PerformerCategory{
		Realm: realm, Faction: faction, Class: class, Spec: spec, Metric: metric,
	})
	return &a.Performers[len(a.Performers)-1]
}

// BestFor returns the unscoped best value for a metric, or 0 when the
// boss has no recorded entry yet.
func (a *RaidBossAggregate) BestFor(metric Metric) float64 {
	if a == nil || a.OverallBest == nil {
		return 0
	}
	if best, ok := a.OverallBest[string(metric)]; ok && best != nil {
		return best.Value
	}
	return 0
}

func findKillList(lists *[]KillListCategory, realm string, faction Faction) *KillListCategory {
	for i := range *lists {
		c := &(*lists)[i]
		if c.Realm == realm && c.Faction == faction {
			return c
		}
	}
	*lists = append(*lists, KillListCategory{Realm: realm, Faction: faction})
	return &(*lists)[len(*lists)-1]
}
