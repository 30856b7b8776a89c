package domain

import "time"

// GuildPerformer is one character's best recorded value on one boss for
// one metric within a guild. Keyed by character, keep-best, no cap.
type GuildPerformer struct {
	Key       CharacterKey `bson:"key"`
	Class     int          `bson:"class"`
	Value     float64      `bson:"value"`
	ItemLevel int          `bson:"itemLevel"`
	KilledAt  time.Time    `bson:"killedAt"`
}

// BossProgress is one (raid, difficulty, boss) progression cell.
type BossProgress struct {
	EncounterID int    `bson:"encounterId"`
	Boss        string `bson:"boss"`
	KillCount   int64  `bson:"killCount"`

	FirstKill    time.Time     `bson:"firstKill"`
	FastestKills []TrimmedKill `bson:"fastestKills"`

	BestDPS []GuildPerformer `bson:"bestDps"`
	BestHPS []GuildPerformer `bson:"bestHps"`
}

// DifficultyProgress groups a raid's boss cells under one difficulty.
type DifficultyProgress struct {
	Difficulty int            `bson:"difficulty"`
	Bosses     []BossProgress `bson:"bosses"`
}

// RaidProgress is one raid's nested progression for a guild.
type RaidProgress struct {
	Raid         string               `bson:"raid"`
	Difficulties []DifficultyProgress `bson:"difficulties"`
}

// CompletionSummary is the derived per-(raid, difficulty) clear state,
// recomputed on every merge.
type CompletionSummary struct {
	Raid           string    `bson:"raid"`
	Difficulty     int       `bson:"difficulty"`
	BossesDefeated int       `bson:"bossesDefeated"`
	BossesRequired int       `bson:"bossesRequired"`
	CompletedAt    time.Time `bson:"completedAt,omitempty"`
	FullyCompleted bool      `bson:"fullyCompleted"`
}

// RaidCompletion is the raid-level clear timestamp, earned at one of the
// raid's hardest difficulties; when several qualify the earliest wins.
type RaidCompletion struct {
	Raid      string    `bson:"raid"`
	Completed time.Time `bson:"completed"`
}

// RaidClear is the fastest-possible clear built from per-boss fastest
// kills; only present when every required boss has at least one kill.
type RaidClear struct {
	Raid            string `bson:"raid"`
	Difficulty      int    `bson:"difficulty"`
	TotalDurationMs int64  `bson:"totalDurationMs"`
}

// WeekClear is an observed full clear by one raid group within one
// tracked week: the span from the group's earliest to latest kill log.
type WeekClear struct {
	Raid       string    `bson:"raid"`
	Difficulty int       `bson:"difficulty"`
	StartedAt  time.Time `bson:"startedAt"`
	FinishedAt time.Time `bson:"finishedAt"`
	SpanMs     int64     `bson:"spanMs"`
	Roster     []string  `bson:"roster"`
}

// GuildRanking holds the derived ranking tables.
type GuildRanking struct {
	FastestClears []RaidClear `bson:"fastestClears"`
	WeekClears    []WeekClear `bson:"weekClears"`
}

// DifficultyActivity is the last kill timestamp seen per difficulty.
type DifficultyActivity struct {
	Difficulty int       `bson:"difficulty"`
	LastKill   time.Time `bson:"lastKill"`
}

// GuildAggregate is the continuously merged per-guild document.
// Identity is (name, realm).
type GuildAggregate struct {
	GuildID int64   `bson:"guildId"`
	Name    string  `bson:"name"`
	Realm   string  `bson:"realm"`
	Faction Faction `bson:"faction"`

	Roster []string `bson:"roster"`

	LastActivity []DifficultyActivity `bson:"lastActivity"`

	// UTC activity histogram, Monday=0, indexed [day][hour].
	RaidDays [7][24]int `bson:"raidDays"`

	RecentKills []TrimmedKill `bson:"recentKills"`

	Progression     []RaidProgress      `bson:"progression"`
	Completion      []CompletionSummary `bson:"completion"`
	ContentComplete []RaidCompletion    `bson:"contentComplete"`
	Ranking         GuildRanking        `bson:"ranking"`

	UpdatedAt time.Time `bson:"updatedAt"`
}

func NewGuildAggregate(guildID int64, name, realm string, faction Faction) *GuildAggregate {
	return &GuildAggregate{GuildID: guildID, Name: name, Realm: realm, Faction: faction}
}

// ProgressFor returns the (raid, difficulty, boss) cell, creating the
// nesting on first use.
func (g *GuildAggregate) ProgressFor(raid string, difficulty, encounterID int, boss string) *BossProgress {
	var rp *RaidProgress
	for i := range g.Progression {
		if g.Progression[i].Raid == raid {
			rp = &g.Progression[i]
			break
		}
	}
	if rp == nil {
		g.Progression = append(g.Progression, RaidProgress{Raid: raid})
		rp = &g.Progression[len(g.Progression)-1]
	}

	var dp *DifficultyProgress
	for i := range rp.Difficulties {
		if rp.Difficulties[i].Difficulty == difficulty {
			dp = &rp.Difficulties[i]
			break
		}
	}
	if dp == nil {
		rp.Difficulties = append(rp.Difficulties, DifficultyProgress{Difficulty: difficulty})
		dp = &rp.Difficulties[len(rp.Difficulties)-1]
	}

	for i := range dp.Bosses {
		if dp.Bosses[i].EncounterID == encounterID {
			return &dp.Bosses[i]
		}
	}
	dp.Bosses = append(dp.Bosses, BossProgress{EncounterID: encounterID, Boss: boss})
	return &dp.Bosses[len(dp.Bosses)-1]
}

// FindProgress returns the cell without creating it.
func (g *GuildAggregate) FindProgress(raid string, difficulty, encounterID int) *BossProgress {
	for i := range g.Progression {
		if g.Progression[i].Raid != raid {
			continue
		}
		for j := range g.Progression[i].Difficulties {
			dp := &g.Progression[i].Difficulties[j]
			if dp.Difficulty != difficulty {
				continue
			}
			for k := range dp.Bosses {
				if dp.Bosses[k].EncounterID == encounterID {
					return &dp.Bosses[k]
				}
			}
		}
	}
	return nil
}

// TouchActivity records a kill timestamp against a difficulty, keeping
// the latest.
func (g *GuildAggregate) TouchActivity(difficulty int, at time.Time) {
	for i := range g.LastActivity {
		if g.LastActivity[i].Difficulty == difficulty {
			if at.After(g.LastActivity[i].LastKill) {
				g.LastActivity[i].LastKill = at
			}
			return
		}
	}
	g.LastActivity = append(g.LastActivity, DifficultyActivity{Difficulty: difficulty, LastKill: at})
}
