package domain

import (
	"fmt"
	"time"
)

// Faction is 0 for alliance, 1 for horde.
type Faction int

const (
	FactionAlliance Faction = 0
	FactionHorde    Faction = 1
)

// Metric is one of the two ranked performance dimensions.
type Metric string

const (
	MetricDPS Metric = "dps"
	MetricHPS Metric = "hps"
)

// Metrics lists both dimensions in a stable order.
var Metrics = []Metric{MetricDPS, MetricHPS}

// CharacterKey identifies one character playing one spec. Two records with
// the same key are the same leaderboard entry.
type CharacterKey struct {
	Name  string `bson:"name"`
	Realm string `bson:"realm"`
	Spec  int    `bson:"spec"`
}

func (k CharacterKey) String() string {
	return fmt.Sprintf("%s-%s-%d", k.Name, k.Realm, k.Spec)
}

// Participant is one raid member as they appeared on a kill log, before
// any metric filtering.
type Participant struct {
	Name       string `bson:"name"`
	Realm      string `bson:"realm"`
	Race       int    `bson:"race"`
	Class      int    `bson:"class"`
	Spec       int    `bson:"spec"`
	ItemLevel  int    `bson:"itemLevel"`
	DamageDone int64  `bson:"damageDone"`
	HealDone   int64  `bson:"healDone"`
	AbsorbDone int64  `bson:"absorbDone"`
}

// NormalizedKillRecord is one boss kill from one log, fully typed and
// trimmed. Immutable once produced by the normalizer.
type NormalizedKillRecord struct {
	LogID       string
	Realm       string
	EncounterID int
	Difficulty  int
	Faction     Faction
	KilledAt    time.Time
	DurationMs  int64

	GuildID   int64
	GuildName string

	Participants []Participant
}

// IsGuildKill reports whether the kill is attributable to a guild. Both
// the id and a non-empty name must be present on the raw log.
func (r *NormalizedKillRecord) IsGuildKill() bool {
	return r.GuildID != 0 && r.GuildName != ""
}

// CharacterPerformanceRecord is one character's output on one boss kill
// for one metric. Rank fields are recomputed wholesale, never merged.
type CharacterPerformanceRecord struct {
	Key       CharacterKey `bson:"key"`
	Class     int          `bson:"class"`
	Race      int          `bson:"race"`
	Faction   Faction      `bson:"faction"`
	Metric    Metric       `bson:"metric"`
	Value     float64      `bson:"value"`
	ItemLevel int          `bson:"itemLevel"`
	LogID     string       `bson:"logId"`
	KilledAt  time.Time    `bson:"killedAt"`

	Rank      int `bson:"rank"`
	ClassRank int `bson:"classRank"`
	SpecRank  int `bson:"specRank"`
}

// TrimmedKill is the compact per-kill entry stored in the bounded kill
// lists of the boss and guild aggregates.
type TrimmedKill struct {
	LogID       string    `bson:"logId"`
	EncounterID int       `bson:"encounterId"`
	Difficulty  int       `bson:"difficulty"`
	Realm       string    `bson:"realm"`
	Faction     Faction   `bson:"faction"`
	GuildName   string    `bson:"guildName,omitempty"`
	KilledAt    time.Time `bson:"killedAt"`
	DurationMs  int64     `bson:"durationMs"`
	Roster      []string  `bson:"roster,omitempty"`
}
