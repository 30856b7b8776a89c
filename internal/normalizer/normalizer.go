package normalizer

import (
	"raid-tracker/internal/api"
	"raid-tracker/internal/domain"
	"raid-tracker/internal/gamedata"

	"github.com/rs/zerolog"
)

// Normalizer converts raw kill logs into typed, trimmed records. It is
// stateless apart from its bug-rule list.
type Normalizer struct {
	rules  []BugRule
	logger zerolog.Logger
}

func New(rules []BugRule, logger zerolog.Logger) *Normalizer {
	return &Normalizer{rules: rules, logger: logger}
}

// NormalizeBatch applies the bug-rule pass once, then normalizes every
// surviving log. Raw logs that fail normalization (no valid
// participants, unknown encounter) are dropped with a debug log.
func (n *Normalizer) NormalizeBatch(raw []api.RawKillLog) []domain.NormalizedKillRecord {
	corrected := n.applyBugRules(raw)

	out := make([]domain.NormalizedKillRecord, 0, len(corrected))
	for i := range corrected {
		rec, ok := n.Normalize(&corrected[i])
		if !ok {
			n.logger.Debug().Str("log_id", corrected[i].ID).Msg("dropping unusable log")
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Normalize converts one raw log. The second return is false when the
// log cannot produce a usable record.
func (n *Normalizer) Normalize(raw *api.RawKillLog) (domain.NormalizedKillRecord, bool) {
	if _, _, ok := gamedata.RaidForEncounter(raw.EncounterID); !ok {
		return domain.NormalizedKillRecord{}, false
	}
	if !gamedata.ValidDifficulty(raw.Difficulty) || raw.DurationMs <= 0 {
		return domain.NormalizedKillRecord{}, false
	}

	participants := make([]domain.Participant, 0, len(raw.Participants))
	for _, p := range raw.Participants {
		if _, ok := gamedata.SpecByID(p.Spec); !ok {
			continue
		}
		participants = append(participants, domain.Participant{
			Name:       p.Name,
			Realm:      p.Realm,
			Race:       p.Race,
			Class:      p.Class,
			Spec:       p.Spec,
			ItemLevel:  p.ItemLevel,
			DamageDone: p.DamageDone,
			HealDone:   p.HealDone,
			AbsorbDone: p.AbsorbDone,
		})
	}
	if len(participants) == 0 {
		return domain.NormalizedKillRecord{}, false
	}

	rec := domain.NormalizedKillRecord{
		LogID:        raw.ID,
		Realm:        raw.Realm,
		EncounterID:  raw.EncounterID,
		Difficulty:   raw.Difficulty,
		KilledAt:     raw.KilledAt,
		DurationMs:   raw.DurationMs,
		Participants: participants,
		Faction:      inferFaction(raw),
	}

	if raw.Guild.ID != 0 && raw.Guild.Name != "" {
		rec.GuildID = raw.Guild.ID
		rec.GuildName = raw.Guild.Name
	}

	return rec, true
}

// inferFaction counts each participant's race-implied faction and takes
// the strict majority, ties resolving to horde. A resolved guild faction
// overrides the inference.
func inferFaction(raw *api.RawKillLog) domain.Faction {
	if raw.Guild.ID != 0 && raw.Guild.Name != "" && raw.Guild.Faction >= 0 {
		if raw.Guild.Faction == int(domain.FactionAlliance) {
			return domain.FactionAlliance
		}
		return domain.FactionHorde
	}

	var alliance, horde int
	for _, p := range raw.Participants {
		f, ok := gamedata.FactionForRace(p.Race)
		if !ok {
			continue
		}
		if f == domain.FactionAlliance {
			alliance++
		} else {
			horde++
		}
	}
	if alliance > horde {
		return domain.FactionAlliance
	}
	return domain.FactionHorde
}

// PerformanceRecords expands a normalized kill into per-metric character
// performance records. A participant contributes dps only on a
// DPS-capable spec and hps only on a healer-capable one; a hybrid spec
// contributes both.
func PerformanceRecords(rec *domain.NormalizedKillRecord) []domain.CharacterPerformanceRecord {
	seconds := float64(rec.DurationMs) / 1000
	if seconds <= 0 {
		return nil
	}

	out := make([]domain.CharacterPerformanceRecord, 0, len(rec.Participants))
	for _, p := range rec.Participants {
		spec, ok := gamedata.SpecByID(p.Spec)
		if !ok {
			continue
		}
		faction := rec.Faction
		if f, ok := gamedata.FactionForRace(p.Race); ok {
			faction = f
		}
		base := domain.CharacterPerformanceRecord{
			Key:       domain.CharacterKey{Name: p.Name, Realm: p.Realm, Spec: p.Spec},
			Class:     p.Class,
			Race:      p.Race,
			Faction:   faction,
			ItemLevel: p.ItemLevel,
			LogID:     rec.LogID,
			KilledAt:  rec.KilledAt,
		}
		if spec.DPS {
			r := base
			r.Metric = domain.MetricDPS
			r.Value = float64(p.DamageDone) / seconds
			out = append(out, r)
		}
		if spec.Healer {
			r := base
			r.Metric = domain.MetricHPS
			r.Value = float64(p.HealDone+p.AbsorbDone) / seconds
			out = append(out, r)
		}
	}
	return out
}

// TrimKill produces the compact kill entry stored in bounded lists.
func TrimKill(rec *domain.NormalizedKillRecord) domain.TrimmedKill {
	roster := make([]string, len(rec.Participants))
	for i, p := range rec.Participants {
		roster[i] = p.Name
	}
	return domain.TrimmedKill{
		LogID:       rec.LogID,
		EncounterID: rec.EncounterID,
		Difficulty:  rec.Difficulty,
		Realm:       rec.Realm,
		Faction:     rec.Faction,
		GuildName:   rec.GuildName,
		KilledAt:    rec.KilledAt,
		DurationMs:  rec.DurationMs,
		Roster:      roster,
	}
}
