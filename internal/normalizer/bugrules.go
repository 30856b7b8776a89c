package normalizer

import (
	"time"

	"raid-tracker/internal/api"
	"raid-tracker/internal/gamedata"
)

// BugRuleKind selects what a known-bad-data correction does.
type BugRuleKind string

const (
	// RuleDropLog removes a log entirely by id.
	RuleDropLog BugRuleKind = "drop_log"
	// RuleDropBossRange removes kills of one encounter inside a date range.
	RuleDropBossRange BugRuleKind = "drop_boss_range"
	// RuleRewriteSpec rewrites a participant's reported spec in a range.
	RuleRewriteSpec BugRuleKind = "rewrite_spec"
	// RuleRewriteDamage rewrites a participant's damage in a range.
	RuleRewriteDamage BugRuleKind = "rewrite_damage"
	// RuleDropCharacter removes one character's contribution from logs.
	RuleDropCharacter BugRuleKind = "drop_character"
)

// BugRule is one known-server-bug correction. The whole list runs once
// per batch before any merge; reapplying it to already-corrected data is
// a no-op.
type BugRule struct {
	Kind BugRuleKind

	LogID       string
	EncounterID int
	From, To    time.Time

	Character string
	Realm     string

	NewSpec   int
	NewDamage int64
}

func (r *BugRule) inRange(at time.Time) bool {
	if !r.From.IsZero() && at.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && at.After(r.To) {
		return false
	}
	return true
}

// applyBugRules runs the correction pass over a raw batch. Malformed
// rules are logged and skipped, never batch-fatal.
func (n *Normalizer) applyBugRules(raw []api.RawKillLog) []api.RawKillLog {
	rules := make([]BugRule, 0, len(n.rules))
	for _, r := range n.rules {
		if err := validateRule(&r); err != nil {
			n.logger.Warn().Err(err).Str("kind", string(r.Kind)).Msg("skipping malformed bug rule")
			continue
		}
		rules = append(rules, r)
	}
	if len(rules) == 0 {
		return raw
	}

	out := make([]api.RawKillLog, 0, len(raw))
	for _, l := range raw {
		// The rewrite rules edit participants, so give each log its own
		// backing array instead of aliasing the caller's batch.
		l.Participants = append([]api.RawParticipant(nil), l.Participants...)
		keep := true
		for i := range rules {
			if !applyRule(&rules[i], &l) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, l)
		}
	}
	return out
}

// applyRule mutates the log copy in place and reports whether the log
// survives.
func applyRule(r *BugRule, l *api.RawKillLog) bool {
	switch r.Kind {
	case RuleDropLog:
		return l.ID != r.LogID

	case RuleDropBossRange:
		return !(l.EncounterID == r.EncounterID && r.inRange(l.KilledAt))

	case RuleRewriteSpec:
		if !r.inRange(l.KilledAt) {
			return true
		}
		for i := range l.Participants {
			p := &l.Participants[i]
			if p.Name == r.Character && p.Realm == r.Realm && p.Spec != r.NewSpec {
				p.Spec = r.NewSpec
			}
		}
		return true

	case RuleRewriteDamage:
		if !r.inRange(l.KilledAt) {
			return true
		}
		for i := range l.Participants {
			p := &l.Participants[i]
			if p.Name == r.Character && p.Realm == r.Realm && p.DamageDone > r.NewDamage {
				p.DamageDone = r.NewDamage
			}
		}
		return true

	case RuleDropCharacter:
		kept := l.Participants[:0]
		for _, p := range l.Participants {
			if p.Name == r.Character && p.Realm == r.Realm {
				continue
			}
			kept = append(kept, p)
		}
		l.Participants = kept
		return true
	}
	return true
}

func validateRule(r *BugRule) error {
	switch r.Kind {
	case RuleDropLog:
		if r.LogID == "" {
			return errEmptyTarget(r.Kind)
		}
	case RuleDropBossRange:
		if _, _, ok := gamedata.RaidForEncounter(r.EncounterID); !ok {
			return errUnknownEncounter(r.EncounterID)
		}
	case RuleRewriteSpec:
		if _, ok := gamedata.SpecByID(r.NewSpec); !ok {
			return errUnknownSpec(r.NewSpec)
		}
		if r.Character == "" {
			return errEmptyTarget(r.Kind)
		}
	case RuleRewriteDamage, RuleDropCharacter:
		if r.Character == "" {
			return errEmptyTarget(r.Kind)
		}
	default:
		return errUnknownKind(r.Kind)
	}
	return nil
}

// DefaultRules are the standing corrections for known server data bugs.
// Each entry is scoped to the period the bug was live.
var DefaultRules = []BugRule{
	// Gunship cannons attributed their damage to the firing player for a
	// stretch after the encounter was enabled.
	{
		Kind:        RuleDropBossRange,
		EncounterID: 847,
		From:        time.Date(2026, time.February, 3, 0, 0, 0, 0, time.UTC),
		To:          time.Date(2026, time.February, 17, 0, 0, 0, 0, time.UTC),
	},
}
