package normalizer

import (
	"testing"
	"time"

	"raid-tracker/internal/api"
	"raid-tracker/internal/domain"

	"github.com/rs/zerolog"
)

func testLog(participants ...api.RawParticipant) api.RawKillLog {
	return api.RawKillLog{
		ID:           "log-1",
		Realm:        "Lordaeron",
		EncounterID:  849, // Festergut
		Difficulty:   5,   // 10 heroic
		KilledAt:     time.Date(2026, time.March, 2, 20, 30, 0, 0, time.UTC),
		DurationMs:   180_000,
		Participants: participants,
	}
}

func dpsParticipant(name string, race int, damage int64) api.RawParticipant {
	return api.RawParticipant{
		Name:       name,
		Realm:      "Lordaeron",
		Race:       race,
		Class:      8,
		Spec:       63, // Fire
		ItemLevel:  264,
		DamageDone: damage,
	}
}

func TestNormalizer_InferFaction(t *testing.T) {
	n := New(nil, zerolog.Nop())

	tests := []struct {
		name  string
		races []int
		want  domain.Faction
	}{
		{
			name:  "alliance majority",
			races: []int{1, 1, 4, 7, 2}, // 4 alliance, 1 horde
			want:  domain.FactionAlliance,
		},
		{
			name:  "horde majority",
			races: []int{2, 5, 6, 1},
			want:  domain.FactionHorde,
		},
		{
			name:  "even split resolves to horde",
			races: []int{1, 4, 2, 5},
			want:  domain.FactionHorde,
		},
		{
			name:  "unknown races do not vote",
			races: []int{99, 99, 1},
			want:  domain.FactionAlliance,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parts []api.RawParticipant
			for i, race := range tt.races {
				parts = append(parts, dpsParticipant("P"+string(rune('A'+i)), race, 1000))
			}
			raw := testLog(parts...)

			rec, ok := n.Normalize(&raw)
			if !ok {
				t.Fatal("expected log to normalize")
			}
			if rec.Faction != tt.want {
				t.Errorf("expected faction %d, got %d", tt.want, rec.Faction)
			}
		})
	}
}

func TestNormalizer_GuildFactionOverride(t *testing.T) {
	n := New(nil, zerolog.Nop())

	raw := testLog(dpsParticipant("Orcish", 2, 1000), dpsParticipant("Orcisher", 2, 1000))
	raw.Guild.ID = 7
	raw.Guild.Name = "Alliance Pride"
	raw.Guild.Faction = 0

	rec, ok := n.Normalize(&raw)
	if !ok {
		t.Fatal("expected log to normalize")
	}
	if rec.Faction != domain.FactionAlliance {
		t.Errorf("resolved guild faction must override race inference, got %d", rec.Faction)
	}

	// -1 means unresolved: fall back to inference.
	raw.Guild.Faction = -1
	rec, _ = n.Normalize(&raw)
	if rec.Faction != domain.FactionHorde {
		t.Errorf("unresolved guild faction must fall back to race majority, got %d", rec.Faction)
	}
}

func TestNormalizer_DropsUnusableLogs(t *testing.T) {
	n := New(nil, zerolog.Nop())

	t.Run("unknown encounter", func(t *testing.T) {
		raw := testLog(dpsParticipant("A", 1, 1000))
		raw.EncounterID = 999
		if _, ok := n.Normalize(&raw); ok {
			t.Error("unknown encounter must be dropped")
		}
	})

	t.Run("invalid difficulty", func(t *testing.T) {
		raw := testLog(dpsParticipant("A", 1, 1000))
		raw.Difficulty = 1
		if _, ok := n.Normalize(&raw); ok {
			t.Error("untracked difficulty must be dropped")
		}
	})

	t.Run("no valid participants", func(t *testing.T) {
		p := dpsParticipant("A", 1, 1000)
		p.Spec = 12345
		raw := testLog(p)
		if _, ok := n.Normalize(&raw); ok {
			t.Error("log with no recognizable participants must be dropped")
		}
	})
}

func TestPerformanceRecords_MetricExpansion(t *testing.T) {
	rec := domain.NormalizedKillRecord{
		LogID:      "log-2",
		Realm:      "Lordaeron",
		DurationMs: 100_000,
		Faction:    domain.FactionHorde,
		Participants: []domain.Participant{
			{Name: "Pyro", Realm: "Lordaeron", Race: 2, Class: 8, Spec: 63, DamageDone: 500_000},
			{Name: "Mender", Realm: "Lordaeron", Race: 6, Class: 11, Spec: 105, HealDone: 300_000, AbsorbDone: 100_000},
			{Name: "Disc", Realm: "Lordaeron", Race: 5, Class: 5, Spec: 256, DamageDone: 100_000, HealDone: 200_000},
		},
	}

	records := PerformanceRecords(&rec)

	byKey := make(map[string]domain.CharacterPerformanceRecord)
	for _, r := range records {
		byKey[r.Key.Name+"/"+string(r.Metric)] = r
	}

	if len(records) != 4 {
		t.Fatalf("expected 4 records (1 dps + 1 hps + hybrid both), got %d", len(records))
	}
	if r := byKey["Pyro/dps"]; r.Value != 5000 {
		t.Errorf("expected Pyro dps 5000, got %v", r.Value)
	}
	if _, ok := byKey["Pyro/hps"]; ok {
		t.Error("pure dps spec must not produce an hps record")
	}
	if r := byKey["Mender/hps"]; r.Value != 4000 {
		t.Errorf("expected Mender hps 4000 (heal+absorb), got %v", r.Value)
	}
	if _, ok := byKey["Disc/dps"]; !ok {
		t.Error("hybrid spec must produce a dps record")
	}
	if _, ok := byKey["Disc/hps"]; !ok {
		t.Error("hybrid spec must produce an hps record")
	}
}

func TestApplyBugRules(t *testing.T) {
	t.Run("drop log by id", func(t *testing.T) {
		n := New([]BugRule{{Kind: RuleDropLog, LogID: "log-1"}}, zerolog.Nop())
		out := n.applyBugRules([]api.RawKillLog{testLog(dpsParticipant("A", 1, 1000))})
		if len(out) != 0 {
			t.Errorf("expected log dropped, got %d logs", len(out))
		}
	})

	t.Run("rewrite damage is idempotent", func(t *testing.T) {
		rule := BugRule{Kind: RuleRewriteDamage, Character: "A", Realm: "Lordaeron", NewDamage: 500}
		n := New([]BugRule{rule}, zerolog.Nop())

		once := n.applyBugRules([]api.RawKillLog{testLog(dpsParticipant("A", 1, 1000))})
		if got := once[0].Participants[0].DamageDone; got != 500 {
			t.Fatalf("expected damage rewritten to 500, got %d", got)
		}

		twice := n.applyBugRules(once)
		if got := twice[0].Participants[0].DamageDone; got != 500 {
			t.Errorf("second application changed damage to %d", got)
		}
	})

	t.Run("rewrite leaves the input batch untouched", func(t *testing.T) {
		rule := BugRule{Kind: RuleRewriteDamage, Character: "A", Realm: "Lordaeron", NewDamage: 500}
		n := New([]BugRule{rule}, zerolog.Nop())

		raw := []api.RawKillLog{testLog(dpsParticipant("A", 1, 1000))}
		out := n.applyBugRules(raw)

		if got := out[0].Participants[0].DamageDone; got != 500 {
			t.Fatalf("expected corrected damage 500, got %d", got)
		}
		if got := raw[0].Participants[0].DamageDone; got != 1000 {
			t.Errorf("correction pass mutated the caller's batch: damage = %d", got)
		}
	})

	t.Run("malformed rule is skipped not fatal", func(t *testing.T) {
		n := New([]BugRule{{Kind: "no_such_kind"}}, zerolog.Nop())
		out := n.applyBugRules([]api.RawKillLog{testLog(dpsParticipant("A", 1, 1000))})
		if len(out) != 1 {
			t.Errorf("batch must survive a malformed rule, got %d logs", len(out))
		}
	})

	t.Run("boss range drop respects window", func(t *testing.T) {
		rule := BugRule{
			Kind:        RuleDropBossRange,
			EncounterID: 849,
			From:        time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
			To:          time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC),
		}
		n := New([]BugRule{rule}, zerolog.Nop())

		inside := testLog(dpsParticipant("A", 1, 1000))
		outside := testLog(dpsParticipant("A", 1, 1000))
		outside.ID = "log-2"
		outside.KilledAt = time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

		out := n.applyBugRules([]api.RawKillLog{inside, outside})
		if len(out) != 1 || out[0].ID != "log-2" {
			t.Errorf("expected only the out-of-window log to survive, got %+v", out)
		}
	})
}
