package merge

import (
	"testing"

	"raid-tracker/internal/domain"
)

func perfRecord(name, realm string, class, spec int, metric domain.Metric, value float64) domain.CharacterPerformanceRecord {
	return domain.CharacterPerformanceRecord{
		Key:    domain.CharacterKey{Name: name, Realm: realm, Spec: spec},
		Class:  class,
		Metric: metric,
		Value:  value,
	}
}

func TestMergeLeaderboard(t *testing.T) {
	t.Run("cross-spec identity keeps one row", func(t *testing.T) {
		// The same mage on two specs in one batch is one leaderboard
		// identity; the better value wins.
		batch := []domain.CharacterPerformanceRecord{
			perfRecord("Pyro", "Lordaeron", 8, 63, domain.MetricDPS, 8000),
			perfRecord("Pyro", "Lordaeron", 8, 64, domain.MetricDPS, 9500),
		}

		out := MergeLeaderboard(batch, "Icecrown Citadel", 5, "Festergut", domain.MetricDPS)
		if len(out) != 1 {
			t.Fatalf("expected 1 upsert, got %d", len(out))
		}
		if out[0].Value != 9500 {
			t.Errorf("expected best value 9500, got %v", out[0].Value)
		}
	})

	t.Run("same name on another realm is distinct", func(t *testing.T) {
		batch := []domain.CharacterPerformanceRecord{
			perfRecord("Pyro", "Lordaeron", 8, 63, domain.MetricDPS, 8000),
			perfRecord("Pyro", "Frostmourne", 8, 63, domain.MetricDPS, 7000),
		}

		out := MergeLeaderboard(batch, "Icecrown Citadel", 5, "Festergut", domain.MetricDPS)
		if len(out) != 2 {
			t.Errorf("expected 2 upserts, got %d", len(out))
		}
	})

	t.Run("other metric records are filtered out", func(t *testing.T) {
		batch := []domain.CharacterPerformanceRecord{
			perfRecord("Pyro", "Lordaeron", 8, 63, domain.MetricDPS, 8000),
			perfRecord("Mender", "Lordaeron", 11, 105, domain.MetricHPS, 6000),
		}

		out := MergeLeaderboard(batch, "Icecrown Citadel", 5, "Festergut", domain.MetricDPS)
		if len(out) != 1 || out[0].Name != "Pyro" {
			t.Errorf("expected only the dps record, got %+v", out)
		}
	})

	t.Run("upserts carry collection coordinates", func(t *testing.T) {
		batch := []domain.CharacterPerformanceRecord{
			perfRecord("Pyro", "Lordaeron", 8, 63, domain.MetricDPS, 8000),
		}

		out := MergeLeaderboard(batch, "Icecrown Citadel", 5, "Festergut", domain.MetricDPS)
		up := out[0]
		if up.Raid != "Icecrown Citadel" || up.Difficulty != 5 || up.Boss != "Festergut" || up.Metric != domain.MetricDPS {
			t.Errorf("upsert coordinates wrong: %+v", up)
		}
	})
}
