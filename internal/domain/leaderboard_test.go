package domain

import (
	"math"
	"testing"
)

func TestLeaderboardCharacter_Score(t *testing.T) {
	bosses := []string{"Festergut", "Rotface"}
	best := map[string]float64{"Festergut": 10000, "Rotface": 8000}

	tests := []struct {
		name   string
		values map[string]float64
		want   float64
	}{
		{
			name:   "half of best on one boss, best on the other",
			values: map[string]float64{"Festergut": 5000, "Rotface": 8000},
			want:   75,
		},
		{
			name:   "best everywhere scores max",
			values: map[string]float64{"Festergut": 10000, "Rotface": 8000},
			want:   100,
		},
		{
			name:   "unkilled boss contributes zero",
			values: map[string]float64{"Festergut": 10000},
			want:   50,
		},
		{
			name:   "above recorded best clamps to full credit",
			values: map[string]float64{"Festergut": 12000, "Rotface": 8000},
			want:   100,
		},
		{
			name:   "no kills at all",
			values: map[string]float64{},
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := LeaderboardCharacter{BossValues: tt.values}
			got := c.Score(bosses, best, 100)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected score %v, got %v", tt.want, got)
			}
		})
	}
}

func TestLeaderboardCharacter_Score_EmptyRaid(t *testing.T) {
	c := LeaderboardCharacter{BossValues: map[string]float64{"Festergut": 100}}
	if got := c.Score(nil, nil, 100); got != 0 {
		t.Errorf("expected 0 for empty boss list, got %v", got)
	}
}
