package cache

import (
	"context"
	"testing"
	"time"
)

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("set then get", func(t *testing.T) {
		c := NewMemoryCache()
		if err := c.Set(ctx, "k", payload{Name: "a", Count: 3}, time.Minute); err != nil {
			t.Fatalf("set failed: %v", err)
		}

		var out payload
		hit, err := c.Get(ctx, "k", &out)
		if err != nil || !hit {
			t.Fatalf("expected hit, got hit=%v err=%v", hit, err)
		}
		if out.Name != "a" || out.Count != 3 {
			t.Errorf("round trip corrupted value: %+v", out)
		}
	})

	t.Run("miss on unknown key", func(t *testing.T) {
		c := NewMemoryCache()
		var out payload
		hit, err := c.Get(ctx, "nope", &out)
		if err != nil || hit {
			t.Errorf("expected clean miss, got hit=%v err=%v", hit, err)
		}
	})

	t.Run("expired entry is a miss", func(t *testing.T) {
		c := NewMemoryCache()
		_ = c.Set(ctx, "k", payload{}, time.Nanosecond)
		time.Sleep(time.Millisecond)

		var out payload
		hit, _ := c.Get(ctx, "k", &out)
		if hit {
			t.Error("expired entry must not hit")
		}
	})

	t.Run("delete removes keys", func(t *testing.T) {
		c := NewMemoryCache()
		_ = c.Set(ctx, "a", payload{}, time.Minute)
		_ = c.Set(ctx, "b", payload{}, time.Minute)
		_ = c.Delete(ctx, "a", "b")

		var out payload
		if hit, _ := c.Get(ctx, "a", &out); hit {
			t.Error("deleted key must miss")
		}
	})
}

func TestSummaryTier(t *testing.T) {
	ctx := context.Background()

	t.Run("backing hit is promoted locally", func(t *testing.T) {
		backing := NewMemoryCache()
		tier, err := NewSummaryTier(backing)
		if err != nil {
			t.Fatal(err)
		}
		_ = backing.Set(ctx, "k", payload{Name: "shared"}, time.Minute)

		var out payload
		hit, err := tier.Get(ctx, "k", &out)
		if err != nil || !hit {
			t.Fatalf("expected backing hit, got hit=%v err=%v", hit, err)
		}

		// Drop the backing entry; the local tier must still serve it.
		_ = backing.Delete(ctx, "k")
		var again payload
		hit, _ = tier.Get(ctx, "k", &again)
		if !hit || again.Name != "shared" {
			t.Errorf("expected local promotion to serve, got hit=%v %+v", hit, again)
		}
	})

	t.Run("invalidate clears both tiers", func(t *testing.T) {
		backing := NewMemoryCache()
		tier, _ := NewSummaryTier(backing)
		_ = tier.Set(ctx, "k", payload{Name: "x"}, time.Minute)
		_ = tier.Invalidate(ctx, "k")

		var out payload
		if hit, _ := tier.Get(ctx, "k", &out); hit {
			t.Error("invalidated key must miss both tiers")
		}
	})

	t.Run("rebuild summary writes the view key", func(t *testing.T) {
		backing := NewMemoryCache()
		tier, _ := NewSummaryTier(backing)

		err := tier.RebuildSummary(ctx, func(context.Context) (interface{}, error) {
			return payload{Name: "summary"}, nil
		})
		if err != nil {
			t.Fatalf("rebuild failed: %v", err)
		}

		var out payload
		hit, _ := tier.Get(ctx, KeyRaidSummary, &out)
		if !hit || out.Name != "summary" {
			t.Errorf("expected rebuilt summary, got hit=%v %+v", hit, out)
		}
	})
}
