package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"raid-tracker/internal/constants"

	lru "github.com/hashicorp/golang-lru"
)

// SummaryTier fronts the shared cache with a small in-process LRU for
// the hottest view documents. Values are held marshaled so both tiers
// share semantics. Rebuilds of the raid summary run under rebuildMu so a
// reader never observes a partially rebuilt summary.
type SummaryTier struct {
	backing Cache
	local   *lru.Cache

	rebuildMu sync.Mutex
}

type localEntry struct {
	data      []byte
	expiresAt time.Time
}

func NewSummaryTier(backing Cache) (*SummaryTier, error) {
	local, err := lru.New(256)
	if err != nil {
		return nil, err
	}
	return &SummaryTier{backing: backing, local: local}, nil
}

// Get checks the local tier first, then the shared cache. A shared-cache
// hit is promoted into the local tier.
func (t *SummaryTier) Get(ctx context.Context, key string, out interface{}) (bool, error) {
	if v, ok := t.local.Get(key); ok {
		entry := v.(localEntry)
		if entry.expiresAt.After(time.Now()) {
			return true, json.Unmarshal(entry.data, out)
		}
		t.local.Remove(key)
	}

	hit, err := t.backing.Get(ctx, key, out)
	if err != nil || !hit {
		return hit, err
	}
	if data, err := json.Marshal(out); err == nil {
		t.local.Add(key, localEntry{data: data, expiresAt: time.Now().Add(constants.RaidSummaryCacheTTL)})
	}
	return true, nil
}

// Set writes through both tiers.
func (t *SummaryTier) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := t.backing.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if data, err := json.Marshal(value); err == nil {
		t.local.Add(key, localEntry{data: data, expiresAt: time.Now().Add(ttl)})
	}
	return nil
}

// RebuildSummary replaces the raid-summary view atomically with respect
// to concurrent readers of this tier.
func (t *SummaryTier) RebuildSummary(ctx context.Context, build func(context.Context) (interface{}, error)) error {
	t.rebuildMu.Lock()
	defer t.rebuildMu.Unlock()

	summary, err := build(ctx)
	if err != nil {
		return err
	}
	return t.Set(ctx, KeyRaidSummary, summary, constants.RaidSummaryCacheTTL)
}

// Invalidate drops keys from both tiers.
func (t *SummaryTier) Invalidate(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		t.local.Remove(k)
	}
	return t.backing.Delete(ctx, keys...)
}
