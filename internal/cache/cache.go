// Package cache is the strict-accelerator cache collaborator: all data
// it holds is recoverable from the store.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache is the read-through cache contract the service layer consumes.
type Cache interface {
	// Get unmarshals the cached value into out and reports a hit.
	Get(ctx context.Context, key string, out interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// View key prefixes. Invalidation after a cycle targets exactly the
// entities the cycle touched.
const (
	KeyRaidSummary = "view:raid_summary"
	KeyBossPrefix  = "view:boss:"
	KeyGuildList   = "view:guilds"
	KeyLeaderboard = "view:leaderboard:"
)

func BossKey(encounterID, difficulty int) string {
	return fmt.Sprintf("%s%d:%d", KeyBossPrefix, encounterID, difficulty)
}

func LeaderboardKey(raid string, difficulty int, metric string) string {
	return fmt.Sprintf("%s%s:%d:%s", KeyLeaderboard, raid, difficulty, metric)
}
