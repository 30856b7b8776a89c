package constants

import "time"

const (
	RaidSummaryCacheTTL = 10 * time.Minute
	BossDocCacheTTL     = 10 * time.Minute
	GuildListCacheTTL   = 15 * time.Minute
	LeaderboardCacheTTL = 10 * time.Minute
)

const (
	ExternalAPITimeout = 15 * time.Second
	DatabaseTimeout    = 10 * time.Second
	CommitTimeout      = 2 * time.Minute
)

const (
	FetchMaxAttempts  = 4
	FetchInitialDelay = 2 * time.Second
)

const (
	RecentKillsCap      = 50
	FastestKillsCap     = 50
	FirstKillsCap       = 3
	BestPerformersCap   = 10
	GuildFastestKillCap = 10
	GuildRecentKillsCap = 50
	GuildRecentKillsAge = 14 * 24 * time.Hour
)

const (
	// Minimum share of a difficulty-appropriate raid size that two kill
	// rosters must share to count as the same raid group.
	RaidGroupOverlap = 0.8

	LeaderboardMaxScore = 100.0
)

const (
	MinFightDurationMs = 10_000
	BulkWriteBatchSize = 500
)

const (
	ShutdownTimeout = 5 * time.Second

	// Minimum gap between two completed scheduler runs of the same job;
	// a tick arriving earlier is skipped.
	SchedulerMinDelay = time.Minute
)
