package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"raid-tracker/internal/apperrors"
	"raid-tracker/internal/config"
	"raid-tracker/internal/constants"
	"raid-tracker/internal/gamedata"

	"github.com/valyala/fasthttp"
)

// WarLogsClient talks to the game server's raid-log API. One log is one
// boss kill attempt; only kills that pass the pre-filter are fetched in
// full.
type WarLogsClient struct {
	baseURL     string
	apiKey      string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewWarLogsClient(cfg *config.Config) *WarLogsClient {
	return &WarLogsClient{
		baseURL: cfg.SourceBaseURL,
		apiKey:  cfg.SourceAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{
			Limit:     120,
			Remaining: 120,
			Reset:     60,
			UpdatedAt: time.Now(),
		},
	}
}

func (c *WarLogsClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *WarLogsClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// FetchNewLogs lists log summaries on a realm newer than lastLogID,
// fetches the full log for every summary passing the pre-filter, and
// returns the new watermark for the realm.
func (c *WarLogsClient) FetchNewLogs(ctx context.Context, realm string, lastLogID string) ([]RawKillLog, string, error) {
	url := fmt.Sprintf("%s/api/logs?realm=%s&since_id=%s", c.baseURL, realm, lastLogID)
	list, err := doRequest[LogListResponse](ctx, c, url)
	if err != nil {
		return nil, lastLogID, err
	}

	newLast := lastLogID
	logs := make([]RawKillLog, 0, len(list.Logs))
	for _, summary := range list.Logs {
		newLast = summary.ID
		if !prefilter(summary) {
			continue
		}
		full, err := c.FetchFullLog(ctx, summary.ID, realm)
		if err != nil {
			return nil, lastLogID, err
		}
		logs = append(logs, *full)
	}
	return logs, newLast, nil
}

// FetchFullLog retrieves one complete kill log.
func (c *WarLogsClient) FetchFullLog(ctx context.Context, logID, realm string) (*RawKillLog, error) {
	url := fmt.Sprintf("%s/api/log/%s?realm=%s", c.baseURL, logID, realm)
	resp, err := doRequest[LogResponse](ctx, c, url)
	if err != nil {
		return nil, err
	}
	return &resp.Log, nil
}

// GetGuild looks up a guild by id; ErrNotFound means the guild no longer
// exists on the server.
func (c *WarLogsClient) GetGuild(ctx context.Context, guildID int64, realm string) (*RawGuild, error) {
	url := fmt.Sprintf("%s/api/guild/%d?realm=%s", c.baseURL, guildID, realm)
	resp, err := doRequest[GuildResponse](ctx, c, url)
	if err != nil {
		return nil, err
	}
	return &resp.Guild, nil
}

// prefilter is the cheap summary-level filter: known raid, tracked
// difficulty, minimum fight duration, and an actual kill.
func prefilter(s LogSummary) bool {
	if !s.Kill {
		return false
	}
	if s.DurationMs < constants.MinFightDurationMs {
		return false
	}
	if !gamedata.ValidDifficulty(s.Difficulty) {
		return false
	}
	if _, _, ok := gamedata.RaidForEncounter(s.EncounterID); !ok {
		return false
	}
	return true
}

func doRequest[T any](ctx context.Context, client *WarLogsClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if client.apiKey != "" {
		req.Header.Set("Authorization", client.apiKey)
	}

	var err error
	deadline, ok := ctx.Deadline()
	if ok {
		err = client.client.DoDeadline(req, resp, deadline)
	} else {
		err = client.client.Do(req, resp)
	}
	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrSourceTimeout, url)
		}
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSourceUnavailable, err)
	}

	client.updateRateLimit(resp)

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, apperrors.ErrNotFound
	default:
		return nil, fmt.Errorf("%w: status %d", apperrors.ErrSourceUnavailable, resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type LogListResponse struct {
	Status int          `json:"status"`
	Logs   []LogSummary `json:"data"`
}

type LogSummary struct {
	ID          string `json:"id"`
	EncounterID int    `json:"encounter_id"`
	Difficulty  int    `json:"difficulty"`
	Kill        bool   `json:"kill"`
	DurationMs  int64  `json:"duration_ms"`
}

type LogResponse struct {
	Status int        `json:"status"`
	Log    RawKillLog `json:"data"`
}

// RawKillLog is one boss kill exactly as the game server reports it.
type RawKillLog struct {
	ID          string    `json:"id"`
	Realm       string    `json:"realm"`
	EncounterID int       `json:"encounter_id"`
	Difficulty  int       `json:"difficulty"`
	KilledAt    time.Time `json:"killed_at"`
	DurationMs  int64     `json:"duration_ms"`

	Guild struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		// -1 when the server does not resolve a guild faction.
		Faction int `json:"faction"`
	} `json:"guild"`

	Participants []RawParticipant `json:"participants"`
}

type RawParticipant struct {
	Name       string `json:"name"`
	Realm      string `json:"realm"`
	Race       int    `json:"race"`
	Class      int    `json:"class"`
	Spec       int    `json:"spec"`
	ItemLevel  int    `json:"item_level"`
	DamageDone int64  `json:"damage_done"`
	HealDone   int64  `json:"heal_done"`
	AbsorbDone int64  `json:"absorb_done"`
}

type GuildResponse struct {
	Status int      `json:"status"`
	Guild  RawGuild `json:"data"`
}

type RawGuild struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Realm   string   `json:"realm"`
	Faction int      `json:"faction"`
	Members []string `json:"members"`
}
