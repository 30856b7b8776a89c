// Package scheduler runs the periodic update and guild-refresh jobs.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"raid-tracker/internal/apperrors"
	"raid-tracker/internal/config"
	"raid-tracker/internal/constants"
	"raid-tracker/internal/service"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog"
)

// Scheduler owns the two recurring jobs. Both are singleton jobs: a
// tick that fires while the previous run is still going is skipped, and
// the services' own single-flight guard catches manual overlap too.
type Scheduler struct {
	sched     gocron.Scheduler
	updater   *service.UpdateOrchestrator
	refresher *service.GuildRefresher
	cfg       *config.Config
	logger    zerolog.Logger

	mu          sync.Mutex
	lastUpdate  time.Time
	lastRefresh time.Time
}

func New(
	cfg *config.Config,
	updater *service.UpdateOrchestrator,
	refresher *service.GuildRefresher,
	logger zerolog.Logger,
) (*Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	return &Scheduler{
		sched:     sched,
		updater:   updater,
		refresher: refresher,
		cfg:       cfg,
		logger:    logger,
	}, nil
}

// Start registers the jobs and begins the tick loop. The first update
// fires immediately so a fresh deployment has data before the first
// interval elapses.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.sched.NewJob(
		gocron.DurationJob(s.cfg.UpdateInterval),
		gocron.NewTask(func() { s.runUpdate(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}

	_, err = s.sched.NewJob(
		gocron.DurationJob(s.cfg.GuildRefreshInterval),
		gocron.NewTask(func() { s.runGuildRefresh(ctx) }),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return err
	}

	s.sched.Start()
	s.logger.Info().
		Dur("update_interval", s.cfg.UpdateInterval).
		Dur("guild_refresh_interval", s.cfg.GuildRefreshInterval).
		Msg("scheduler started")
	return nil
}

func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}

// due reports whether enough time passed since the last completed run.
// Rescheduled ticks can land almost back to back after a long run; this
// keeps two runs from executing within the minimum gap.
func (s *Scheduler) due(last *time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(*last) < constants.SchedulerMinDelay {
		return false
	}
	*last = time.Now()
	return true
}

func (s *Scheduler) runUpdate(ctx context.Context) {
	if !s.due(&s.lastUpdate) {
		s.logger.Debug().Msg("update tick arrived too soon, skipping")
		return
	}
	err := s.updater.RunUpdate(ctx)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrAlreadyUpdating):
		s.logger.Debug().Msg("update tick skipped, cycle already running")
	default:
		var cycleErr *apperrors.CycleError
		if errors.As(err, &cycleErr) {
			s.logger.Error().Err(cycleErr.Err).Str("state", string(cycleErr.State)).Msg("scheduled update failed")
			return
		}
		s.logger.Error().Err(err).Msg("scheduled update failed")
	}
}

func (s *Scheduler) runGuildRefresh(ctx context.Context) {
	if !s.due(&s.lastRefresh) {
		s.logger.Debug().Msg("guild refresh tick arrived too soon, skipping")
		return
	}
	err := s.refresher.Refresh(ctx)
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrAlreadyUpdating):
		s.logger.Debug().Msg("guild refresh skipped, update cycle running")
	default:
		s.logger.Error().Err(err).Msg("scheduled guild refresh failed")
	}
}
