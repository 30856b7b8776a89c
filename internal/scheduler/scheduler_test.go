package scheduler

import (
	"testing"
	"time"

	"raid-tracker/internal/constants"
)

func TestDue_EnforcesMinDelayBetweenRuns(t *testing.T) {
	s := &Scheduler{}
	s.lastUpdate = time.Now().Add(-2 * constants.SchedulerMinDelay)

	if !s.due(&s.lastUpdate) {
		t.Fatal("expected the first tick after the delay window to run")
	}
	if s.due(&s.lastUpdate) {
		t.Fatal("expected a tick inside the delay window to be skipped")
	}

	// Each job keeps its own clock, so a skipped update must not hold
	// back the refresh.
	s.lastRefresh = time.Now().Add(-2 * constants.SchedulerMinDelay)
	if !s.due(&s.lastRefresh) {
		t.Fatal("expected the refresh clock to be independent of the update clock")
	}

	s.lastUpdate = time.Now().Add(-constants.SchedulerMinDelay - time.Second)
	if !s.due(&s.lastUpdate) {
		t.Fatal("expected a tick after the window reopens to run")
	}
}
