// Package arena holds the contest rules as pure functions over the persisted
// models: the lifecycle and attempt state machines, the session timer, the
// scoring formula and the ranking. Nothing here touches the database or the
// clock; callers pass `now` in.
package arena

import (
	"time"

	"github.com/ZJUSCT/arena/internal/database/models"
)

// DeriveState computes the time-derived lifecycle state of a contest.
// RESULTS_PUBLISHED is never derived; only the reward distributor enters it.
func DeriveState(c models.Contest, now time.Time) models.ContestState {
	switch {
	case now.Before(c.RegistrationDeadline):
		return models.StateRegistrationOpen
	case now.Before(c.StartTime):
		return models.StateUpcoming
	case now.Before(c.EndTime):
		return models.StateActive
	default:
		return models.StateEnded
	}
}

// EffectiveState is the state request paths act on: the stored terminal state
// wins, otherwise the state is derived from the clock so that requests do not
// lag behind the scheduler.
func EffectiveState(c models.Contest, now time.Time) models.ContestState {
	if c.State == models.StateResultsPublished {
		return c.State
	}
	return DeriveState(c, now)
}

// IsPreActive reports whether a state still allows admin edits.
func IsPreActive(s models.ContestState) bool {
	return s == models.StateRegistrationOpen || s == models.StateUpcoming
}

// ContestRemainingSeconds is the countdown shown for the contest itself:
// time until start before it begins, time until end while it runs, 0 after.
func ContestRemainingSeconds(c models.Contest, now time.Time) int64 {
	var d time.Duration
	switch {
	case now.Before(c.StartTime):
		d = c.StartTime.Sub(now)
	case now.Before(c.EndTime):
		d = c.EndTime.Sub(now)
	default:
		return 0
	}
	return max(0, int64(d/time.Second))
}
