package arena

import (
	"fmt"
	"time"

	"github.com/ZJUSCT/arena/internal/database/models"
)

// LimitSeconds is the per-attempt time budget of a contest.
func LimitSeconds(c models.Contest) int64 {
	return int64(c.ProblemTimeLimit) * 60
}

// ElapsedSeconds is the whole seconds since the attempt started, 0 if it has not.
func ElapsedSeconds(a models.Attempt, now time.Time) int64 {
	if a.StartTime == nil {
		return 0
	}
	return max(0, int64(now.Sub(*a.StartTime)/time.Second))
}

// RemainingSeconds returns the full limit for an attempt that has not started.
func RemainingSeconds(a models.Attempt, c models.Contest, now time.Time) int64 {
	limit := LimitSeconds(c)
	if a.StartTime == nil {
		return limit
	}
	return max(0, limit-ElapsedSeconds(a, now))
}

// HasExceededLimit must be checked before any new submission is accepted.
func HasExceededLimit(a models.Attempt, c models.Contest, now time.Time) bool {
	if a.Status != models.AttemptInProgress || a.StartTime == nil {
		return false
	}
	return ElapsedSeconds(a, now) >= LimitSeconds(c)
}

// FormatElapsed renders seconds as HH:MM:SS.
func FormatElapsed(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}
