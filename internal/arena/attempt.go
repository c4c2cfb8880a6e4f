package arena

import (
	"slices"
	"time"

	"github.com/ZJUSCT/arena/internal/database/models"
)

// Outcome is what the judge decided about one submission.
type Outcome struct {
	SubmissionID string
	IsCorrect    bool
	Verdict      string
}

// NewAttempt is the REGISTERED attempt created at registration.
func NewAttempt(id, contestID, userID, problemID string, now time.Time) models.Attempt {
	return models.Attempt{
		ID:               id,
		ContestID:        contestID,
		UserID:           userID,
		ProblemID:        problemID,
		RegistrationTime: now,
		Status:           models.AttemptRegistered,
	}
}

// StartAttempt moves a REGISTERED attempt to IN_PROGRESS. Any other attempt
// is returned unchanged with changed=false, which makes the call idempotent.
func StartAttempt(a models.Attempt, now time.Time) (next models.Attempt, changed bool) {
	if a.Status != models.AttemptRegistered || a.StartTime != nil {
		return a, false
	}
	started := now
	a.StartTime = &started
	a.Status = models.AttemptInProgress
	a.ElapsedSeconds = 0
	return a, true
}

// ExpireAttempt force-closes an IN_PROGRESS attempt whose time ran out.
// Elapsed time is pinned to the limit so rankings do not keep drifting.
func ExpireAttempt(a models.Attempt, c models.Contest, now time.Time) models.Attempt {
	if a.Status != models.AttemptInProgress {
		return a
	}
	limit := LimitSeconds(c)
	end := now
	if a.StartTime != nil {
		end = a.StartTime.Add(time.Duration(limit) * time.Second)
	}
	a.Status = models.AttemptTimeUp
	a.EndTime = &end
	a.ElapsedSeconds = limit
	return a
}

// CheckSubmission runs every gate a submission must pass before it is judged
// and again before it is applied. ErrTimeLimitExceeded means the caller must
// persist ExpireAttempt.
func CheckSubmission(a models.Attempt, c models.Contest, now time.Time) error {
	if EffectiveState(c, now) != models.StateActive {
		return ErrContestNotActive
	}
	switch a.Status {
	case models.AttemptCompleted, models.AttemptTimeUp:
		return ErrAttemptClosed
	case models.AttemptRegistered:
		return ErrProblemNotStarted
	}
	if len(a.Submissions) >= c.MaxAttempts {
		return ErrMaxAttempts
	}
	if HasExceededLimit(a, c, now) {
		return ErrTimeLimitExceeded
	}
	return nil
}

// ApplySubmission appends a judged submission received at `at` and returns
// the new attempt. The input attempt is not modified.
func ApplySubmission(a models.Attempt, c models.Contest, o Outcome, at time.Time) (models.Attempt, models.Submission, error) {
	if err := CheckSubmission(a, c, at); err != nil {
		return a, models.Submission{}, err
	}

	sub := models.Submission{
		SubmissionID:  o.SubmissionID,
		SubmittedAt:   at,
		IsCorrect:     o.IsCorrect,
		Verdict:       o.Verdict,
		TimeTaken:     ElapsedSeconds(a, at),
		AttemptNumber: len(a.Submissions) + 1,
	}
	if sub.IsCorrect {
		sub.PenaltyApplied = AttemptPenalty(sub.AttemptNumber)
	} else {
		sub.PenaltyApplied = c.WrongSubmissionPenalty
	}

	next := a
	next.TotalScore = Score(a, c, sub)
	next.Submissions = append(slices.Clone(a.Submissions), sub)
	next.ElapsedSeconds = sub.TimeTaken
	if sub.IsCorrect {
		end := at
		next.Status = models.AttemptCompleted
		next.EndTime = &end
	}
	return next, sub, nil
}
