package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZJUSCT/arena/internal/arena"
	"github.com/ZJUSCT/arena/internal/catalog"
	"github.com/ZJUSCT/arena/internal/database/models"
	"github.com/ZJUSCT/arena/internal/judger"
	"github.com/ZJUSCT/arena/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type StartResult struct {
	AttemptID        string               `json:"attempt_id"`
	Status           models.AttemptStatus `json:"status"`
	StartTime        *time.Time           `json:"start_time"`
	RemainingSeconds int64                `json:"remaining_seconds"`
	Problem          *catalog.Problem     `json:"problem"`
}

type TimerView struct {
	AttemptID               string               `json:"attempt_id"`
	Status                  models.AttemptStatus `json:"status"`
	StartTime               *time.Time           `json:"start_time"`
	ElapsedSeconds          int64                `json:"elapsed_seconds"`
	RemainingSeconds        int64                `json:"remaining_seconds"`
	ContestState            models.ContestState  `json:"contest_state"`
	ContestRemainingSeconds int64                `json:"contest_remaining_seconds"`
}

type SubmitResult struct {
	SubmissionID   string `json:"submission_id"`
	IsCorrect      bool   `json:"is_correct"`
	Verdict        string `json:"verdict"`
	AttemptNumber  int    `json:"attempt_number"`
	PenaltyApplied int    `json:"penalty_applied"`
	TotalScore     int    `json:"total_score"`
	Rank           *int   `json:"rank,omitempty"`
	Message        string `json:"message"`
}

// expireIfDue closes an attempt whose problem time limit has run out.
func expireIfDue(c models.Contest, now time.Time) attemptMutation {
	return func(a models.Attempt) (models.Attempt, bool, error) {
		if !arena.HasExceededLimit(a, c, now) {
			return a, false, nil
		}
		return arena.ExpireAttempt(a, c, now), true, nil
	}
}

// StartProblem starts the clock on the caller's assigned problem and returns
// its statement. Calling it again returns the running timer unchanged.
func (s *Service) StartProblem(ctx context.Context, contestNumber int, userID string) (*StartResult, error) {
	db := s.db.WithContext(ctx)
	contest, err := contestByNumber(db, contestNumber)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if arena.EffectiveState(*contest, now) != models.StateActive {
		return nil, arena.ErrContestNotActive
	}

	var started bool
	attempt, err := s.updateAttempt(db, contest.ID, userID, func(a models.Attempt) (models.Attempt, bool, error) {
		next, changed := arena.StartAttempt(a, now)
		started = changed
		if changed {
			return next, true, nil
		}
		return expireIfDue(*contest, now)(a)
	})
	if err != nil {
		return nil, err
	}

	problem, err := s.findProblem(attempt.ProblemID)
	if err != nil {
		return nil, err
	}
	if started {
		zap.S().Infof("user %s started problem %s in contest %d", userID, attempt.ProblemID, contest.Number)
	}
	return &StartResult{
		AttemptID:        attempt.ID,
		Status:           attempt.Status,
		StartTime:        attempt.StartTime,
		RemainingSeconds: arena.RemainingSeconds(*attempt, *contest, now),
		Problem:          problem,
	}, nil
}

// Timer reports the caller's attempt clock and the contest clock.
func (s *Service) Timer(ctx context.Context, contestNumber int, userID string) (*TimerView, error) {
	db := s.db.WithContext(ctx)
	contest, err := contestByNumber(db, contestNumber)
	if err != nil {
		return nil, err
	}
	now := s.now()
	attempt, err := s.updateAttempt(db, contest.ID, userID, expireIfDue(*contest, now))
	if err != nil {
		return nil, err
	}

	elapsed := arena.ElapsedSeconds(*attempt, now)
	if attempt.Status == models.AttemptCompleted || attempt.Status == models.AttemptTimeUp {
		elapsed = attempt.ElapsedSeconds
	}
	return &TimerView{
		AttemptID:               attempt.ID,
		Status:                  attempt.Status,
		StartTime:               attempt.StartTime,
		ElapsedSeconds:          elapsed,
		RemainingSeconds:        arena.RemainingSeconds(*attempt, *contest, now),
		ContestState:            arena.EffectiveState(*contest, now),
		ContestRemainingSeconds: arena.ContestRemainingSeconds(*contest, now),
	}, nil
}

// SubmitSolution judges a submission and scores it against the caller's
// attempt. The submission is timed when it is received; the judge runs
// outside any transaction and the result is applied with a version check.
func (s *Service) SubmitSolution(ctx context.Context, contestNumber int, sourceCode, languageID, userID string) (*SubmitResult, error) {
	db := s.db.WithContext(ctx)
	contest, err := contestByNumber(db, contestNumber)
	if err != nil {
		return nil, err
	}
	receivedAt := s.now()

	attempt, err := attemptOf(db, contest.ID, userID)
	if err != nil {
		return nil, err
	}
	if err := arena.CheckSubmission(*attempt, *contest, receivedAt); err != nil {
		return nil, s.reject(db, contest, userID, receivedAt, err)
	}

	started := time.Now()
	verdict, err := s.judge.Execute(ctx, attempt.ProblemID, sourceCode, languageID)
	metrics.JudgeLatency.Observe(time.Since(started).Seconds())
	if err != nil {
		if errors.Is(err, judger.ErrUnsupportedLanguage) {
			return nil, fmt.Errorf("%w: %v", arena.ErrValidation, err)
		}
		zap.S().Errorf("judge failed for user %s in contest %d: %v", userID, contest.Number, err)
		return nil, fmt.Errorf("%w: %v", arena.ErrJudgeUnavailable, err)
	}

	outcome := arena.Outcome{
		SubmissionID: verdict.SubmissionID,
		IsCorrect:    verdict.Accepted(),
		Verdict:      verdict.Status,
	}
	if outcome.SubmissionID == "" {
		outcome.SubmissionID = uuid.New().String()
	}

	var sub models.Submission
	stored, err := s.updateAttempt(db, contest.ID, userID, func(a models.Attempt) (models.Attempt, bool, error) {
		next, applied, err := arena.ApplySubmission(a, *contest, outcome, receivedAt)
		if errors.Is(err, arena.ErrTimeLimitExceeded) {
			return arena.ExpireAttempt(a, *contest, receivedAt), true, err
		}
		if err != nil {
			return a, false, err
		}
		sub = applied
		return next, true, nil
	})
	if err != nil {
		metrics.SubmissionRejections.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	result := "wrong"
	if sub.IsCorrect {
		result = "correct"
	}
	metrics.Submissions.WithLabelValues(result).Inc()
	zap.S().Infof("user %s submission #%d in contest %d: %s, score %d",
		userID, sub.AttemptNumber, contest.Number, sub.Verdict, stored.TotalScore)

	return &SubmitResult{
		SubmissionID:   sub.SubmissionID,
		IsCorrect:      sub.IsCorrect,
		Verdict:        sub.Verdict,
		AttemptNumber:  sub.AttemptNumber,
		PenaltyApplied: sub.PenaltyApplied,
		TotalScore:     stored.TotalScore,
		Rank:           stored.Rank,
		Message:        submitMessage(sub, stored.TotalScore),
	}, nil
}

// reject records a rejected submission. A time-limit rejection also closes
// the attempt as TIME_UP.
func (s *Service) reject(db *gorm.DB, contest *models.Contest, userID string, at time.Time, cause error) error {
	metrics.SubmissionRejections.WithLabelValues(rejectionReason(cause)).Inc()
	if !errors.Is(cause, arena.ErrTimeLimitExceeded) {
		return cause
	}
	if _, err := s.updateAttempt(db, contest.ID, userID, expireIfDue(*contest, at)); err != nil {
		return err
	}
	return cause
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, arena.ErrContestNotActive):
		return "contest_not_active"
	case errors.Is(err, arena.ErrAttemptClosed):
		return "attempt_closed"
	case errors.Is(err, arena.ErrProblemNotStarted):
		return "not_started"
	case errors.Is(err, arena.ErrMaxAttempts):
		return "max_attempts"
	case errors.Is(err, arena.ErrTimeLimitExceeded):
		return "time_limit"
	case errors.Is(err, arena.ErrWriteConflict):
		return "write_conflict"
	default:
		return "other"
	}
}

func submitMessage(sub models.Submission, total int) string {
	if sub.IsCorrect {
		return fmt.Sprintf("Accepted on attempt %d. Total score: %d", sub.AttemptNumber, total)
	}
	return fmt.Sprintf("%s. Penalty applied: %d, total score: %d", sub.Verdict, sub.PenaltyApplied, total)
}
