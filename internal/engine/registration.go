package engine

import (
	"context"
	"errors"
	"time"

	"github.com/ZJUSCT/arena/internal/arena"
	"github.com/ZJUSCT/arena/internal/database"
	"github.com/ZJUSCT/arena/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Registration struct {
	AttemptID            string    `json:"attempt_id"`
	AssignedProblemTitle string    `json:"assigned_problem_title"`
	RegistrationTime     time.Time `json:"registration_time"`
}

// Register signs a user up for a contest and assigns one problem of the
// contest at random. A user can hold at most one attempt per contest.
func (s *Service) Register(ctx context.Context, contestID, userID string) (*Registration, error) {
	db := s.db.WithContext(ctx)
	contest, err := contestByID(db, contestID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !now.Before(contest.RegistrationDeadline) {
		return nil, arena.ErrRegistrationClosed
	}
	if _, err := attemptOf(db, contest.ID, userID); err == nil {
		return nil, arena.ErrAlreadyRegistered
	} else if !errors.Is(err, arena.ErrAttemptNotFound) {
		return nil, err
	}
	if len(contest.ProblemIDs) == 0 {
		return nil, arena.ErrProblemNotFound
	}

	problemID := contest.ProblemIDs[s.pick(len(contest.ProblemIDs))]
	problem, err := s.findProblem(problemID)
	if err != nil {
		return nil, err
	}

	attempt := arena.NewAttempt(uuid.New().String(), contest.ID, userID, problemID, now)
	if err := database.CreateAttempt(db, &attempt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, arena.ErrAlreadyRegistered
		}
		return nil, err
	}

	metrics.Registrations.Inc()
	zap.S().Infof("user %s registered for contest %d, assigned problem %s", userID, contest.Number, problemID)
	return &Registration{
		AttemptID:            attempt.ID,
		AssignedProblemTitle: problem.Title,
		RegistrationTime:     attempt.RegistrationTime,
	}, nil
}
