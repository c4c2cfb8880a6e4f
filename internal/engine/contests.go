package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZJUSCT/arena/internal/arena"
	"github.com/ZJUSCT/arena/internal/database"
	"github.com/ZJUSCT/arena/internal/database/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ContestInput is the admin-supplied configuration of a contest.
type ContestInput struct {
	Title                  string              `json:"title"`
	Description            string              `json:"description"`
	ProblemIDs             []string            `json:"problem_ids"`
	StartTime              time.Time           `json:"start_time"`
	EndTime                time.Time           `json:"end_time"`
	RegistrationDeadline   time.Time           `json:"registration_deadline"`
	ProblemTimeLimit       int                 `json:"problem_time_limit"`
	MaxAttempts            int                 `json:"max_attempts"`
	WrongSubmissionPenalty int                 `json:"wrong_submission_penalty"`
	RewardTiers            []models.RewardTier `json:"reward_tiers"`
}

func (in ContestInput) apply(c *models.Contest) {
	c.Title = in.Title
	c.Description = in.Description
	c.ProblemIDs = in.ProblemIDs
	c.StartTime = in.StartTime
	c.EndTime = in.EndTime
	c.RegistrationDeadline = in.RegistrationDeadline
	c.ProblemTimeLimit = in.ProblemTimeLimit
	c.MaxAttempts = in.MaxAttempts
	c.WrongSubmissionPenalty = in.WrongSubmissionPenalty
	c.RewardTiers = in.RewardTiers
}

// validate checks the contest configuration and that every problem exists
// in the catalog.
func (s *Service) validate(c *models.Contest) error {
	if err := arena.ValidateContest(*c); err != nil {
		return err
	}
	for _, id := range c.ProblemIDs {
		if _, err := s.findProblem(id); err != nil {
			if errors.Is(err, arena.ErrProblemNotFound) {
				return fmt.Errorf("%w: unknown problem %q", arena.ErrValidation, id)
			}
			return err
		}
	}
	return nil
}

// CreateContest stores a new contest with its state derived from the clock.
func (s *Service) CreateContest(ctx context.Context, in ContestInput, adminID string) (*models.Contest, error) {
	contest := &models.Contest{ID: uuid.New().String(), CreatedBy: adminID}
	in.apply(contest)
	if err := s.validate(contest); err != nil {
		return nil, err
	}
	contest.State = arena.DeriveState(*contest, s.now())

	if err := database.CreateContest(s.db.WithContext(ctx), contest); err != nil {
		return nil, err
	}
	zap.S().Infof("contest %d (%s) created by %s, state %s", contest.Number, contest.ID, adminID, contest.State)
	return contest, nil
}

// UpdateContest replaces the configuration of a contest that has not
// started yet.
func (s *Service) UpdateContest(ctx context.Context, contestID string, in ContestInput) (*models.Contest, error) {
	db := s.db.WithContext(ctx)
	contest, err := contestByID(db, contestID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if !arena.IsPreActive(contest.State) || !arena.IsPreActive(arena.EffectiveState(*contest, now)) {
		return nil, arena.ErrContestNotEditable
	}

	in.apply(contest)
	if err := s.validate(contest); err != nil {
		return nil, err
	}
	contest.State = arena.DeriveState(*contest, now)

	ok, err := database.UpdateContestConfig(db, contest, []models.ContestState{models.StateUpcoming, models.StateRegistrationOpen})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, arena.ErrContestNotEditable
	}
	zap.S().Infof("contest %d (%s) updated", contest.Number, contest.ID)
	return contestByID(db, contestID)
}

// DeleteContest soft-deletes a contest along with its attempts.
func (s *Service) DeleteContest(ctx context.Context, contestID string) error {
	err := database.SoftDeleteContest(s.db.WithContext(ctx), contestID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return arena.ErrContestNotFound
	}
	if err != nil {
		return err
	}
	zap.S().Infof("contest %s deleted", contestID)
	return nil
}
