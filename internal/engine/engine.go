// Package engine implements the contest use cases on top of the pure arena
// rules: registration, problem sessions, submissions, leaderboards, reward
// payouts and the lifecycle scheduler.
package engine

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/ZJUSCT/arena/internal/arena"
	"github.com/ZJUSCT/arena/internal/catalog"
	"github.com/ZJUSCT/arena/internal/database"
	"github.com/ZJUSCT/arena/internal/database/models"
	"github.com/ZJUSCT/arena/internal/judger"

	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

const defaultWriteRetries = 5

// Ledger is the currency store rewards are paid into.
type Ledger interface {
	Credit(tx *gorm.DB, userID string, amount int64, reason, tag, reference string) (*models.CoinTransaction, error)
	Balance(db *gorm.DB, userID string) (int64, error)
	HasReference(db *gorm.DB, reference string) (bool, error)
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithPicker replaces the uniform random problem picker. pick(n) must
// return a value in [0, n).
func WithPicker(pick func(n int) int) Option {
	return func(s *Service) { s.pick = pick }
}

func WithWriteRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retries = n
		}
	}
}

type Service struct {
	db       *gorm.DB
	problems catalog.Catalog
	judge    judger.Judge
	ledger   Ledger

	now     func() time.Time
	pick    func(n int) int
	retries int

	payouts singleflight.Group
}

func New(db *gorm.DB, problems catalog.Catalog, judge judger.Judge, ledger Ledger, opts ...Option) *Service {
	s := &Service{
		db:       db,
		problems: problems,
		judge:    judge,
		ledger:   ledger,
		now:      time.Now,
		pick:     rand.Intn,
		retries:  defaultWriteRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Balance is the coin balance of a user.
func (s *Service) Balance(ctx context.Context, userID string) (int64, error) {
	return s.ledger.Balance(s.db.WithContext(ctx), userID)
}

func contestByID(db *gorm.DB, id string) (*models.Contest, error) {
	contest, err := database.GetContestByID(db, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, arena.ErrContestNotFound
	}
	return contest, err
}

func contestByNumber(db *gorm.DB, number int) (*models.Contest, error) {
	contest, err := database.GetContestByNumber(db, number)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, arena.ErrContestNotFound
	}
	return contest, err
}

func attemptOf(db *gorm.DB, contestID, userID string) (*models.Attempt, error) {
	attempt, err := database.GetAttempt(db, contestID, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, arena.ErrAttemptNotFound
	}
	return attempt, err
}

func (s *Service) findProblem(id string) (*catalog.Problem, error) {
	problem, err := s.problems.FindByID(id)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, arena.ErrProblemNotFound
	}
	return problem, err
}

// attemptMutation returns the next attempt, whether it differs from the
// input, and a rejection to report once the change has been stored.
type attemptMutation func(a models.Attempt) (models.Attempt, bool, error)

// updateAttempt applies fn to a fresh read of the attempt and stores the
// result guarded by its version, re-reading and re-applying when another
// writer got in first. Ranks of the contest are refreshed in the same
// transaction as every stored change.
func (s *Service) updateAttempt(db *gorm.DB, contestID, userID string, fn attemptMutation) (*models.Attempt, error) {
	for i := 0; i < s.retries; i++ {
		var (
			stored    *models.Attempt
			rejection error
		)
		err := db.Transaction(func(tx *gorm.DB) error {
			current, err := attemptOf(tx, contestID, userID)
			if err != nil {
				return err
			}
			next, changed, fnErr := fn(*current)
			rejection = fnErr
			if !changed {
				stored = current
				return nil
			}
			ok, err := database.SaveAttempt(tx, &next)
			if err != nil || !ok {
				return err
			}
			if err := database.RefreshContestRanks(tx, contestID); err != nil {
				return err
			}
			stored, err = database.GetAttemptByID(tx, next.ID)
			return err
		})
		if err != nil {
			return nil, err
		}
		if stored != nil {
			return stored, rejection
		}
	}
	return nil, arena.ErrWriteConflict
}
