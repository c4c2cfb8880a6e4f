package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/ZJUSCT/arena/internal/arena"
	"github.com/ZJUSCT/arena/internal/database"
	"github.com/ZJUSCT/arena/internal/database/models"
	"github.com/ZJUSCT/arena/internal/metrics"
	"go.uber.org/zap"
)

const defaultSchedulerInterval = 15 * time.Second

// Scheduler keeps stored contest states in step with the clock and starts
// the reward payout once a contest has ended.
type Scheduler struct {
	svc      *Service
	interval time.Duration
}

type PassSummary struct {
	Visited      int `json:"visited"`
	Transitioned int `json:"transitioned"`
	Distributed  int `json:"distributed"`
	Failed       int `json:"failed"`
}

func NewScheduler(svc *Service, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultSchedulerInterval
	}
	return &Scheduler{svc: svc, interval: interval}
}

// Run makes one pass immediately and then one per interval until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	zap.S().Infof("lifecycle scheduler started, interval %s", s.interval)
	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			zap.S().Info("lifecycle scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce evaluates every contest that has not published results. A failure
// on one contest is logged and does not stop the others.
func (s *Scheduler) RunOnce(ctx context.Context) PassSummary {
	var summary PassSummary
	contests, err := database.GetSchedulableContests(s.svc.db.WithContext(ctx))
	if err != nil {
		zap.S().Errorf("failed to load contests for lifecycle pass: %v", err)
		metrics.SchedulerFailures.Inc()
		summary.Failed++
		return summary
	}

	for i := range contests {
		if ctx.Err() != nil {
			break
		}
		summary.Visited++
		transitioned, distributed, err := s.evaluate(ctx, contests[i])
		if err != nil {
			zap.S().Errorf("lifecycle pass failed for contest %d (%s): %v", contests[i].Number, contests[i].ID, err)
			metrics.SchedulerFailures.Inc()
			summary.Failed++
		}
		if transitioned {
			summary.Transitioned++
		}
		if distributed {
			summary.Distributed++
		}
	}
	return summary
}

func (s *Scheduler) evaluate(ctx context.Context, contest models.Contest) (transitioned, distributed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	derived := arena.DeriveState(contest, s.svc.now())
	if derived != contest.State {
		ok, err := database.TransitionContestState(s.svc.db.WithContext(ctx), contest.ID, contest.State, derived)
		if err != nil {
			return false, false, err
		}
		if ok {
			transitioned = true
			metrics.StateTransitions.WithLabelValues(string(derived)).Inc()
			zap.S().Infof("contest %d: %s -> %s", contest.Number, contest.State, derived)
		}
	}

	// Also covers contests left ENDED by an earlier failed payout.
	if derived != models.StateEnded {
		return transitioned, false, nil
	}
	result, err := s.svc.DistributeRewards(ctx, contest.ID)
	if err != nil {
		return transitioned, false, err
	}
	return transitioned, result.Distributed, nil
}
