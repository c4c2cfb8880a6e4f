package engine

import (
	"context"
	"fmt"

	"github.com/ZJUSCT/arena/internal/arena"
	"github.com/ZJUSCT/arena/internal/database"
	"github.com/ZJUSCT/arena/internal/database/models"
	"github.com/ZJUSCT/arena/internal/metrics"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	reasonAlreadyDistributed = "already distributed"
	reasonNotEnded           = "contest has not ended"
)

type DistributionResult struct {
	Distributed       bool   `json:"distributed"`
	RewardsGiven      int    `json:"rewards_given"`
	CoinsAwarded      int64  `json:"coins_awarded"`
	TotalParticipants int    `json:"total_participants"`
	Reason            string `json:"reason,omitempty"`
}

// DistributeRewards pays the reward tiers of an ENDED contest to its ranked
// finishers and publishes the results. Concurrent calls for the same
// contest share one run, and a second run after success pays nothing.
func (s *Service) DistributeRewards(ctx context.Context, contestID string) (*DistributionResult, error) {
	v, err, _ := s.payouts.Do(contestID, func() (interface{}, error) {
		return s.distribute(ctx, contestID)
	})
	if err != nil {
		metrics.Payouts.WithLabelValues("failed").Inc()
		zap.S().Errorf("reward distribution for contest %s failed: %v", contestID, err)
		return nil, err
	}
	result := *v.(*DistributionResult)
	return &result, nil
}

// payoutTag identifies one user's reward for one contest in the ledger.
func payoutTag(contestID, userID string) string {
	return fmt.Sprintf("contest:%s:user:%s", contestID, userID)
}

func (s *Service) distribute(ctx context.Context, contestID string) (*DistributionResult, error) {
	result := &DistributionResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		contest, err := contestByID(tx, contestID)
		if err != nil {
			return err
		}
		switch contest.State {
		case models.StateEnded:
		case models.StateResultsPublished:
			result.Reason = reasonAlreadyDistributed
			return nil
		default:
			result.Reason = reasonNotEnded
			return nil
		}

		paid, err := s.ledger.HasReference(tx, contest.ID)
		if err != nil {
			return fmt.Errorf("%w: %v", arena.ErrLedgerFailure, err)
		}
		if paid {
			result.Reason = reasonAlreadyDistributed
			return nil
		}
		claimed, err := database.TransitionContestState(tx, contest.ID, models.StateEnded, models.StateResultsPublished)
		if err != nil {
			return err
		}
		if !claimed {
			result.Reason = reasonAlreadyDistributed
			return nil
		}

		finishers, err := database.GetAttemptsByStatus(tx, contest.ID, models.AttemptCompleted)
		if err != nil {
			return err
		}
		ranked := arena.RankAttempts(finishers)
		result.TotalParticipants = len(ranked)

		tiers := make(map[int]int64, len(contest.RewardTiers))
		for _, t := range contest.RewardTiers {
			tiers[t.Rank] = t.Coins
		}
		reason := fmt.Sprintf("Contest #%d reward: %s", contest.Number, contest.Title)
		for _, r := range ranked {
			coins := tiers[r.Rank]
			if coins <= 0 {
				continue
			}
			if _, err := s.ledger.Credit(tx, r.UserID, coins, reason, payoutTag(contest.ID, r.UserID), contest.ID); err != nil {
				return fmt.Errorf("%w: user %s: %v", arena.ErrLedgerFailure, r.UserID, err)
			}
			if err := database.SetAttemptReward(tx, r.AttemptID, coins); err != nil {
				return err
			}
			result.RewardsGiven++
			result.CoinsAwarded += coins
		}
		result.Distributed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Distributed {
		metrics.Payouts.WithLabelValues("distributed").Inc()
		metrics.PayoutCoins.Add(float64(result.CoinsAwarded))
		zap.S().Infof("contest %s results published: %d rewards, %d coins, %d finishers",
			contestID, result.RewardsGiven, result.CoinsAwarded, result.TotalParticipants)
	} else {
		metrics.Payouts.WithLabelValues("skipped").Inc()
	}
	return result, nil
}
