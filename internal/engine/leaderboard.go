package engine

import (
	"context"
	"errors"

	"github.com/ZJUSCT/arena/internal/arena"
	"github.com/ZJUSCT/arena/internal/database"
	"github.com/ZJUSCT/arena/internal/database/models"
)

type LeaderboardEntry struct {
	Rank           int                  `json:"rank"`
	UserID         string               `json:"user_id"`
	DisplayName    string               `json:"display_name"`
	Score          int                  `json:"score"`
	ElapsedSeconds int64                `json:"elapsed_seconds"`
	Elapsed        string               `json:"elapsed"`
	AttemptCount   int                  `json:"attempt_count"`
	Status         models.AttemptStatus `json:"status"`
	CoinsEarned    int64                `json:"coins_earned"`
}

type Leaderboard struct {
	ContestID         string              `json:"contest_id"`
	ContestNumber     int                 `json:"contest_number"`
	State             models.ContestState `json:"state"`
	Rankings          []LeaderboardEntry  `json:"rankings"`
	TotalParticipants int64               `json:"total_participants"`
	UserRank          *int                `json:"user_rank,omitempty"`
}

// GetLeaderboard ranks every started attempt of a contest. When userID is
// set and that user has a ranked attempt, UserRank is filled in as well.
func (s *Service) GetLeaderboard(ctx context.Context, contestNumber int, userID string) (*Leaderboard, error) {
	db := s.db.WithContext(ctx)
	contest, err := contestByNumber(db, contestNumber)
	if err != nil {
		return nil, err
	}

	rows, err := database.GetLeaderboardRows(db, contest.ID)
	if err != nil {
		return nil, err
	}
	byAttempt := make(map[string]database.LeaderboardRow, len(rows))
	standings := make([]arena.Standing, 0, len(rows))
	for _, row := range rows {
		byAttempt[row.ID] = row
		standings = append(standings, arena.StandingOf(row.Attempt))
	}

	rankings := make([]LeaderboardEntry, 0, len(rows))
	for _, r := range arena.Rank(standings) {
		row := byAttempt[r.AttemptID]
		rankings = append(rankings, LeaderboardEntry{
			Rank:           r.Rank,
			UserID:         row.UserID,
			DisplayName:    displayName(row),
			Score:          row.TotalScore,
			ElapsedSeconds: row.ElapsedSeconds,
			Elapsed:        arena.FormatElapsed(row.ElapsedSeconds),
			AttemptCount:   len(row.Submissions),
			Status:         row.Status,
			CoinsEarned:    row.CoinsEarned,
		})
	}

	total, err := database.CountParticipants(db, contest.ID)
	if err != nil {
		return nil, err
	}
	board := &Leaderboard{
		ContestID:         contest.ID,
		ContestNumber:     contest.Number,
		State:             arena.EffectiveState(*contest, s.now()),
		Rankings:          rankings,
		TotalParticipants: total,
	}

	if userID != "" {
		rank, err := s.userRank(ctx, contest.ID, userID)
		if err != nil {
			return nil, err
		}
		board.UserRank = rank
	}
	return board, nil
}

// userRank is one plus the number of ranked attempts strictly ahead of the
// user's, or nil if the user has nothing on the board.
func (s *Service) userRank(ctx context.Context, contestID, userID string) (*int, error) {
	db := s.db.WithContext(ctx)
	attempt, err := attemptOf(db, contestID, userID)
	if errors.Is(err, arena.ErrAttemptNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !arena.Rankable(attempt.Status) {
		return nil, nil
	}
	ahead, err := database.CountOutranking(db, contestID, attempt.TotalScore, attempt.ElapsedSeconds)
	if err != nil {
		return nil, err
	}
	rank := int(ahead) + 1
	return &rank, nil
}

func displayName(row database.LeaderboardRow) string {
	switch {
	case row.Nickname != "":
		return row.Nickname
	case row.Username != "":
		return row.Username
	default:
		return row.UserID
	}
}
