package database

import (
	"github.com/ZJUSCT/arena/internal/arena"
	"github.com/ZJUSCT/arena/internal/database/models"
	"gorm.io/gorm"
)

var rankableStatuses = []models.AttemptStatus{
	models.AttemptCompleted,
	models.AttemptTimeUp,
	models.AttemptInProgress,
}

// CreateAttempt inserts the attempt and the matching participant row in one
// transaction. Unique indexes on (contest, user) make a concurrent duplicate
// fail with gorm.ErrDuplicatedKey.
func CreateAttempt(db *gorm.DB, attempt *models.Attempt) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(attempt).Error; err != nil {
			return err
		}
		return tx.Create(&models.ContestParticipant{
			ContestID: attempt.ContestID,
			UserID:    attempt.UserID,
		}).Error
	})
}

func GetAttemptByID(db *gorm.DB, id string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := db.Where("id = ?", id).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func GetAttempt(db *gorm.DB, contestID, userID string) (*models.Attempt, error) {
	var attempt models.Attempt
	if err := db.Where("contest_id = ? AND user_id = ?", contestID, userID).First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func GetAttemptsByStatus(db *gorm.DB, contestID string, statuses ...models.AttemptStatus) ([]models.Attempt, error) {
	var attempts []models.Attempt
	if err := db.Where("contest_id = ? AND status IN ?", contestID, statuses).
		Order("registration_time asc").
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	return attempts, nil
}

// SaveAttempt writes the mutable fields of an attempt guarded by its version.
// It reports false, without error, if the stored version moved on.
func SaveAttempt(db *gorm.DB, attempt *models.Attempt) (bool, error) {
	expected := attempt.Version
	attempt.Version = expected + 1
	result := db.Model(attempt).
		Where("version = ?", expected).
		Select("start_time", "end_time", "submissions", "total_score", "elapsed_seconds",
			"rank", "coins_earned", "status", "version").
		Updates(attempt)
	if result.Error != nil {
		attempt.Version = expected
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		attempt.Version = expected
		return false, nil
	}
	return true, nil
}

// RefreshContestRanks re-ranks every rankable attempt of a contest and
// stores the ranks that changed. Rank is derived data, so it is written
// without bumping the attempt version.
func RefreshContestRanks(db *gorm.DB, contestID string) error {
	attempts, err := GetAttemptsByStatus(db, contestID, rankableStatuses...)
	if err != nil {
		return err
	}
	current := make(map[string]*int, len(attempts))
	for _, a := range attempts {
		current[a.ID] = a.Rank
	}
	for _, r := range arena.RankAttempts(attempts) {
		if old := current[r.AttemptID]; old != nil && *old == r.Rank {
			continue
		}
		if err := db.Model(&models.Attempt{}).
			Where("id = ?", r.AttemptID).
			UpdateColumn("rank", r.Rank).Error; err != nil {
			return err
		}
	}
	return nil
}

// SetAttemptReward records the coins paid out for an attempt.
func SetAttemptReward(db *gorm.DB, attemptID string, coins int64) error {
	return db.Model(&models.Attempt{}).
		Where("id = ?", attemptID).
		UpdateColumn("coins_earned", coins).Error
}

// CountOutranking counts rankable attempts strictly ahead of (score, elapsed).
func CountOutranking(db *gorm.DB, contestID string, score int, elapsed int64) (int64, error) {
	var count int64
	err := db.Model(&models.Attempt{}).
		Where("contest_id = ? AND status IN ?", contestID, rankableStatuses).
		Where("total_score > ? OR (total_score = ? AND elapsed_seconds < ?)", score, score, elapsed).
		Count(&count).Error
	return count, err
}

// LeaderboardRow is an attempt joined with its user's display profile.
type LeaderboardRow struct {
	models.Attempt
	Username string
	Nickname string
}

func GetLeaderboardRows(db *gorm.DB, contestID string) ([]LeaderboardRow, error) {
	var attempts []models.Attempt
	if err := db.Where("contest_id = ? AND status IN ?", contestID, rankableStatuses).
		Find(&attempts).Error; err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, nil
	}

	userIDs := make([]string, 0, len(attempts))
	for _, a := range attempts {
		userIDs = append(userIDs, a.UserID)
	}
	var users []models.User
	if err := db.Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	rows := make([]LeaderboardRow, 0, len(attempts))
	for _, a := range attempts {
		u := byID[a.UserID]
		rows = append(rows, LeaderboardRow{Attempt: a, Username: u.Username, Nickname: u.Nickname})
	}
	return rows, nil
}
