package database

import (
	"time"

	"github.com/ZJUSCT/arena/internal/database/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// User CRUD
func GetUserByID(db *gorm.DB, id string) (*models.User, error) {
	var user models.User
	if err := db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpsertUser creates or refreshes the display profile of an externally
// authenticated user.
func UpsertUser(db *gorm.DB, user *models.User) error {
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "nickname", "avatar_url", "updated_at"}),
	}).Create(user).Error
}

// Contest CRUD

// CreateContest assigns the next public contest number and inserts the row.
func CreateContest(db *gorm.DB, contest *models.Contest) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var maxNumber int
		if err := tx.Unscoped().Model(&models.Contest{}).
			Select("COALESCE(MAX(number), 0)").
			Scan(&maxNumber).Error; err != nil {
			return err
		}
		contest.Number = maxNumber + 1
		return tx.Create(contest).Error
	})
}

func GetContestByID(db *gorm.DB, id string) (*models.Contest, error) {
	var contest models.Contest
	if err := db.Where("id = ?", id).First(&contest).Error; err != nil {
		return nil, err
	}
	return &contest, nil
}

func GetContestByNumber(db *gorm.DB, number int) (*models.Contest, error) {
	var contest models.Contest
	if err := db.Where("number = ?", number).First(&contest).Error; err != nil {
		return nil, err
	}
	return &contest, nil
}

func GetAllContests(db *gorm.DB) ([]models.Contest, error) {
	var contests []models.Contest
	if err := db.Order("number desc").Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

// GetSchedulableContests returns every live contest the lifecycle scheduler
// still has to look at.
func GetSchedulableContests(db *gorm.DB) ([]models.Contest, error) {
	var contests []models.Contest
	if err := db.Where("state <> ?", models.StateResultsPublished).
		Order("number asc").
		Find(&contests).Error; err != nil {
		return nil, err
	}
	return contests, nil
}

// UpdateContestConfig rewrites the editable fields of a contest, but only
// while its stored state is still one of allowedStates.
func UpdateContestConfig(db *gorm.DB, contest *models.Contest, allowedStates []models.ContestState) (bool, error) {
	result := db.Model(contest).
		Where("state IN ?", allowedStates).
		Select("title", "description", "problem_ids", "start_time", "end_time", "registration_deadline",
			"problem_time_limit", "max_attempts", "wrong_submission_penalty", "reward_tiers", "state").
		Updates(contest)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// TransitionContestState moves a contest from one state to another only if
// it is still in `from`. It reports false when another writer got there first.
func TransitionContestState(db *gorm.DB, contestID string, from, to models.ContestState) (bool, error) {
	result := db.Model(&models.Contest{}).
		Where("id = ? AND state = ? AND state <> ?", contestID, from, to).
		Updates(map[string]interface{}{
			"state":      to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// SoftDeleteContest hides a contest together with its attempts and
// participant set.
func SoftDeleteContest(db *gorm.DB, contestID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ?", contestID).Delete(&models.Contest{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("contest_id = ?", contestID).Delete(&models.Attempt{}).Error; err != nil {
			return err
		}
		return tx.Where("contest_id = ?", contestID).Delete(&models.ContestParticipant{}).Error
	})
}

func CountParticipants(db *gorm.DB, contestID string) (int64, error) {
	var count int64
	err := db.Model(&models.ContestParticipant{}).Where("contest_id = ?", contestID).Count(&count).Error
	return count, err
}
