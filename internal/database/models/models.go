package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ContestState string

const (
	StateUpcoming         ContestState = "UPCOMING"
	StateRegistrationOpen ContestState = "REGISTRATION_OPEN"
	StateActive           ContestState = "ACTIVE"
	StateEnded            ContestState = "ENDED"
	StateResultsPublished ContestState = "RESULTS_PUBLISHED"
)

type AttemptStatus string

const (
	AttemptRegistered AttemptStatus = "REGISTERED"
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptCompleted  AttemptStatus = "COMPLETED"
	AttemptTimeUp     AttemptStatus = "TIME_UP"
)

type User struct {
	ID        string `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username  string `gorm:"uniqueIndex" json:"username"`
	Nickname  string `json:"nickname"`
	AvatarURL string `json:"avatar_url"`
}

// RewardTier maps a finishing rank to a coin payout.
type RewardTier struct {
	Rank  int   `json:"rank"`
	Coins int64 `json:"coins"`
}

type Contest struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Number                 int                             `gorm:"uniqueIndex" json:"number"`
	Title                  string                          `json:"title"`
	Description            string                          `json:"description"`
	ProblemIDs             datatypes.JSONSlice[string]     `json:"problem_ids"`
	StartTime              time.Time                       `json:"start_time"`
	EndTime                time.Time                       `json:"end_time"`
	RegistrationDeadline   time.Time                       `json:"registration_deadline"`
	ProblemTimeLimit       int                             `json:"problem_time_limit"` // minutes
	MaxAttempts            int                             `json:"max_attempts"`
	WrongSubmissionPenalty int                             `json:"wrong_submission_penalty"`
	RewardTiers            datatypes.JSONSlice[RewardTier] `json:"reward_tiers"`
	State                  ContestState                    `gorm:"index" json:"state"`
	CreatedBy              string                          `json:"created_by"`
}

// ContestParticipant is the participant-id set of a contest.
type ContestParticipant struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	ContestID string `gorm:"uniqueIndex:idx_contest_participant"`
	UserID    string `gorm:"uniqueIndex:idx_contest_participant"`
}

// Submission is embedded in its Attempt and never changed once appended.
type Submission struct {
	SubmissionID   string    `json:"submission_id"`
	SubmittedAt    time.Time `json:"submitted_at"`
	IsCorrect      bool      `json:"is_correct"`
	Verdict        string    `json:"verdict"`
	TimeTaken      int64     `json:"time_taken"` // seconds since the attempt started
	AttemptNumber  int       `json:"attempt_number"`
	PenaltyApplied int       `json:"penalty_applied"`
}

type Attempt struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	ContestID        string                          `gorm:"uniqueIndex:idx_attempt_contest_user" json:"contest_id"`
	UserID           string                          `gorm:"uniqueIndex:idx_attempt_contest_user" json:"user_id"`
	ProblemID        string                          `json:"problem_id"`
	RegistrationTime time.Time                       `json:"registration_time"`
	StartTime        *time.Time                      `json:"start_time"`
	EndTime          *time.Time                      `json:"end_time"`
	Submissions      datatypes.JSONSlice[Submission] `json:"submissions"`
	TotalScore       int                             `gorm:"index" json:"total_score"`
	ElapsedSeconds   int64                           `json:"elapsed_seconds"`
	Rank             *int                            `json:"rank"`
	CoinsEarned      int64                           `json:"coins_earned"`
	Status           AttemptStatus                   `gorm:"index" json:"status"`
	Version          int                             `json:"-"`
}

type Wallet struct {
	UserID    string `gorm:"primaryKey"`
	UpdatedAt time.Time
	Balance   int64
}

// CoinTransaction is an append-only ledger row. Tag is the idempotency key;
// Reference groups the rows of one payout (e.g. a contest id).
type CoinTransaction struct {
	ID           string    `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UserID       string    `gorm:"index" json:"user_id"`
	Amount       int64     `json:"amount"`
	BalanceAfter int64     `json:"balance_after"`
	Reason       string    `json:"reason"`
	Tag          string    `gorm:"uniqueIndex" json:"tag"`
	Reference    string    `gorm:"index" json:"reference"`
}
