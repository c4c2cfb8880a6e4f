package arena

import "github.com/ZJUSCT/arena/internal/database/models"

// ValidateContest checks the configuration invariants of a contest. Problem
// ids are only checked for presence here; catalog membership is checked by
// the caller.
func ValidateContest(c models.Contest) error {
	if c.Title == "" {
		return validationError("title is required")
	}
	if c.RegistrationDeadline.IsZero() || c.StartTime.IsZero() || c.EndTime.IsZero() {
		return validationError("registration deadline, start time and end time are required")
	}
	if !c.RegistrationDeadline.Before(c.StartTime) {
		return validationError("registration deadline must be before start time")
	}
	if !c.StartTime.Before(c.EndTime) {
		return validationError("start time must be before end time")
	}
	if c.ProblemTimeLimit <= 0 {
		return validationError("problem time limit must be positive")
	}
	if c.MaxAttempts <= 0 {
		return validationError("max attempts must be positive")
	}
	if c.WrongSubmissionPenalty < 0 {
		return validationError("wrong submission penalty must not be negative")
	}
	if len(c.ProblemIDs) == 0 {
		return validationError("problem set must not be empty")
	}
	seenProblems := make(map[string]bool, len(c.ProblemIDs))
	for _, id := range c.ProblemIDs {
		if id == "" {
			return validationError("problem id must not be empty")
		}
		if seenProblems[id] {
			return validationError("problem %s is listed twice", id)
		}
		seenProblems[id] = true
	}
	if len(c.RewardTiers) == 0 {
		return validationError("reward list must not be empty")
	}
	seenRanks := make(map[int]bool, len(c.RewardTiers))
	for _, t := range c.RewardTiers {
		if t.Rank <= 0 {
			return validationError("reward rank %d must be a positive integer", t.Rank)
		}
		if seenRanks[t.Rank] {
			return validationError("reward rank %d is configured twice", t.Rank)
		}
		if t.Coins < 0 {
			return validationError("reward for rank %d must not be negative", t.Rank)
		}
		seenRanks[t.Rank] = true
	}
	return nil
}
