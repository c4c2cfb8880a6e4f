package arena

import "github.com/ZJUSCT/arena/internal/database/models"

const (
	baseScore          = 1000
	maxTimeBonus       = 500
	attemptPenaltyStep = 50
)

// Score returns the attempt's new cumulative score after submission s.
//
// A wrong submission subtracts the contest penalty from the running total
// with no floor, so totals can go negative. A correct submission replaces
// the total with base + time bonus - retry penalty - earlier wrong-answer
// penalties, floored at zero.
func Score(a models.Attempt, c models.Contest, s models.Submission) int {
	if !s.IsCorrect {
		return a.TotalScore - c.WrongSubmissionPenalty
	}

	score := baseScore + TimeBonus(c, s.TimeTaken) - AttemptPenalty(s.AttemptNumber) - priorPenalties(a)
	return max(0, score)
}

// TimeBonus is floor(500 * (1 - taken/limit)), computed in integers.
func TimeBonus(c models.Contest, taken int64) int {
	limit := LimitSeconds(c)
	if limit <= 0 {
		return 0
	}
	return int(floorDiv(maxTimeBonus*(limit-taken), limit))
}

func AttemptPenalty(attemptNumber int) int {
	return max(0, (attemptNumber-1)*attemptPenaltyStep)
}

func priorPenalties(a models.Attempt) int {
	total := 0
	for _, s := range a.Submissions {
		if !s.IsCorrect {
			total += s.PenaltyApplied
		}
	}
	return total
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
