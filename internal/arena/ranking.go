package arena

import (
	"cmp"
	"slices"
	"time"

	"github.com/ZJUSCT/arena/internal/database/models"
)

// Standing is the part of an attempt the ranking looks at.
type Standing struct {
	AttemptID      string
	UserID         string
	Score          int
	ElapsedSeconds int64
	RegisteredAt   time.Time
}

type Ranked struct {
	Standing
	Rank int
}

// Rankable reports whether an attempt appears on the leaderboard.
func Rankable(s models.AttemptStatus) bool {
	return s == models.AttemptCompleted || s == models.AttemptTimeUp || s == models.AttemptInProgress
}

func StandingOf(a models.Attempt) Standing {
	return Standing{
		AttemptID:      a.ID,
		UserID:         a.UserID,
		Score:          a.TotalScore,
		ElapsedSeconds: a.ElapsedSeconds,
		RegisteredAt:   a.RegistrationTime,
	}
}

// Outranks reports whether a places strictly ahead of b.
func Outranks(a, b Standing) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	return a.ElapsedSeconds < b.ElapsedSeconds
}

// Rank orders standings by score descending then elapsed time ascending and
// assigns each tie group the 1-based position of its first member, so a
// group of k tied at rank r is followed by rank r+k. Registration time and
// user id only fix the display order inside a tie group.
func Rank(standings []Standing) []Ranked {
	sorted := slices.Clone(standings)
	slices.SortFunc(sorted, func(a, b Standing) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(a.ElapsedSeconds, b.ElapsedSeconds); c != 0 {
			return c
		}
		if c := a.RegisteredAt.Compare(b.RegisteredAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	ranked := make([]Ranked, len(sorted))
	for i, s := range sorted {
		rank := i + 1
		if i > 0 && !Outranks(sorted[i-1], s) {
			rank = ranked[i-1].Rank
		}
		ranked[i] = Ranked{Standing: s, Rank: rank}
	}
	return ranked
}

// RankAttempts ranks the rankable attempts and drops the rest.
func RankAttempts(attempts []models.Attempt) []Ranked {
	standings := make([]Standing, 0, len(attempts))
	for _, a := range attempts {
		if Rankable(a.Status) {
			standings = append(standings, StandingOf(a))
		}
	}
	return Rank(standings)
}
