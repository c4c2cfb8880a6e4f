package arena

import (
	"testing"
	"time"

	"github.com/ZJUSCT/arena/internal/database/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testContest() models.Contest {
	return models.Contest{
		ID:                     "c1",
		Title:                  "Spring Sprint",
		ProblemIDs:             []string{"p1", "p2"},
		RegistrationDeadline:   t0.Add(30 * time.Minute),
		StartTime:              t0.Add(time.Hour),
		EndTime:                t0.Add(3 * time.Hour),
		ProblemTimeLimit:       30,
		MaxAttempts:            3,
		WrongSubmissionPenalty: 10,
		RewardTiers:            []models.RewardTier{{Rank: 1, Coins: 100}, {Rank: 2, Coins: 50}},
		State:                  models.StateRegistrationOpen,
	}
}

func startedAttempt(start time.Time) models.Attempt {
	a := NewAttempt("a1", "c1", "u1", "p1", t0)
	a, _ = StartAttempt(a, start)
	return a
}

func TestDeriveState(t *testing.T) {
	c := testContest()

	cases := []struct {
		at   time.Time
		want models.ContestState
	}{
		{t0, models.StateRegistrationOpen},
		{t0.Add(30*time.Minute - time.Second), models.StateRegistrationOpen},
		{t0.Add(30 * time.Minute), models.StateUpcoming},
		{t0.Add(45 * time.Minute), models.StateUpcoming},
		{t0.Add(time.Hour), models.StateActive},
		{t0.Add(2 * time.Hour), models.StateActive},
		{t0.Add(3 * time.Hour), models.StateEnded},
		{t0.Add(4 * time.Hour), models.StateEnded},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveState(c, tc.at), "at %s", tc.at.Sub(t0))
	}
}

func TestEffectiveStateKeepsPublished(t *testing.T) {
	c := testContest()
	c.State = models.StateResultsPublished
	assert.Equal(t, models.StateResultsPublished, EffectiveState(c, t0.Add(4*time.Hour)))

	c.State = models.StateUpcoming
	assert.Equal(t, models.StateActive, EffectiveState(c, t0.Add(2*time.Hour)))
}

func TestContestRemainingSeconds(t *testing.T) {
	c := testContest()
	assert.Equal(t, int64(3600), ContestRemainingSeconds(c, t0))
	assert.Equal(t, int64(7200), ContestRemainingSeconds(c, t0.Add(time.Hour)))
	assert.Equal(t, int64(0), ContestRemainingSeconds(c, t0.Add(3*time.Hour)))
	assert.Equal(t, int64(0), ContestRemainingSeconds(c, t0.Add(5*time.Hour)))
}

func TestAttemptTimer(t *testing.T) {
	c := testContest()
	start := t0.Add(time.Hour)

	fresh := NewAttempt("a1", "c1", "u1", "p1", t0)
	assert.Equal(t, int64(1800), RemainingSeconds(fresh, c, start.Add(10*time.Minute)))
	assert.False(t, HasExceededLimit(fresh, c, start.Add(time.Hour)))

	a := startedAttempt(start)
	assert.Equal(t, int64(1500), RemainingSeconds(a, c, start.Add(5*time.Minute)))
	assert.Equal(t, int64(0), RemainingSeconds(a, c, start.Add(40*time.Minute)))
	assert.False(t, HasExceededLimit(a, c, start.Add(30*time.Minute-time.Second)))
	assert.True(t, HasExceededLimit(a, c, start.Add(30*time.Minute)))

	a.Status = models.AttemptCompleted
	assert.False(t, HasExceededLimit(a, c, start.Add(time.Hour)))
}

func TestStartAttemptIsIdempotent(t *testing.T) {
	start := t0.Add(time.Hour)
	a, changed := StartAttempt(NewAttempt("a1", "c1", "u1", "p1", t0), start)
	require.True(t, changed)
	assert.Equal(t, models.AttemptInProgress, a.Status)
	assert.Equal(t, start, *a.StartTime)

	again, changed := StartAttempt(a, start.Add(time.Minute))
	assert.False(t, changed)
	assert.Equal(t, start, *again.StartTime)
}

func TestScoreWorkedExample(t *testing.T) {
	c := testContest()
	start := t0.Add(time.Hour)
	a := startedAttempt(start)

	a, wrong, err := ApplySubmission(a, c, Outcome{SubmissionID: "s1", Verdict: "Wrong Answer"}, start.Add(300*time.Second))
	require.NoError(t, err)
	assert.Equal(t, -10, a.TotalScore)
	assert.Equal(t, 10, wrong.PenaltyApplied)
	assert.Equal(t, 1, wrong.AttemptNumber)
	assert.Equal(t, models.AttemptInProgress, a.Status)

	a, right, err := ApplySubmission(a, c, Outcome{SubmissionID: "s2", IsCorrect: true, Verdict: "Accepted"}, start.Add(600*time.Second))
	require.NoError(t, err)
	assert.Equal(t, 2, right.AttemptNumber)
	assert.Equal(t, int64(600), right.TimeTaken)
	assert.Equal(t, 1273, a.TotalScore)
	assert.Equal(t, models.AttemptCompleted, a.Status)
	require.NotNil(t, a.EndTime)
	assert.Len(t, a.Submissions, 2)
}

func TestScoreAsymmetry(t *testing.T) {
	c := testContest()
	c.WrongSubmissionPenalty = 400

	a := startedAttempt(t0)
	a.Submissions = []models.Submission{
		{IsCorrect: false, PenaltyApplied: 400, AttemptNumber: 1},
		{IsCorrect: false, PenaltyApplied: 400, AttemptNumber: 2},
		{IsCorrect: false, PenaltyApplied: 400, AttemptNumber: 3},
	}
	a.TotalScore = -1200

	wrong := Score(a, c, models.Submission{AttemptNumber: 4})
	assert.Equal(t, -1600, wrong)

	right := Score(a, c, models.Submission{IsCorrect: true, AttemptNumber: 4, TimeTaken: 1799})
	assert.Equal(t, 0, right)
}

func TestTimeBonus(t *testing.T) {
	c := testContest()
	assert.Equal(t, 500, TimeBonus(c, 0))
	assert.Equal(t, 333, TimeBonus(c, 600))
	assert.Equal(t, 250, TimeBonus(c, 900))
	assert.Equal(t, 0, TimeBonus(c, 1799))
	assert.Equal(t, 0, AttemptPenalty(1))
	assert.Equal(t, 100, AttemptPenalty(3))
}

func TestApplySubmissionDoesNotMutateInput(t *testing.T) {
	c := testContest()
	a := startedAttempt(t0.Add(time.Hour))
	a.Submissions = make([]models.Submission, 0, 4)

	_, _, err := ApplySubmission(a, c, Outcome{SubmissionID: "s1"}, t0.Add(time.Hour+time.Minute))
	require.NoError(t, err)
	assert.Empty(t, a.Submissions)
	assert.Equal(t, 0, a.TotalScore)
}

func TestCheckSubmissionRejections(t *testing.T) {
	c := testContest()
	start := t0.Add(time.Hour)
	during := start.Add(time.Minute)

	t.Run("contest not active", func(t *testing.T) {
		a := startedAttempt(start)
		assert.ErrorIs(t, CheckSubmission(a, c, t0.Add(4*time.Hour)), ErrContestNotActive)
	})
	t.Run("not started", func(t *testing.T) {
		a := NewAttempt("a1", "c1", "u1", "p1", t0)
		assert.ErrorIs(t, CheckSubmission(a, c, during), ErrProblemNotStarted)
	})
	t.Run("completed", func(t *testing.T) {
		a := startedAttempt(start)
		a.Status = models.AttemptCompleted
		assert.ErrorIs(t, CheckSubmission(a, c, during), ErrAttemptClosed)
	})
	t.Run("max attempts", func(t *testing.T) {
		a := startedAttempt(start)
		a.Submissions = make([]models.Submission, c.MaxAttempts)
		assert.ErrorIs(t, CheckSubmission(a, c, during), ErrMaxAttempts)
	})
	t.Run("time limit", func(t *testing.T) {
		a := startedAttempt(start)
		err := CheckSubmission(a, c, start.Add(31*time.Minute))
		assert.ErrorIs(t, err, ErrTimeLimitExceeded)
		assert.ErrorIs(t, err, ErrStateConflict)
	})
}

func TestExpireAttemptNeverCompletes(t *testing.T) {
	c := testContest()
	start := t0.Add(time.Hour)
	a := startedAttempt(start)

	late := start.Add(45 * time.Minute)
	_, _, err := ApplySubmission(a, c, Outcome{IsCorrect: true}, late)
	require.ErrorIs(t, err, ErrTimeLimitExceeded)

	expired := ExpireAttempt(a, c, late)
	assert.Equal(t, models.AttemptTimeUp, expired.Status)
	assert.Equal(t, int64(1800), expired.ElapsedSeconds)
	assert.Equal(t, start.Add(30*time.Minute), *expired.EndTime)
	assert.Equal(t, 0, expired.TotalScore)

	completed := a
	completed.Status = models.AttemptCompleted
	assert.Equal(t, models.AttemptCompleted, ExpireAttempt(completed, c, late).Status)
}

func TestRankTieGroups(t *testing.T) {
	standings := []Standing{
		{UserID: "e", Score: 900, ElapsedSeconds: 500},
		{UserID: "a", Score: 1200, ElapsedSeconds: 300},
		{UserID: "c", Score: 1100, ElapsedSeconds: 400},
		{UserID: "b", Score: 1100, ElapsedSeconds: 400},
		{UserID: "d", Score: 1100, ElapsedSeconds: 450},
		{UserID: "f", Score: 900, ElapsedSeconds: 500},
		{UserID: "g", Score: -20, ElapsedSeconds: 10},
	}

	ranked := Rank(standings)
	got := make(map[string]int, len(ranked))
	order := make([]string, 0, len(ranked))
	for _, r := range ranked {
		got[r.UserID] = r.Rank
		order = append(order, r.UserID)
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f", "g"}, order)
	assert.Equal(t, map[string]int{"a": 1, "b": 2, "c": 2, "d": 4, "e": 5, "f": 5, "g": 7}, got)
}

func TestRankAttemptsFiltersStatus(t *testing.T) {
	attempts := []models.Attempt{
		{ID: "1", UserID: "u1", Status: models.AttemptRegistered},
		{ID: "2", UserID: "u2", Status: models.AttemptInProgress, TotalScore: -10},
		{ID: "3", UserID: "u3", Status: models.AttemptCompleted, TotalScore: 1300},
		{ID: "4", UserID: "u4", Status: models.AttemptTimeUp},
	}
	ranked := RankAttempts(attempts)
	require.Len(t, ranked, 3)
	assert.Equal(t, "u3", ranked[0].UserID)
	assert.Equal(t, "u4", ranked[1].UserID)
	assert.Equal(t, "u2", ranked[2].UserID)
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatElapsed(0))
	assert.Equal(t, "00:10:05", FormatElapsed(605))
	assert.Equal(t, "02:00:01", FormatElapsed(7201))
}

func TestValidateContest(t *testing.T) {
	require.NoError(t, ValidateContest(testContest()))

	mutations := map[string]func(*models.Contest){
		"deadline after start": func(c *models.Contest) { c.RegistrationDeadline = c.StartTime },
		"end before start":     func(c *models.Contest) { c.EndTime = c.StartTime.Add(-time.Minute) },
		"zero time limit":      func(c *models.Contest) { c.ProblemTimeLimit = 0 },
		"zero attempts":        func(c *models.Contest) { c.MaxAttempts = 0 },
		"empty problems":       func(c *models.Contest) { c.ProblemIDs = nil },
		"empty rewards":        func(c *models.Contest) { c.RewardTiers = nil },
		"duplicate rank": func(c *models.Contest) {
			c.RewardTiers = []models.RewardTier{{Rank: 1, Coins: 5}, {Rank: 1, Coins: 3}}
		},
		"non-positive rank": func(c *models.Contest) {
			c.RewardTiers = []models.RewardTier{{Rank: 0, Coins: 5}}
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			c := testContest()
			mutate(&c)
			assert.ErrorIs(t, ValidateContest(c), ErrValidation)
		})
	}
}
