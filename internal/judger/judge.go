package judger

import (
	"context"
	"errors"
	"strings"
	"time"
)

const (
	StatusAccepted          = "Accepted"
	StatusWrongAnswer       = "Wrong Answer"
	StatusTimeLimitExceeded = "Time Limit Exceeded"
	StatusRuntimeError      = "Runtime Error"
	StatusCompileError      = "Compile Error"
)

var ErrUnsupportedLanguage = errors.New("unsupported language")

// Verdict is the judge's classification of one submission.
type Verdict struct {
	SubmissionID  string        `json:"submission_id"`
	Status        string        `json:"status"`
	TestsPassed   int           `json:"tests_passed"`
	TotalTests    int           `json:"total_tests"`
	ExecutionTime time.Duration `json:"execution_time"`
	MemoryUsed    int64         `json:"memory_used"` // bytes
}

func (v *Verdict) Accepted() bool {
	return v.Status == StatusAccepted
}

// Judge compiles and runs a submission against a problem's tests.
// A returned error means no verdict could be produced.
type Judge interface {
	Execute(ctx context.Context, problemID, sourceCode, languageID string) (*Verdict, error)
}

// outputsMatch compares program output with the expected answer, ignoring
// trailing whitespace on each line and trailing blank lines.
func outputsMatch(got, want string) bool {
	return normalizeOutput(got) == normalizeOutput(want)
}

func normalizeOutput(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}
