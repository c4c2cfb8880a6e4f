package judger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZJUSCT/arena/internal/catalog"
	"github.com/ZJUSCT/arena/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DockerJudge runs every submission in a fresh container: the source and the
// problem's test inputs are copied in, the program is compiled once and then
// run per test with the problem's time limit.
type DockerJudge struct {
	cfg       config.Judge
	docker    *DockerManager
	problems  catalog.Catalog
	languages map[string]config.Language
}

func NewDockerJudge(cfg config.Judge, problems catalog.Catalog) (*DockerJudge, error) {
	docker, err := NewDockerManager(cfg.Docker)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	languages := make(map[string]config.Language, len(cfg.Languages))
	for _, l := range cfg.Languages {
		languages[l.ID] = l
	}
	return &DockerJudge{cfg: cfg, docker: docker, problems: problems, languages: languages}, nil
}

func (j *DockerJudge) Execute(ctx context.Context, problemID, sourceCode, languageID string) (*Verdict, error) {
	lang, ok := j.languages[languageID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, languageID)
	}
	problem, err := j.problems.FindByID(problemID)
	if err != nil {
		return nil, err
	}

	verdict := &Verdict{
		SubmissionID: uuid.New().String(),
		TotalTests:   len(problem.TestCases),
	}
	zap.S().Infof("judging submission %s for problem %s (%s)", verdict.SubmissionID, problemID, languageID)

	memory := min(j.cfg.Memory, problem.MemoryLimit)
	if memory <= 0 {
		memory = j.cfg.Memory
	}
	cid, err := j.docker.CreateContainer(ctx, lang.Image, j.cfg.CPU, memory)
	if err != nil {
		return nil, fmt.Errorf("failed to create container: %w", err)
	}
	defer j.docker.CleanupContainer(cid)

	if err := j.docker.StartContainer(ctx, cid); err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}
	if err := j.docker.CopyToContainer(ctx, cid, workspaceFiles(lang, sourceCode, problem)); err != nil {
		return nil, fmt.Errorf("failed to copy files to container: %w", err)
	}

	if len(lang.Compile) > 0 {
		compileCtx, cancel := context.WithTimeout(ctx, time.Duration(j.cfg.CompileTimeout)*time.Second)
		res, err := j.docker.ExecInContainer(compileCtx, cid, lang.Compile)
		cancel()
		if err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("compile step failed: %w", err)
		}
		if err != nil || res.ExitCode != 0 {
			verdict.Status = StatusCompileError
			return verdict, nil
		}
	}

	verdict.Status = StatusAccepted
	for _, tc := range problem.TestCases {
		status, elapsed, err := j.runTest(ctx, cid, lang, problem, tc)
		if err != nil {
			return nil, err
		}
		verdict.ExecutionTime = max(verdict.ExecutionTime, elapsed)
		if status == StatusAccepted {
			verdict.TestsPassed++
			continue
		}
		if verdict.Status == StatusAccepted {
			verdict.Status = status
		}
		// a timed-out process may still be running in the sandbox
		if status == StatusTimeLimitExceeded {
			break
		}
	}

	if mem, err := j.docker.PeakMemory(ctx, cid); err == nil {
		verdict.MemoryUsed = mem
	} else {
		zap.S().Debugf("failed to read memory stats for container %s: %v", cid, err)
	}

	zap.S().Infof("submission %s judged: %s (%d/%d)", verdict.SubmissionID, verdict.Status, verdict.TestsPassed, verdict.TotalTests)
	return verdict, nil
}

func (j *DockerJudge) runTest(ctx context.Context, cid string, lang config.Language, problem *catalog.Problem, tc catalog.TestCase) (string, time.Duration, error) {
	limit := time.Duration(problem.TimeLimit) * time.Second
	testCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	cmd := []string{"sh", "-c", fmt.Sprintf("%s < tests/%s.in", lang.Run, tc.Name)}
	started := time.Now()
	res, err := j.docker.ExecInContainer(testCtx, cid, cmd)
	elapsed := time.Since(started)

	switch {
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return StatusTimeLimitExceeded, limit, nil
	case err != nil:
		return "", elapsed, fmt.Errorf("test %s failed to run: %w", tc.Name, err)
	case res.ExitCode != 0:
		return StatusRuntimeError, elapsed, nil
	case !outputsMatch(res.Stdout, tc.Output):
		return StatusWrongAnswer, elapsed, nil
	default:
		return StatusAccepted, elapsed, nil
	}
}

func workspaceFiles(lang config.Language, sourceCode string, problem *catalog.Problem) map[string]string {
	files := map[string]string{lang.SourceFile: sourceCode}
	for _, tc := range problem.TestCases {
		files["tests/"+tc.Name+".in"] = tc.Input
	}
	return files
}
