// Package catalog loads the problem set from disk. Each problem lives in its
// own directory holding problem.yaml, an optional index.md statement and a
// tests/ directory of <name>.in / <name>.out pairs.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrNotFound = errors.New("problem not found")

// Catalog is the read side the engine and the judge depend on.
type Catalog interface {
	FindByID(id string) (*Problem, error)
}

type TestCase struct {
	Name   string `json:"name"`
	Input  string `json:"-"`
	Output string `json:"-"`
}

type Problem struct {
	ID          string     `yaml:"id" json:"id"`
	Title       string     `yaml:"title" json:"title"`
	Level       string     `yaml:"level" json:"level"`
	TimeLimit   int        `yaml:"time_limit" json:"time_limit"`     // seconds per test run
	MemoryLimit int64      `yaml:"memory_limit" json:"memory_limit"` // MB
	Description string     `yaml:"-" json:"description"`
	TestCases   []TestCase `yaml:"-" json:"-"`
	BasePath    string     `yaml:"-" json:"-"`
}

type Store struct {
	mu       sync.RWMutex
	problems map[string]*Problem
}

func NewStore(problems ...*Problem) *Store {
	s := &Store{problems: make(map[string]*Problem, len(problems))}
	for _, p := range problems {
		s.problems[p.ID] = p
	}
	return s
}

func (s *Store) FindByID(id string) (*Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.problems[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.problems)
}

// Reload replaces the whole problem set with the one found under root.
func (s *Store) Reload(root string) error {
	problems, err := LoadAll(root)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.problems = problems
	s.mu.Unlock()
	return nil
}

// Load builds a Store from every problem directory under root.
func Load(root string) (*Store, error) {
	s := NewStore()
	if err := s.Reload(root); err != nil {
		return nil, err
	}
	return s, nil
}

// FindProblemDirs returns the immediate subdirectories of root.
func FindProblemDirs(root string) ([]string, error) {
	if root == "" {
		zap.S().Warn("problems_root is not configured. No problems will be loaded.")
		return []string{}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read problems_root directory '%s': %w", root, err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(root, entry.Name()))
		}
	}
	return dirs, nil
}

func LoadAll(root string) (map[string]*Problem, error) {
	dirs, err := FindProblemDirs(root)
	if err != nil {
		return nil, err
	}

	problems := make(map[string]*Problem)
	for _, dir := range dirs {
		p, err := loadProblem(dir)
		if err != nil {
			zap.S().Warnf("failed to load problem from %s: %v", dir, err)
			continue
		}
		if _, exists := problems[p.ID]; exists {
			zap.S().Warnf("duplicate problem ID %s found in %s, skipping", p.ID, dir)
			continue
		}
		problems[p.ID] = p
	}
	return problems, nil
}

func loadProblem(dir string) (*Problem, error) {
	data, err := os.ReadFile(filepath.Join(dir, "problem.yaml"))
	if err != nil {
		return nil, err
	}
	var problem Problem
	if err := yaml.Unmarshal(data, &problem); err != nil {
		return nil, err
	}
	if problem.ID == "" {
		return nil, fmt.Errorf("problem.yaml in %s has no id", dir)
	}
	problem.BasePath = dir

	if problem.Title == "" {
		problem.Title = problem.ID
	}
	if problem.TimeLimit <= 0 {
		problem.TimeLimit = 2
	}
	if problem.MemoryLimit <= 0 {
		problem.MemoryLimit = 256
	}

	desc, _ := os.ReadFile(filepath.Join(dir, "index.md"))
	problem.Description = string(desc)

	tests, err := loadTestCases(filepath.Join(dir, "tests"))
	if err != nil {
		return nil, err
	}
	problem.TestCases = tests
	return &problem, nil
}

func loadTestCases(dir string) ([]TestCase, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var tests []TestCase
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".in")
		if entry.IsDir() || !ok {
			continue
		}
		input, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		output, err := os.ReadFile(filepath.Join(dir, name+".out"))
		if err != nil {
			return nil, fmt.Errorf("test %s has no expected output: %w", name, err)
		}
		tests = append(tests, TestCase{Name: name, Input: string(input), Output: string(output)})
	}
	sort.Slice(tests, func(i, j int) bool { return tests[i].Name < tests[j].Name })
	return tests, nil
}
