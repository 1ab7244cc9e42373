// Package runner executes external commands behind an interface so callers
// can be exercised with recorded responses in tests.
package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"sync"
)

// Spec describes a command invocation. Env entries override the inherited
// environment.
type Spec struct {
	Name string
	Args []string
	Dir  string
	Env  map[string]string
}

// Argv returns the command name followed by its arguments.
func (s Spec) Argv() []string {
	return append([]string{s.Name}, s.Args...)
}

// SpecFromArgv builds a Spec from an argv slice. It returns false when argv
// is empty.
func SpecFromArgv(argv []string, dir string, env map[string]string) (Spec, bool) {
	if len(argv) == 0 || argv[0] == "" {
		return Spec{}, false
	}
	return Spec{Name: argv[0], Args: append([]string(nil), argv[1:]...), Dir: dir, Env: env}, true
}

// Result is what a finished command produced. ExitCode is -1 when the
// process could not be started or was killed; Err then says why.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Err      error
}

// Executor runs commands to completion.
type Executor interface {
	Run(ctx context.Context, spec Spec) Result
}

// RealExecutor runs commands with os/exec.
type RealExecutor struct{}

func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

func (e *RealExecutor) Run(ctx context.Context, spec Spec) Result {
	cmd := exec.CommandContext(ctx, spec.Name, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), spec.Env)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err == nil {
		return res
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		res.ExitCode = exitErr.ExitCode()
		return res
	}
	res.ExitCode = -1
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.Err = ctxErr
	} else {
		res.Err = err
	}
	return res
}

func mergeEnv(base []string, overrides map[string]string) []string {
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(base)+len(keys))
	for _, entry := range base {
		skip := false
		for _, k := range keys {
			if len(entry) > len(k) && entry[:len(k)] == k && entry[len(k)] == '=' {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, entry)
		}
	}
	for _, k := range keys {
		out = append(out, k+"="+overrides[k])
	}
	return out
}

// Matcher decides whether a rule applies to a command.
type Matcher func(spec Spec) bool

type mockRule struct {
	match  Matcher
	result Result
}

// MockExecutor answers commands from registered rules, first match wins.
// Unmatched commands succeed with empty output.
type MockExecutor struct {
	mu    sync.Mutex
	rules []mockRule
	calls []Spec
}

func NewMockExecutor() *MockExecutor {
	return &MockExecutor{}
}

func (m *MockExecutor) AddRule(match Matcher, result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, mockRule{match: match, result: result})
}

// AddDirMatch answers any command run in dir.
func (m *MockExecutor) AddDirMatch(dir string, result Result) {
	m.AddRule(func(spec Spec) bool { return spec.Dir == dir }, result)
}

func (m *MockExecutor) Calls() []Spec {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Spec(nil), m.calls...)
}

func (m *MockExecutor) Run(ctx context.Context, spec Spec) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, spec)
	for _, rule := range m.rules {
		if rule.match(spec) {
			return rule.result
		}
	}
	return Result{}
}

var (
	_ Executor = (*RealExecutor)(nil)
	_ Executor = (*MockExecutor)(nil)
)
