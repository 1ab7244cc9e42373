// Package gitroot resolves the git worktree root of a directory without
// blocking the caller. Lookups run as external commands whose results are
// delivered back later and matched to the request through a correlation
// context.
package gitroot

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/atomicstack/tmux-tabdir/internal/logging"
	"github.com/atomicstack/tmux-tabdir/internal/logging/events"
	"github.com/google/uuid"
)

// OperationName tags the correlation context of every lookup.
const OperationName = "git_root"

// Correlation context keys.
const (
	KeyPlugin   = "plugin"
	KeyFn       = "fn"
	KeyFunction = "function"
	KeyPath     = "path"
	KeyRequest  = "request"
)

const defaultRetryAfter = 30 * time.Second

// Command is the lookup launched for each uncached path.
var Command = []string{"git", "rev-parse", "--show-toplevel"}

// Launcher starts an external command without waiting for it. The result is
// expected to come back through HandleResult with the same context.
type Launcher interface {
	RunCommand(argv []string, env map[string]string, dir string, context map[string]string)
}

// Result is the outcome of a launched lookup.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Context  map[string]string
}

// Resolver caches worktree roots keyed by the looked-up path.
type Resolver struct {
	plugin   string
	launcher Launcher
	granted  bool

	cache    map[string]string
	pending  map[string]string // request token -> path
	inflight map[string]string // path -> request token
	failed   map[string]time.Time

	retryAfter time.Duration
	now        func() time.Time
	newToken   func() string
}

type Option func(*Resolver)

// WithRetryAfter sets how long a failed path is left alone before it is
// looked up again. Zero retries on the next request.
func WithRetryAfter(d time.Duration) Option {
	return func(r *Resolver) {
		if d >= 0 {
			r.retryAfter = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

func WithTokens(next func() string) Option {
	return func(r *Resolver) {
		if next != nil {
			r.newToken = next
		}
	}
}

func New(plugin string, launcher Launcher, opts ...Option) *Resolver {
	r := &Resolver{
		plugin:     plugin,
		launcher:   launcher,
		cache:      make(map[string]string),
		pending:    make(map[string]string),
		inflight:   make(map[string]string),
		failed:     make(map[string]time.Time),
		retryAfter: defaultRetryAfter,
		now:        time.Now,
		newToken:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetPermission records whether external commands may be launched.
func (r *Resolver) SetPermission(granted bool) {
	r.granted = granted
	events.Resolver.Permission(granted)
}

// Root returns the cached worktree root for path. On a miss it starts a
// lookup when permitted and reports the root as unknown for now.
func (r *Resolver) Root(path string) (string, bool) {
	if root, ok := r.cache[path]; ok {
		return root, true
	}
	if !r.granted {
		events.Resolver.Denied(path)
		return "", false
	}
	if _, ok := r.inflight[path]; ok {
		return "", false
	}
	if at, ok := r.failed[path]; ok && r.now().Sub(at) < r.retryAfter {
		return "", false
	}
	r.launch(path)
	return "", false
}

func (r *Resolver) launch(path string) {
	token := r.newToken()
	r.pending[token] = path
	r.inflight[path] = token
	delete(r.failed, path)
	events.Resolver.Launch(token, path)
	if r.launcher == nil {
		return
	}
	argv := append([]string(nil), Command...)
	r.launcher.RunCommand(argv, map[string]string{"GIT_OPTIONAL_LOCKS": "0"}, path, map[string]string{
		KeyPlugin:  r.plugin,
		KeyFn:      OperationName,
		KeyPath:    path,
		KeyRequest: token,
	})
}

// Owns reports whether a command result carries this resolver's tags.
func (r *Resolver) Owns(context map[string]string) bool {
	if context[KeyPlugin] != r.plugin {
		return false
	}
	fn := context[KeyFn]
	if fn == "" {
		fn = context[KeyFunction]
	}
	return fn == OperationName
}

// HandleResult stores a completed lookup. It reports true when a new root
// was cached, meaning names computed earlier may now be abbreviated further.
func (r *Resolver) HandleResult(res Result) bool {
	if !r.Owns(res.Context) {
		return false
	}
	path, ok := r.pending[res.Context[KeyRequest]]
	if ok {
		delete(r.pending, res.Context[KeyRequest])
	} else {
		path = res.Context[KeyPath]
	}
	if path == "" {
		logging.Errorf("git root result without subject path (context %v)", res.Context)
		return false
	}
	if token, ok := r.inflight[path]; ok {
		delete(r.inflight, path)
		delete(r.pending, token)
	}

	stderr := strings.TrimSpace(string(res.Stderr))
	if res.ExitCode != 0 {
		r.fail(path, res.ExitCode, stderr)
		logging.Errorf("git root lookup for %s exited %d: %s", path, res.ExitCode, stderr)
		return false
	}
	if !utf8.Valid(res.Stdout) {
		r.fail(path, res.ExitCode, "stdout is not valid UTF-8")
		logging.Errorf("git root lookup for %s returned undecodable output", path)
		return false
	}
	root := strings.TrimRight(string(res.Stdout), " \t\r\n")
	if root == "" {
		r.fail(path, res.ExitCode, "empty output")
		logging.Errorf("git root lookup for %s returned no output", path)
		return false
	}
	r.cache[path] = root
	events.Resolver.Resolved(path, root)
	return true
}

func (r *Resolver) fail(path string, exitCode int, reason string) {
	r.failed[path] = r.now()
	events.Resolver.Failed(path, exitCode, reason)
}

// Pending reports the number of lookups awaiting a result.
func (r *Resolver) Pending() int {
	return len(r.pending)
}

// Cached reports the number of resolved paths.
func (r *Resolver) Cached() int {
	return len(r.cache)
}
