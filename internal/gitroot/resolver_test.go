package gitroot

import (
	"fmt"
	"testing"
	"time"
)

type launch struct {
	argv    []string
	env     map[string]string
	dir     string
	context map[string]string
}

type fakeLauncher struct {
	launches []launch
}

func (f *fakeLauncher) RunCommand(argv []string, env map[string]string, dir string, context map[string]string) {
	f.launches = append(f.launches, launch{argv: argv, env: env, dir: dir, context: context})
}

func newTestResolver(l *fakeLauncher, opts ...Option) *Resolver {
	n := 0
	tokens := WithTokens(func() string {
		n++
		return fmt.Sprintf("req-%d", n)
	})
	return New("tmux-tabdir", l, append([]Option{tokens}, opts...)...)
}

func TestRootWithoutPermissionNeverLaunches(t *testing.T) {
	l := &fakeLauncher{}
	r := newTestResolver(l)
	if _, ok := r.Root("/srv/app"); ok {
		t.Fatalf("expected unknown root")
	}
	r.SetPermission(false)
	r.Root("/srv/app")
	if len(l.launches) != 0 {
		t.Fatalf("expected no launches, got %d", len(l.launches))
	}
}

func TestRootLaunchesLookupWithCorrelation(t *testing.T) {
	l := &fakeLauncher{}
	r := newTestResolver(l)
	r.SetPermission(true)
	r.Root("/srv/app/cmd")
	if len(l.launches) != 1 {
		t.Fatalf("expected one launch, got %d", len(l.launches))
	}
	got := l.launches[0]
	if got.dir != "/srv/app/cmd" {
		t.Fatalf("expected working dir to be the path, got %q", got.dir)
	}
	if len(got.argv) != 3 || got.argv[0] != "git" || got.argv[2] != "--show-toplevel" {
		t.Fatalf("unexpected argv %v", got.argv)
	}
	if got.env["GIT_OPTIONAL_LOCKS"] != "0" {
		t.Fatalf("expected GIT_OPTIONAL_LOCKS override, got %v", got.env)
	}
	ctx := got.context
	if ctx[KeyPlugin] != "tmux-tabdir" || ctx[KeyFn] != OperationName || ctx[KeyPath] != "/srv/app/cmd" || ctx[KeyRequest] != "req-1" {
		t.Fatalf("unexpected context %v", ctx)
	}
	if r.Pending() != 1 {
		t.Fatalf("expected one pending request")
	}
}

func TestRootDeduplicatesInflight(t *testing.T) {
	l := &fakeLauncher{}
	r := newTestResolver(l)
	r.SetPermission(true)
	r.Root("/srv/app")
	r.Root("/srv/app")
	r.Root("/srv/other")
	if len(l.launches) != 2 {
		t.Fatalf("expected two launches, got %d", len(l.launches))
	}
}

func TestHandleResultCachesRoot(t *testing.T) {
	l := &fakeLauncher{}
	r := newTestResolver(l)
	r.SetPermission(true)
	r.Root("/srv/app/cmd")
	if !r.HandleResult(Result{Stdout: []byte("/srv/app\n"), Context: l.launches[0].context}) {
		t.Fatalf("expected new root to be reported")
	}
	root, ok := r.Root("/srv/app/cmd")
	if !ok || root != "/srv/app" {
		t.Fatalf("expected cached root, got %q %v", root, ok)
	}
	if r.Pending() != 0 || r.Cached() != 1 {
		t.Fatalf("unexpected bookkeeping pending=%d cached=%d", r.Pending(), r.Cached())
	}
	if len(l.launches) != 1 {
		t.Fatalf("cache hit should not launch")
	}
}

func TestHandleResultFallsBackToContextPath(t *testing.T) {
	r := newTestResolver(&fakeLauncher{})
	ok := r.HandleResult(Result{
		Stdout:  []byte("/srv/app"),
		Context: map[string]string{KeyPlugin: "tmux-tabdir", KeyFunction: OperationName, KeyPath: "/srv/app/x"},
	})
	if !ok {
		t.Fatalf("expected legacy-tagged result to be accepted")
	}
	if root, _ := r.Root("/srv/app/x"); root != "/srv/app" {
		t.Fatalf("unexpected root %q", root)
	}
}

func TestHandleResultIgnoresForeignResults(t *testing.T) {
	r := newTestResolver(&fakeLauncher{})
	foreign := []map[string]string{
		{KeyPlugin: "other", KeyFn: OperationName, KeyPath: "/a"},
		{KeyPlugin: "tmux-tabdir", KeyFn: "something_else", KeyPath: "/a"},
		{},
	}
	for _, ctx := range foreign {
		if r.HandleResult(Result{Stdout: []byte("/a"), Context: ctx}) {
			t.Fatalf("context %v should be ignored", ctx)
		}
	}
	if r.Cached() != 0 {
		t.Fatalf("nothing should be cached")
	}
}

func TestFailedLookupBacksOff(t *testing.T) {
	now := time.Unix(1000, 0)
	l := &fakeLauncher{}
	r := newTestResolver(l, WithClock(func() time.Time { return now }), WithRetryAfter(30*time.Second))
	r.SetPermission(true)
	r.Root("/tmp/x")
	if r.HandleResult(Result{ExitCode: 128, Stderr: []byte("fatal: not a git repository"), Context: l.launches[0].context}) {
		t.Fatalf("failure should not report a new root")
	}
	r.Root("/tmp/x")
	if len(l.launches) != 1 {
		t.Fatalf("expected back-off to suppress a relaunch")
	}
	now = now.Add(31 * time.Second)
	r.Root("/tmp/x")
	if len(l.launches) != 2 {
		t.Fatalf("expected a retry after the back-off, got %d launches", len(l.launches))
	}
}

func TestInvalidOutputIsAFailure(t *testing.T) {
	l := &fakeLauncher{}
	r := newTestResolver(l)
	r.SetPermission(true)
	r.Root("/tmp/x")
	if r.HandleResult(Result{Stdout: []byte{0xff, 0xfe}, Context: l.launches[0].context}) {
		t.Fatalf("non-UTF-8 output should be rejected")
	}
	if _, ok := r.Root("/tmp/x"); ok {
		t.Fatalf("root should remain unknown")
	}
	r.Root("/tmp/y")
	if r.HandleResult(Result{Stdout: []byte("  \n"), Context: l.launches[1].context}) {
		t.Fatalf("empty output should be rejected")
	}
}
