package tmux

import (
	"errors"
	"fmt"
	"os/user"
	"path/filepath"
	"strings"
	"testing"

	gotmux "github.com/atomicstack/gotmuxcc/gotmuxcc"
)

func withStubTmux(t *testing.T, fn func(string) (tmuxClient, error)) {
	t.Helper()
	prev := dial
	prevClient := cachedClient
	prevSocket := cachedSocket
	cachedClient = nil
	cachedSocket = ""
	dial = fn
	t.Cleanup(func() {
		dial = prev
		cachedClient = prevClient
		cachedSocket = prevSocket
	})
}

type fakeClient struct {
	clients    []*gotmux.Client
	clientsErr error

	displayMessageFn func(target, format string) (string, error)

	listWindowsFormatLines []string
	listWindowsFormatErr   error
	listPanesFormatLines   []string
	listPanesFormatErr     error

	closed int
}

func (f *fakeClient) ListClients() ([]*gotmux.Client, error) {
	if f.clientsErr != nil {
		return nil, f.clientsErr
	}
	return f.clients, nil
}

func (f *fakeClient) DisplayMessage(target, format string) (string, error) {
	if f.displayMessageFn != nil {
		return f.displayMessageFn(target, format)
	}
	return "", errors.New("not implemented")
}

func (f *fakeClient) ListWindowsFormat(target, filter, format string) ([]string, error) {
	if f.listWindowsFormatErr != nil {
		return nil, f.listWindowsFormatErr
	}
	return f.listWindowsFormatLines, nil
}

func (f *fakeClient) ListPanesFormat(target, filter, format string) ([]string, error) {
	if f.listPanesFormatErr != nil {
		return nil, f.listPanesFormatErr
	}
	return f.listPanesFormatLines, nil
}

func (f *fakeClient) Close() error {
	f.closed++
	return nil
}

type recordingCommander struct {
	err error
}

func (r recordingCommander) Run() error              { return r.err }
func (r recordingCommander) Output() ([]byte, error) { return nil, r.err }

func withStubExec(t *testing.T, err error) *[][]string {
	t.Helper()
	var calls [][]string
	prev := runExecCommand
	runExecCommand = func(name string, args ...string) commander {
		calls = append(calls, append([]string{name}, args...))
		return recordingCommander{err: err}
	}
	t.Cleanup(func() { runExecCommand = prev })
	return &calls
}

func TestBaseArgs(t *testing.T) {
	if got := baseArgs(""); len(got) != 0 {
		t.Fatalf("expected no args for empty socket, got %v", got)
	}
	got := baseArgs("/tmp/sock")
	if len(got) != 2 || got[0] != "-S" || got[1] != "/tmp/sock" {
		t.Fatalf("unexpected args %v", got)
	}
}

func TestResolveSocketPath(t *testing.T) {
	t.Setenv("TMUX_TABDIR_SOCKET", "")
	t.Setenv("TMUX", "")
	t.Setenv("TMUX_TMPDIR", "")

	if got, err := ResolveSocketPath("/explicit"); err != nil || got != "/explicit" {
		t.Fatalf("flag should win, got %q (%v)", got, err)
	}

	t.Setenv("TMUX_TABDIR_SOCKET", "/from/env")
	if got, _ := ResolveSocketPath(""); got != "/from/env" {
		t.Fatalf("expected env socket, got %q", got)
	}

	t.Setenv("TMUX_TABDIR_SOCKET", "")
	t.Setenv("TMUX", "/tmp/tmux-1000/work,1234,0")
	if got, _ := ResolveSocketPath(""); got != "/tmp/tmux-1000/work" {
		t.Fatalf("expected socket from $TMUX, got %q", got)
	}

	t.Setenv("TMUX", "")
	dir := t.TempDir()
	t.Setenv("TMUX_TMPDIR", dir)
	u, err := user.Current()
	if err != nil {
		t.Skipf("cannot resolve current user: %v", err)
	}
	want := filepath.Join(dir, fmt.Sprintf("tmux-%s", u.Uid), "default")
	if got, _ := ResolveSocketPath(""); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestCurrentSessionFromTmuxPane(t *testing.T) {
	t.Setenv("TMUX_PANE", "%7")
	fake := &fakeClient{
		displayMessageFn: func(target, format string) (string, error) {
			if target != "%7" {
				t.Fatalf("unexpected target %q", target)
			}
			return "work\n", nil
		},
	}
	withStubTmux(t, func(string) (tmuxClient, error) { return fake, nil })
	got, err := CurrentSession("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "work" {
		t.Fatalf("expected work, got %q", got)
	}
}

func TestCurrentSessionSkipsControlModeClients(t *testing.T) {
	t.Setenv("TMUX_PANE", "")
	fake := &fakeClient{clients: []*gotmux.Client{
		{Name: "ctl", Session: "control", ControlMode: true},
		{Name: "/dev/pts/3", Session: "main"},
	}}
	withStubTmux(t, func(string) (tmuxClient, error) { return fake, nil })
	got, err := CurrentSession("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "main" {
		t.Fatalf("expected main, got %q", got)
	}
}

func TestCurrentSessionNoneFound(t *testing.T) {
	t.Setenv("TMUX_PANE", "")
	fake := &fakeClient{}
	withStubTmux(t, func(string) (tmuxClient, error) { return fake, nil })
	if _, err := CurrentSession(""); err == nil {
		t.Fatalf("expected error when no session is discoverable")
	}
}

func TestFetchLayoutFiltersSessionAndSortsWindows(t *testing.T) {
	fake := &fakeClient{
		listWindowsFormatLines: []string{
			"work\t@3\t2\tlogs",
			"other\t@9\t0\tzsh",
			"work\t@1\t0\tapi",
			"work\tbroken",
		},
		listPanesFormatLines: []string{
			"work\t%1\t@1\t0\t\t/home/u/api",
			"work\t%4\t@3\t1\t\t/var/log",
			"work\t%5\t@3\t0\t1\t/tmp",
			"other\t%9\t@9\t0\t\t/home/u",
			"work\tnot-a-pane\t@1\t0\t\t/x",
		},
	}
	withStubTmux(t, func(string) (tmuxClient, error) { return fake, nil })

	layout, err := FetchLayout("/tmp/sock", "work")
	if err != nil {
		t.Fatalf("FetchLayout failed: %v", err)
	}
	if len(layout.Windows) != 2 {
		t.Fatalf("expected 2 windows, got %#v", layout.Windows)
	}
	if layout.Windows[0].ID != "@1" || layout.Windows[1].ID != "@3" {
		t.Fatalf("windows not ordered by index: %#v", layout.Windows)
	}
	if len(layout.Panes) != 3 {
		t.Fatalf("expected 3 panes, got %#v", layout.Panes)
	}
	if !layout.Panes[1].Dead {
		t.Fatalf("expected %%4 dead")
	}
	if !layout.Panes[2].Ignored {
		t.Fatalf("expected %%5 ignored")
	}
	if layout.Panes[0].Number != 1 || layout.Panes[0].CurrentPath != "/home/u/api" {
		t.Fatalf("unexpected first pane %#v", layout.Panes[0])
	}
	ordinals := layout.WindowOrdinal()
	if ordinals["@1"] != 1 || ordinals["@3"] != 2 {
		t.Fatalf("unexpected ordinals %v", ordinals)
	}
	if w, ok := layout.WindowAt(2); !ok || w.Name != "logs" {
		t.Fatalf("WindowAt(2) = %#v, %v", w, ok)
	}
	if _, ok := layout.WindowAt(3); ok {
		t.Fatalf("WindowAt past the end should fail")
	}
}

func TestFetchLayoutDropsClientOnError(t *testing.T) {
	fake := &fakeClient{listWindowsFormatErr: errors.New("boom")}
	withStubTmux(t, func(string) (tmuxClient, error) { return fake, nil })
	if _, err := FetchLayout("", "work"); err == nil {
		t.Fatalf("expected error")
	}
	if cachedClient != nil {
		t.Fatalf("expected cached client to be dropped")
	}
	if fake.closed != 1 {
		t.Fatalf("expected client closed once, got %d", fake.closed)
	}
}

func TestFetchLayoutRequiresSession(t *testing.T) {
	if _, err := FetchLayout("", " "); err == nil {
		t.Fatalf("expected error for empty session")
	}
}

func TestPaneNumber(t *testing.T) {
	cases := map[string]struct {
		want uint32
		ok   bool
	}{
		"%12":  {12, true},
		"3":    {3, true},
		"%":    {0, false},
		"%abc": {0, false},
		"":     {0, false},
	}
	for in, tc := range cases {
		got, ok := PaneNumber(in)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("PaneNumber(%q) = %d, %v; want %d, %v", in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestRenameWindowRunsCommand(t *testing.T) {
	calls := withStubExec(t, nil)
	if err := RenameWindow("/tmp/sock", "@4", "api (2 panes)"); err != nil {
		t.Fatalf("RenameWindow failed: %v", err)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one command, got %d", len(*calls))
	}
	got := strings.Join((*calls)[0], " ")
	want := "tmux -S /tmp/sock rename-window -t @4 -- api (2 panes)"
	if got != want {
		t.Fatalf("unexpected command\n got: %s\nwant: %s", got, want)
	}
}

func TestRenameWindowValidation(t *testing.T) {
	calls := withStubExec(t, nil)
	if err := RenameWindow("", " ", "x"); err == nil {
		t.Fatalf("expected error for empty target")
	}
	if err := RenameWindow("", "@1", ""); err == nil {
		t.Fatalf("expected error for empty name")
	}
	if len(*calls) != 0 {
		t.Fatalf("validation failures should not run tmux")
	}
}

func TestRenameWindowPropagatesError(t *testing.T) {
	withStubExec(t, errors.New("exit status 1"))
	if err := RenameWindow("", "@1", "x"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestShutdownClosesClient(t *testing.T) {
	fake := &fakeClient{}

	prevClient := cachedClient
	prevSocket := cachedSocket
	cachedClient = fake
	cachedSocket = "/tmp/test"
	t.Cleanup(func() {
		cachedClient = prevClient
		cachedSocket = prevSocket
	})

	Shutdown()
	if cachedClient != nil {
		t.Fatalf("expected cachedClient to be nil after Shutdown")
	}
	if cachedSocket != "" {
		t.Fatalf("expected cachedSocket to be empty after Shutdown")
	}
	if fake.closed != 1 {
		t.Fatalf("expected Close to be called once, got %d", fake.closed)
	}
}

func TestNewTmuxCachesConnection(t *testing.T) {
	callCount := 0
	fake := &fakeClient{}
	withStubTmux(t, func(string) (tmuxClient, error) {
		callCount++
		return fake, nil
	})

	c1, err := newTmux("/tmp/test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c2, err := newTmux("/tmp/test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c1 != c2 {
		t.Fatalf("expected same client instance from cache")
	}
	if callCount != 1 {
		t.Fatalf("expected dial called once, got %d", callCount)
	}

	if _, err := newTmux("/tmp/other"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if callCount != 2 {
		t.Fatalf("expected a new dial for a different socket, got %d", callCount)
	}
	if fake.closed != 1 {
		t.Fatalf("expected previous client closed, got %d", fake.closed)
	}
}
