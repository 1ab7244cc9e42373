package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/atomicstack/tmux-tabdir/internal/logging"
	"github.com/atomicstack/tmux-tabdir/internal/plugin"
	"github.com/atomicstack/tmux-tabdir/internal/runner"
	"github.com/atomicstack/tmux-tabdir/internal/tmux"
	"github.com/atomicstack/tmux-tabdir/internal/ui/command"
)

const defaultCommandTimeout = 10 * time.Second

var renameWindow = tmux.RenameWindow

// renameDoneMsg reports a finished rename; the organiser does not react to
// it beyond logging.
type renameDoneMsg struct {
	ordinal uint32
	name    string
	err     error
}

// HostOptions configures a TeaHost.
type HostOptions struct {
	SocketPath string
	Executor   runner.Executor
	Timeout    time.Duration
	// DenyCommands answers permission requests with a denial, which keeps
	// the organiser from launching git.
	DenyCommands bool
}

// TeaHost implements plugin.Host for the Bubble Tea loop. Calls made while
// the state handles an event only queue work; Drain hands the queued work to
// the program as commands.
type TeaHost struct {
	opts       HostOptions
	bus        *command.Bus
	layout     tmux.Layout
	subscribed map[plugin.EventKind]bool
	pending    []tea.Cmd

	// Batched commands run concurrently, so a rename may finish after a
	// newer one for the same window. Each rename carries a sequence number
	// and is dropped if a later one was already applied.
	issued    map[string]uint64
	appliedMu sync.Mutex
	applied   map[string]uint64
}

// NewTeaHost creates a host bound to the given tmux socket.
func NewTeaHost(opts HostOptions) *TeaHost {
	if opts.Executor == nil {
		opts.Executor = runner.NewRealExecutor()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultCommandTimeout
	}
	return &TeaHost{
		opts:       opts,
		bus:        command.New(),
		subscribed: map[plugin.EventKind]bool{},
		issued:     map[string]uint64{},
		applied:    map[string]uint64{},
	}
}

// SetLayout records the layout renames resolve ordinals against.
func (h *TeaHost) SetLayout(layout tmux.Layout) {
	h.layout = layout
}

// Subscribed reports whether events of kind should reach the state.
func (h *TeaHost) Subscribed(kind plugin.EventKind) bool {
	return h.subscribed[kind]
}

// Drain returns and clears the queued commands.
func (h *TeaHost) Drain() []tea.Cmd {
	out := h.pending
	h.pending = nil
	return out
}

func (h *TeaHost) RequestPermission(perms ...plugin.Permission) {
	granted := true
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.String())
		if p == plugin.RunCommands && h.opts.DenyCommands {
			granted = false
		}
	}
	h.queue(command.Request{
		Label: "permission " + strings.Join(names, ","),
		Run: func() (tea.Msg, error) {
			return plugin.PermissionResult{Granted: granted}, nil
		},
	})
}

func (h *TeaHost) Subscribe(kinds ...plugin.EventKind) {
	for _, k := range kinds {
		h.subscribed[k] = true
	}
}

func (h *TeaHost) RenameTab(ordinal uint32, name string) {
	win, ok := h.layout.WindowAt(int(ordinal))
	if !ok {
		logging.Errorf("rename tab %d: no window at that position", ordinal)
		return
	}
	socket := h.opts.SocketPath
	h.issued[win.ID]++
	seq := h.issued[win.ID]
	h.queue(command.Request{
		Label: fmt.Sprintf("rename %s", win.ID),
		Run: func() (tea.Msg, error) {
			h.appliedMu.Lock()
			defer h.appliedMu.Unlock()
			if h.applied[win.ID] > seq {
				return nil, nil
			}
			h.applied[win.ID] = seq
			err := renameWindow(socket, win.ID, name)
			return renameDoneMsg{ordinal: ordinal, name: name, err: err}, err
		},
	})
}

func (h *TeaHost) RunCommand(argv []string, env map[string]string, dir string, context map[string]string) {
	spec, ok := runner.SpecFromArgv(argv, dir, env)
	if !ok {
		logging.Errorf("run command: empty argv")
		return
	}
	exec := h.opts.Executor
	timeout := h.opts.Timeout
	echo := copyContext(context)
	h.queue(command.Request{
		Label: strings.Join(argv, " "),
		Run: func() (tea.Msg, error) {
			return runCommand(exec, timeout, spec, echo)
		},
	})
}

func runCommand(exec runner.Executor, timeout time.Duration, spec runner.Spec, echo map[string]string) (tea.Msg, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	res := exec.Run(ctx, spec)
	msg := plugin.CommandResult{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Context:  echo,
	}
	return msg, res.Err
}

func (h *TeaHost) queue(req command.Request) {
	h.pending = append(h.pending, h.bus.Execute(req))
}

func copyContext(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var _ plugin.Host = (*TeaHost)(nil)
