package plugin

import (
	"github.com/atomicstack/tmux-tabdir/internal/pipe"
	"github.com/atomicstack/tmux-tabdir/internal/state"
)

// EventKind names a host event stream that can be subscribed to.
type EventKind int

const (
	KindTabUpdate EventKind = iota
	KindPaneUpdate
	KindPermissionResult
	KindCommandResult
)

func (k EventKind) String() string {
	switch k {
	case KindTabUpdate:
		return "tab-update"
	case KindPaneUpdate:
		return "pane-update"
	case KindPermissionResult:
		return "permission-result"
	case KindCommandResult:
		return "command-result"
	default:
		return "unknown"
	}
}

// Event is a host notification. The set of implementations is closed.
type Event interface {
	isEvent()
}

// TabUpdate replaces the tab list.
type TabUpdate struct {
	Tabs []state.Tab
}

// PaneUpdate replaces the pane list.
type PaneUpdate struct {
	Panes []state.Pane
}

// PermissionResult answers a permission request.
type PermissionResult struct {
	Granted bool
}

// CommandResult carries the outcome of a command started with
// Host.RunCommand, echoing the context it was launched with.
type CommandResult struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Context  map[string]string
}

// PipeMessage is a message received on the pipe channel.
type PipeMessage struct {
	Message pipe.Message
}

func (TabUpdate) isEvent()        {}
func (PaneUpdate) isEvent()       {}
func (PermissionResult) isEvent() {}
func (CommandResult) isEvent()    {}
func (PipeMessage) isEvent()      {}

// KindOf maps an event to its subscription stream. Pipe messages are always
// delivered and report false.
func KindOf(ev Event) (EventKind, bool) {
	switch ev.(type) {
	case TabUpdate:
		return KindTabUpdate, true
	case PaneUpdate:
		return KindPaneUpdate, true
	case PermissionResult:
		return KindPermissionResult, true
	case CommandResult:
		return KindCommandResult, true
	default:
		return 0, false
	}
}
