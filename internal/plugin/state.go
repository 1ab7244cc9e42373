// Package plugin holds the organiser's state and routes host events into it.
//
// State is owned by a single event loop: every method runs to completion
// before the next event is delivered, so nothing here is locked. Host calls
// made while handling an event (renames, command launches) are requests; their
// outcomes come back as later events.
package plugin

import (
	"strconv"
	"strings"
	"time"

	"github.com/atomicstack/tmux-tabdir/internal/gitroot"
	"github.com/atomicstack/tmux-tabdir/internal/logging"
	"github.com/atomicstack/tmux-tabdir/internal/logging/events"
	"github.com/atomicstack/tmux-tabdir/internal/organizer"
	"github.com/atomicstack/tmux-tabdir/internal/pipe"
	"github.com/atomicstack/tmux-tabdir/internal/state"
)

// Configuration keys understood by Load.
const (
	KeyHomeDir          = "home_dir"
	KeyMaxNameWidth     = "max_name_width"
	KeyGitRetryAfter    = "git_retry_after"
	KeyPruneClosedPanes = "prune_closed_panes"
)

const receivedLimit = 32

// State is the organiser's aggregate: tab and pane snapshots, reported
// working directories, permission status and the git root cache.
type State struct {
	host          Host
	configuration map[string]string

	tabs       state.TabStore
	panes      state.PaneStore
	dirs       *state.WorkingDirs
	permission PermissionStatus
	resolver   *gitroot.Resolver
	engine     *organizer.Engine
	prune      bool

	received []pipe.Message
	renames  int
}

// New creates an empty state bound to host. Resolver options are applied
// before any configuration is loaded.
func New(host Host, opts ...gitroot.Option) *State {
	s := &State{
		host:          host,
		configuration: map[string]string{},
		tabs:          state.NewTabStore(),
		panes:         state.NewPaneStore(),
		dirs:          state.NewWorkingDirs(),
		resolver:      gitroot.New(Name, host, opts...),
	}
	s.engine = &organizer.Engine{Paths: organizer.Formatter{Roots: s.resolver}}
	return s
}

// Load applies the configuration map, requests permissions and subscribes
// to the events the organiser reacts to.
func (s *State) Load(configuration map[string]string) {
	s.configuration = make(map[string]string, len(configuration))
	for k, v := range configuration {
		s.configuration[k] = v
	}
	events.App.Load(s.configuration)

	s.engine.Paths = organizer.Formatter{Roots: s.resolver, Home: strings.TrimSpace(s.configuration[KeyHomeDir])}
	if raw, ok := s.configuration[KeyMaxNameWidth]; ok && strings.TrimSpace(raw) != "" {
		width, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || width < 0 {
			logging.Errorf("ignoring %s=%q: want a non-negative integer", KeyMaxNameWidth, raw)
		} else {
			s.engine.MaxWidth = width
		}
	}
	if raw, ok := s.configuration[KeyGitRetryAfter]; ok && strings.TrimSpace(raw) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil || d < 0 {
			logging.Errorf("ignoring %s=%q: want a duration", KeyGitRetryAfter, raw)
		} else {
			gitroot.WithRetryAfter(d)(s.resolver)
		}
	}
	if raw, ok := s.configuration[KeyPruneClosedPanes]; ok && strings.TrimSpace(raw) != "" {
		prune, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			logging.Errorf("ignoring %s=%q: want a boolean", KeyPruneClosedPanes, raw)
		} else {
			s.prune = prune
		}
	}

	s.host.RequestPermission(ReadApplicationState, ChangeApplicationState, RunCommands)
	s.host.Subscribe(KindTabUpdate, KindPaneUpdate, KindPermissionResult, KindCommandResult)
}

// Update applies one host event. It reports whether anything visible changed.
func (s *State) Update(ev Event) bool {
	switch e := ev.(type) {
	case TabUpdate:
		s.tabs.SetEntries(e.Tabs)
		s.Organize()
		return true
	case PaneUpdate:
		s.panes.SetEntries(e.Panes)
		if s.prune {
			s.dirs.Prune(s.panes.IDs())
		}
		s.Organize()
		return true
	case PermissionResult:
		return s.setPermission(e.Granted)
	case CommandResult:
		return s.handleCommandResult(e)
	case PipeMessage:
		return s.Pipe(e.Message)
	default:
		logging.Errorf("unhandled event %T", ev)
		return false
	}
}

// Pipe ingests a message from the pipe channel. Only working-directory
// reports addressed to this plugin are accepted.
func (s *State) Pipe(msg pipe.Message) bool {
	if msg.Name != Name {
		events.Pipe.Ignore(msg.Name)
		return false
	}
	report, err := pipe.ParseReport(msg.Payload)
	if err != nil {
		payload := ""
		if msg.Payload != nil {
			payload = *msg.Payload
		}
		events.Pipe.Reject(payload, err)
		logging.Errorf("pipe message rejected: %w", err)
		return false
	}
	events.Pipe.Report(report.PaneID, report.Path)
	s.remember(msg)
	s.dirs.Set(report.PaneID, report.Path)
	s.Organize()
	return true
}

// Organize runs a naming pass over the current snapshots.
func (s *State) Organize() int {
	n := s.engine.Organize(s.tabs, s.panes.Entries(), s.dirs, s.host)
	s.renames += n
	return n
}

func (s *State) setPermission(granted bool) bool {
	if s.permission != PermissionUnknown {
		logging.Errorf("permission already %s; ignoring later result", s.permission)
		return false
	}
	if granted {
		s.permission = PermissionGranted
	} else {
		s.permission = PermissionDenied
	}
	s.resolver.SetPermission(granted)
	if granted {
		s.Organize()
	}
	return true
}

func (s *State) handleCommandResult(res CommandResult) bool {
	if !s.resolver.Owns(res.Context) {
		return false
	}
	if !s.resolver.HandleResult(gitroot.Result{
		ExitCode: res.ExitCode,
		Stdout:   res.Stdout,
		Stderr:   res.Stderr,
		Context:  res.Context,
	}) {
		return false
	}
	s.Organize()
	return true
}

func (s *State) remember(msg pipe.Message) {
	s.received = append(s.received, msg)
	if over := len(s.received) - receivedLimit; over > 0 {
		s.received = append([]pipe.Message(nil), s.received[over:]...)
	}
}

// Tabs returns the current tab snapshot, including names applied by the
// organiser since the last host update.
func (s *State) Tabs() []state.Tab {
	return s.tabs.Entries()
}

func (s *State) Panes() []state.Pane {
	return s.panes.Entries()
}

// WorkingDirs returns a copy of the reported directories.
func (s *State) WorkingDirs() map[uint32]string {
	return s.dirs.Snapshot()
}

func (s *State) Permission() PermissionStatus {
	return s.permission
}

// Received returns the most recent accepted pipe messages, oldest first.
func (s *State) Received() []pipe.Message {
	return append([]pipe.Message(nil), s.received...)
}

// Renames reports how many renames have been issued.
func (s *State) Renames() int {
	return s.renames
}

// Configuration returns the loaded configuration map.
func (s *State) Configuration() map[string]string {
	out := make(map[string]string, len(s.configuration))
	for k, v := range s.configuration {
		out[k] = v
	}
	return out
}
