package backend

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/atomicstack/tmux-tabdir/internal/logging/events"
	"github.com/atomicstack/tmux-tabdir/internal/pipe"
	"github.com/atomicstack/tmux-tabdir/internal/plugin"
	"github.com/atomicstack/tmux-tabdir/internal/state"
	"github.com/atomicstack/tmux-tabdir/internal/tmux"
)

// Event conveys one poll's worth of changes, or the error that stopped it.
// Updates is empty when nothing changed.
type Event struct {
	Layout  tmux.Layout
	Updates []plugin.Event
	Err     error
}

// Options configures a Watcher.
type Options struct {
	SocketPath string
	Session    string
	Interval   time.Duration
	// PluginPane is the tmux id of the pane the organiser runs in.
	PluginPane string
	// SeedFromTmux reports each pane's tmux working directory through the
	// pipe ingestion path whenever it changes.
	SeedFromTmux bool
}

var fetchLayout = tmux.FetchLayout

// Watcher polls the session layout and publishes plugin events when it
// changes. A pane update always precedes the tab update of the same poll.
type Watcher struct {
	opts     Options
	throttle *throttle

	ctx    context.Context
	cancel context.CancelFunc

	events chan Event
	wg     sync.WaitGroup

	tabs  []state.Tab
	panes []state.Pane
	seen  map[uint32]string
	first bool
}

// NewWatcher starts polling immediately.
func NewWatcher(opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		opts:     opts,
		throttle: newThrottle(250 * time.Millisecond),
		ctx:      ctx,
		cancel:   cancel,
		events:   make(chan Event, 16),
		seen:     map[uint32]string{},
		first:    true,
	}
	w.wg.Add(1)
	go w.poll()
	go func() {
		w.wg.Wait()
		close(w.events)
	}()
	return w
}

// Events returns the channel of backend events. It closes after Stop once
// the poller has exited.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Stop cancels the watcher. The poller exits after its current fetch.
func (w *Watcher) Stop() {
	w.cancel()
}

// Wait blocks until the poller has exited and the events channel is closed.
func (w *Watcher) Wait() {
	w.wg.Wait()
}

func (w *Watcher) poll() {
	defer w.wg.Done()

	emit := func() bool {
		w.throttle.wait()
		evt, ok := w.fetch()
		if !ok {
			return true
		}
		select {
		case <-w.ctx.Done():
			return false
		case w.events <- evt:
			return true
		}
	}

	if !emit() {
		return
	}

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			if !emit() {
				return
			}
		}
	}
}

// fetch polls once. It reports false when nothing changed.
func (w *Watcher) fetch() (Event, bool) {
	layout, err := fetchLayout(w.opts.SocketPath, w.opts.Session)
	if err != nil {
		events.Backend.Error(err)
		return Event{Err: err}, true
	}
	updates := w.diff(layout)
	if len(updates) == 0 {
		return Event{}, false
	}
	events.Backend.Snapshot(len(layout.Windows), len(layout.Panes))
	return Event{Layout: layout, Updates: updates}, true
}

func (w *Watcher) diff(layout tmux.Layout) []plugin.Event {
	tabs, panes := Snapshot(layout, w.opts.PluginPane)
	// Panes go first. Renames address windows through the new layout, so a
	// pass over new pane positions with stale tab names can only repeat a
	// correct name, while new tabs with stale pane positions would name a
	// window after a neighbour's panes.
	var out []plugin.Event
	if w.first || !slices.Equal(panes, w.panes) {
		out = append(out, plugin.PaneUpdate{Panes: panes})
		w.panes = panes
	}
	if w.first || !slices.Equal(tabs, w.tabs) {
		out = append(out, plugin.TabUpdate{Tabs: tabs})
		w.tabs = tabs
	}
	w.first = false
	if w.opts.SeedFromTmux {
		out = append(out, w.seed(layout)...)
	}
	return out
}

func (w *Watcher) seed(layout tmux.Layout) []plugin.Event {
	var out []plugin.Event
	live := make(map[uint32]struct{}, len(layout.Panes))
	for _, p := range layout.Panes {
		live[p.Number] = struct{}{}
		if p.CurrentPath == "" || w.seen[p.Number] == p.CurrentPath {
			continue
		}
		w.seen[p.Number] = p.CurrentPath
		msg := pipe.NewMessage(plugin.Name, pipe.FormatReport(p.Number, p.CurrentPath))
		out = append(out, plugin.PipeMessage{Message: msg})
	}
	for id := range w.seen {
		if _, ok := live[id]; !ok {
			delete(w.seen, id)
		}
	}
	return out
}

// Snapshot converts a tmux layout into the organiser's tab and pane lists.
// Panes whose window is not in the layout are dropped.
func Snapshot(layout tmux.Layout, pluginPane string) ([]state.Tab, []state.Pane) {
	tabs := make([]state.Tab, 0, len(layout.Windows))
	positions := make(map[string]int, len(layout.Windows))
	for i, win := range layout.Windows {
		tabs = append(tabs, state.Tab{Position: i, Name: win.Name})
		positions[win.ID] = i
	}
	panes := make([]state.Pane, 0, len(layout.Panes))
	for _, p := range layout.Panes {
		pos, ok := positions[p.WindowID]
		if !ok {
			continue
		}
		panes = append(panes, state.Pane{
			ID:           p.Number,
			TabPosition:  pos,
			IsSuppressed: p.Dead || p.Ignored,
			IsPlugin:     pluginPane != "" && p.ID == pluginPane,
		})
	}
	return tabs, panes
}
