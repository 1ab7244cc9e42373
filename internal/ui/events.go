package ui

import (
	tea "charm.land/bubbletea/v2"

	"github.com/atomicstack/tmux-tabdir/internal/backend"
	"github.com/atomicstack/tmux-tabdir/internal/logging"
	"github.com/atomicstack/tmux-tabdir/internal/pipe"
	"github.com/atomicstack/tmux-tabdir/internal/plugin"
)

func waitForBackendEvent(w *backend.Watcher) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-w.Events()
		if !ok {
			return backendDoneMsg{}
		}
		return backendEventMsg{event: evt}
	}
}

type backendEventMsg struct {
	event backend.Event
}

type backendDoneMsg struct{}

func waitForPipeMessage(ch <-chan pipe.Message) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return pipeDoneMsg{}
		}
		return pipeEventMsg{message: msg}
	}
}

type pipeEventMsg struct {
	message pipe.Message
}

type pipeDoneMsg struct{}

func (m *Model) handleBackendEventMsg(msg tea.Msg) tea.Cmd {
	eventMsg := msg.(backendEventMsg)
	m.applyBackendEvent(eventMsg.event)
	if m.watcher != nil {
		return waitForBackendEvent(m.watcher)
	}
	return nil
}

func (m *Model) handleBackendDoneMsg(tea.Msg) tea.Cmd {
	m.watcher = nil
	return nil
}

// applyBackendEvent updates the rename targets before the snapshots reach
// the state, so renames issued by the resulting naming pass address the
// windows just observed.
func (m *Model) applyBackendEvent(evt backend.Event) {
	if evt.Err != nil {
		m.lastErr = evt.Err.Error()
		logging.Errorf("backend poll: %w", evt.Err)
		return
	}
	m.lastErr = ""
	m.host.SetLayout(evt.Layout)
	for _, ev := range evt.Updates {
		m.deliver(ev)
	}
}

func (m *Model) handlePipeEventMsg(msg tea.Msg) tea.Cmd {
	eventMsg := msg.(pipeEventMsg)
	m.deliver(plugin.PipeMessage{Message: eventMsg.message})
	if m.pipe != nil {
		return waitForPipeMessage(m.pipe)
	}
	return nil
}

func (m *Model) handlePipeDoneMsg(tea.Msg) tea.Cmd {
	m.pipe = nil
	return nil
}
