package ui

import (
	"reflect"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	tea "charm.land/bubbletea/v2"

	"github.com/atomicstack/tmux-tabdir/internal/backend"
	"github.com/atomicstack/tmux-tabdir/internal/pipe"
	"github.com/atomicstack/tmux-tabdir/internal/plugin"
	"github.com/atomicstack/tmux-tabdir/internal/theme"
)

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Options wires a Model to its event sources.
type Options struct {
	Host          *TeaHost
	State         *plugin.State
	Watcher       *backend.Watcher
	Pipe          <-chan pipe.Message
	Configuration map[string]string
	Session       string
	AltScreen     bool
}

// Model implements the Bubble Tea model that runs the organiser.
type Model struct {
	host    *TeaHost
	state   *plugin.State
	watcher *backend.Watcher
	pipe    <-chan pipe.Message
	config  map[string]string
	session string
	alt     bool

	keys     keyMap
	help     help.Model
	width    int
	height   int
	lastErr  string
	handlers map[reflect.Type]msgHandler
}

// NewModel creates the model. The state is loaded in Init.
func NewModel(opts Options) *Model {
	host := opts.Host
	if host == nil {
		host = NewTeaHost(HostOptions{})
	}
	st := opts.State
	if st == nil {
		st = plugin.New(host)
	}
	m := &Model{
		host:    host,
		state:   st,
		watcher: opts.Watcher,
		pipe:    opts.Pipe,
		config:  opts.Configuration,
		session: opts.Session,
		alt:     opts.AltScreen,
		keys:    newKeyMap(),
		help:    help.New(),
	}
	m.registerHandlers()
	return m
}

// Init loads the organiser state and starts listening for events.
func (m *Model) Init() tea.Cmd {
	m.state.Load(m.config)
	cmds := m.host.Drain()
	if m.watcher != nil {
		cmds = append(cmds, waitForBackendEvent(m.watcher))
	}
	if m.pipe != nil {
		cmds = append(cmds, waitForPipeMessage(m.pipe))
	}
	return batch(cmds)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if handler := m.handlerFor(msg); handler != nil {
		if cmd := handler(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}
	cmds = append(cmds, m.host.Drain()...)
	return m, batch(cmds)
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyPressMsg{}):         m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}):       m.handleWindowSizeMsg,
		reflect.TypeOf(backendEventMsg{}):         m.handleBackendEventMsg,
		reflect.TypeOf(backendDoneMsg{}):          m.handleBackendDoneMsg,
		reflect.TypeOf(pipeEventMsg{}):            m.handlePipeEventMsg,
		reflect.TypeOf(pipeDoneMsg{}):             m.handlePipeDoneMsg,
		reflect.TypeOf(plugin.PermissionResult{}): m.handlePluginEvent,
		reflect.TypeOf(plugin.CommandResult{}):    m.handlePluginEvent,
		reflect.TypeOf(plugin.TabUpdate{}):        m.handlePluginEvent,
		reflect.TypeOf(plugin.PaneUpdate{}):       m.handlePluginEvent,
		reflect.TypeOf(plugin.PipeMessage{}):      m.handlePluginEvent,
		reflect.TypeOf(renameDoneMsg{}):           m.handleRenameDoneMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	return m.handlers[reflect.TypeOf(msg)]
}

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	keyMsg := msg.(tea.KeyPressMsg)
	switch {
	case key.Matches(keyMsg, m.keys.quit):
		return tea.Quit
	case key.Matches(keyMsg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return nil
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	size := msg.(tea.WindowSizeMsg)
	m.width = size.Width
	m.height = size.Height
	return nil
}

// handlePluginEvent delivers ev to the state if it is subscribed to its kind.
// Pipe messages are always delivered.
func (m *Model) handlePluginEvent(msg tea.Msg) tea.Cmd {
	ev, ok := msg.(plugin.Event)
	if !ok {
		return nil
	}
	m.deliver(ev)
	return nil
}

func (m *Model) deliver(ev plugin.Event) {
	if kind, ok := plugin.KindOf(ev); ok && !m.host.Subscribed(kind) {
		return
	}
	m.state.Update(ev)
}

func (m *Model) handleRenameDoneMsg(msg tea.Msg) tea.Cmd {
	done := msg.(renameDoneMsg)
	if done.err != nil {
		m.lastErr = done.err.Error()
	}
	return nil
}

// State exposes the organiser state.
func (m *Model) State() *plugin.State {
	return m.state
}

// LastError is the most recent backend or rename failure, if any.
func (m *Model) LastError() string {
	return m.lastErr
}

func batch(cmds []tea.Cmd) tea.Cmd {
	switch len(cmds) {
	case 0:
		return nil
	case 1:
		return cmds[0]
	default:
		return tea.Batch(cmds...)
	}
}
