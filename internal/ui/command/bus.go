package command

import (
	"fmt"
	"sync/atomic"

	tea "charm.land/bubbletea/v2"

	"github.com/atomicstack/tmux-tabdir/internal/logging"
	"github.com/atomicstack/tmux-tabdir/internal/logging/events"
)

// Request is one host side effect to run off the event loop.
type Request struct {
	Label string
	// Run performs the work and returns the message to feed back into the
	// loop, or nil.
	Run func() (tea.Msg, error)
}

// Bus turns host side effects into Bubble Tea commands.
type Bus struct {
	seq atomic.Uint64
}

// New initialises a command bus instance.
func New() *Bus {
	return &Bus{}
}

// Execute wraps req into a command while emitting trace logs. Errors are
// logged; the returned message is delivered either way.
func (b *Bus) Execute(req Request) tea.Cmd {
	id := fmt.Sprintf("cmd-%d", b.seq.Add(1))
	events.Command.Queue(id, req.Label)
	return func() tea.Msg {
		if req.Run == nil {
			events.Command.Result(id, req.Label, nil)
			return nil
		}
		msg, err := req.Run()
		events.Command.Result(id, req.Label, err)
		if err != nil {
			logging.Errorf("%s: %w", req.Label, err)
		}
		return msg
	}
}
