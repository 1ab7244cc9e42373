package events

import "github.com/atomicstack/tmux-tabdir/internal/logging"

type CommandTracer struct{}

type BackendTracer struct{}

var (
	Command = CommandTracer{}
	Backend = BackendTracer{}
)

func (CommandTracer) Queue(id, label string) {
	logging.Trace("command.queue", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Result(id, label string, err error) {
	logging.Trace("command.result", map[string]interface{}{"id": id, "label": label, "error": errString(err)})
}

func (BackendTracer) Snapshot(windows, panes int) {
	logging.Trace("backend.snapshot", map[string]interface{}{"windows": windows, "panes": panes})
}

func (BackendTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("backend.error", map[string]interface{}{"error": err.Error()})
}
