package events

import "github.com/atomicstack/tmux-tabdir/internal/logging"

type PipeTracer struct{}

var Pipe = PipeTracer{}

func (PipeTracer) Listen(socketPath string) {
	logging.Trace("pipe.listen", map[string]interface{}{"socket": socketPath})
}

func (PipeTracer) Receive(name string, payload *string) {
	entry := map[string]interface{}{"name": name}
	if payload != nil {
		entry["payload"] = *payload
	}
	logging.Trace("pipe.receive", entry)
}

func (PipeTracer) Ignore(name string) {
	logging.Trace("pipe.ignore", map[string]interface{}{"name": name})
}

func (PipeTracer) Reject(payload string, err error) {
	logging.Trace("pipe.reject", map[string]interface{}{"payload": payload, "error": errString(err)})
}

func (PipeTracer) Report(paneID uint32, path string) {
	logging.Trace("pipe.report", map[string]interface{}{"pane": paneID, "path": path})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
