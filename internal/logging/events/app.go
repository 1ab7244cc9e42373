package events

import "github.com/atomicstack/tmux-tabdir/internal/logging"

type AppTracer struct{}

var App = AppTracer{}

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

// Ready records the resolved session and sockets once the loop is about to run.
func (AppTracer) Ready(payload map[string]interface{}) {
	logging.Trace("app.ready", payload)
}

func (AppTracer) Load(configuration map[string]string) {
	logging.Trace("app.load", map[string]interface{}{"configuration": configuration})
}

func (AppTracer) Stop(reason string) {
	logging.Trace("app.stop", map[string]interface{}{"reason": reason})
}
