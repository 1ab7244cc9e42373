package events

import "github.com/atomicstack/tmux-tabdir/internal/logging"

type ResolverTracer struct{}

var Resolver = ResolverTracer{}

func (ResolverTracer) Launch(request, path string) {
	logging.Trace("resolver.launch", map[string]interface{}{"request": request, "path": path})
}

func (ResolverTracer) Denied(path string) {
	logging.Trace("resolver.denied", map[string]interface{}{"path": path})
}

func (ResolverTracer) Resolved(path, root string) {
	logging.Trace("resolver.resolved", map[string]interface{}{"path": path, "root": root})
}

func (ResolverTracer) Failed(path string, exitCode int, stderr string) {
	logging.Trace("resolver.failed", map[string]interface{}{"path": path, "exit": exitCode, "stderr": stderr})
}

func (ResolverTracer) Permission(granted bool) {
	logging.Trace("resolver.permission", map[string]interface{}{"granted": granted})
}
