// Package ui contains the Bubble Tea program that runs the organiser. The
// program is the single event loop: every host event, pipe message and
// command result is applied to plugin.State from Model.Update, one at a time.
//
// Message flow:
//   - A backend.Watcher streams layout changes. Each backendEventMsg first
//     updates the TeaHost's window table, then hands its tab and pane
//     snapshots to the state.
//   - Pipe messages from the socket server arrive as pipeEventMsg and are
//     delivered as plugin.PipeMessage events.
//   - While the state handles an event it calls back into the TeaHost. The
//     host only queues work; Update drains the queue and returns it as
//     commands, which run off the loop through the command bus.
//   - Command results (permission answers, git lookups) come back as
//     plugin events and are filtered against the subscriptions the state
//     declared on load.
//
// The view is a status page listing tabs, their panes and reported
// directories, and the most recent pipe reports. Headless runs use the same
// model with input and output disabled.
package ui
