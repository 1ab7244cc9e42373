package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/atomicstack/tmux-tabdir/internal/backend"
	"github.com/atomicstack/tmux-tabdir/internal/logging"
	"github.com/atomicstack/tmux-tabdir/internal/logging/events"
	"github.com/atomicstack/tmux-tabdir/internal/pipe"
	"github.com/atomicstack/tmux-tabdir/internal/tmux"
	"github.com/atomicstack/tmux-tabdir/internal/ui"
)

// Config describes user-provided application options.
type Config struct {
	SocketPath     string
	Session        string
	PipeSocket     string
	PollInterval   time.Duration
	UI             bool
	SeedFromTmux   bool
	DisableGit     bool
	CommandTimeout time.Duration
	// Plugin is the flat configuration map handed to the organiser on load.
	Plugin map[string]string
}

const pipeBuffer = 64

// Run starts the pipe server and the tmux watcher, then drives the organiser
// until ctx is cancelled or the user quits the status view.
func Run(ctx context.Context, cfg Config) error {
	socketPath, err := tmux.ResolveSocketPath(cfg.SocketPath)
	if err != nil {
		return fmt.Errorf("resolve socket path: %w", err)
	}
	defer tmux.Shutdown()

	session := cfg.Session
	if session == "" {
		session, err = tmux.CurrentSession(socketPath)
		if err != nil {
			return fmt.Errorf("resolve session: %w", err)
		}
	}

	pipeSocket := cfg.PipeSocket
	if pipeSocket == "" {
		pipeSocket = pipe.DefaultSocketPath()
	}
	messages := make(chan pipe.Message, pipeBuffer)
	sinkCtx, stopSink := context.WithCancel(ctx)
	server, err := pipe.Listen(pipeSocket, func(msg pipe.Message) {
		select {
		case messages <- msg:
		case <-sinkCtx.Done():
		}
	})
	if err != nil {
		stopSink()
		return fmt.Errorf("listen on %s: %w", pipeSocket, err)
	}
	go server.Serve()
	defer func() {
		stopSink()
		if err := server.Close(); err != nil {
			logging.Error(err)
		}
		close(messages)
	}()

	watcher := backend.NewWatcher(backend.Options{
		SocketPath:   socketPath,
		Session:      session,
		Interval:     cfg.PollInterval,
		PluginPane:   tmux.CurrentPaneID(),
		SeedFromTmux: cfg.SeedFromTmux,
	})
	defer watcher.Stop()

	host := ui.NewTeaHost(ui.HostOptions{
		SocketPath:   socketPath,
		Timeout:      cfg.CommandTimeout,
		DenyCommands: cfg.DisableGit,
	})
	model := ui.NewModel(ui.Options{
		Host:          host,
		Watcher:       watcher,
		Pipe:          messages,
		Configuration: cfg.Plugin,
		Session:       session,
		AltScreen:     cfg.UI,
	})

	events.App.Ready(map[string]interface{}{
		"socket":  socketPath,
		"session": session,
		"pipe":    pipeSocket,
		"ui":      cfg.UI,
	})

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !cfg.UI {
		opts = append(opts, tea.WithInput(nil), tea.WithOutput(io.Discard))
	}
	program := tea.NewProgram(model, opts...)
	_, err = program.Run()
	switch {
	case err == nil:
		events.App.Stop("quit")
		return nil
	case errors.Is(err, tea.ErrProgramKilled), errors.Is(err, context.Canceled):
		events.App.Stop("signal")
		return nil
	default:
		events.App.Stop(err.Error())
		return err
	}
}
