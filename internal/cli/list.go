package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/spf13/cobra"

	"github.com/atomicstack/tmux-tabdir/internal/backend"
	"github.com/atomicstack/tmux-tabdir/internal/format/table"
	"github.com/atomicstack/tmux-tabdir/internal/pipe"
	"github.com/atomicstack/tmux-tabdir/internal/plugin"
	"github.com/atomicstack/tmux-tabdir/internal/runner"
	"github.com/atomicstack/tmux-tabdir/internal/tmux"
)

var (
	fetchLayout    = tmux.FetchLayout
	currentSession = tmux.CurrentSession
	renameWindow   = tmux.RenameWindow
	newExecutor    = func() runner.Executor { return runner.NewRealExecutor() }
)

// Proposal is one window's current and computed name.
type Proposal struct {
	Window   tmux.Window
	Position int
	Current  string
	Proposed string
}

// Changed reports whether applying the proposal would rename the window.
func (p Proposal) Changed() bool {
	return p.Proposed != p.Current
}

func newListCommand(ctx context.Context, st *commandState) *cobra.Command {
	var filter string
	var apply bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show the names the organiser would give each window",
		Long: `Show the names the organiser would give each window, using tmux's idea of
each pane's current directory. With --apply the windows are renamed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			socket, err := tmux.ResolveSocketPath(st.cfg.App.SocketPath)
			if err != nil {
				return fmt.Errorf("resolve socket path: %w", err)
			}
			defer tmux.Shutdown()
			session := st.cfg.App.Session
			if session == "" {
				if session, err = currentSession(socket); err != nil {
					return fmt.Errorf("resolve session: %w", err)
				}
			}
			layout, err := fetchLayout(socket, session)
			if err != nil {
				return err
			}
			proposals := Propose(ctx, layout, st.cfg.App.Plugin, ProposeOptions{
				Executor:   newExecutor(),
				Timeout:    st.cfg.App.CommandTimeout,
				DisableGit: st.cfg.App.DisableGit,
				PluginPane: tmux.CurrentPaneID(),
			})
			proposals = FilterProposals(proposals, filter)

			rows := [][]string{{"INDEX", "CURRENT", "PROPOSED"}}
			for _, p := range proposals {
				rows = append(rows, []string{strconv.Itoa(p.Window.Index), p.Current, p.Proposed})
			}
			out := cmd.OutOrStdout()
			for _, line := range table.Format(rows, []table.Alignment{table.AlignRight}) {
				fmt.Fprintln(out, line)
			}
			if !apply {
				return nil
			}
			for _, p := range proposals {
				if !p.Changed() {
					continue
				}
				if err := renameWindow(socket, p.Window.ID, p.Proposed); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "", "only show windows whose current or proposed name fuzzy-matches")
	cmd.Flags().BoolVar(&apply, "apply", false, "rename the listed windows")
	return cmd
}

// FilterProposals keeps proposals whose current or proposed name fuzzy
// matches query. An empty query keeps everything.
func FilterProposals(proposals []Proposal, query string) []Proposal {
	if query == "" {
		return proposals
	}
	out := make([]Proposal, 0, len(proposals))
	for _, p := range proposals {
		if fuzzy.MatchFold(query, p.Current) || fuzzy.MatchFold(query, p.Proposed) {
			out = append(out, p)
		}
	}
	return out
}

// ProposeOptions controls a one-shot naming run.
type ProposeOptions struct {
	Executor   runner.Executor
	Timeout    time.Duration
	DisableGit bool
	PluginPane string
}

// Propose runs the organiser once over layout, using each pane's tmux
// working directory as its report. Git lookups run synchronously.
func Propose(ctx context.Context, layout tmux.Layout, configuration map[string]string, opts ProposeOptions) []Proposal {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Executor == nil {
		opts.Executor = runner.NewRealExecutor()
	}
	host := &syncHost{renames: map[uint32]string{}}
	st := plugin.New(host)
	st.Load(configuration)
	st.Update(plugin.PermissionResult{Granted: !opts.DisableGit})

	tabs, panes := backend.Snapshot(layout, opts.PluginPane)
	st.Update(plugin.TabUpdate{Tabs: tabs})
	st.Update(plugin.PaneUpdate{Panes: panes})
	for _, p := range layout.Panes {
		if p.CurrentPath == "" {
			continue
		}
		st.Update(plugin.PipeMessage{Message: pipe.NewMessage(plugin.Name, pipe.FormatReport(p.Number, p.CurrentPath))})
	}
	host.drain(ctx, st, opts)

	proposals := make([]Proposal, 0, len(layout.Windows))
	for i, win := range layout.Windows {
		proposed := win.Name
		if name, ok := host.renames[uint32(i+1)]; ok {
			proposed = name
		}
		proposals = append(proposals, Proposal{Window: win, Position: i, Current: win.Name, Proposed: proposed})
	}
	return proposals
}

// syncHost records renames and queues command launches so they can be run
// to completion between events.
type syncHost struct {
	renames  map[uint32]string
	commands []queuedCommand
}

type queuedCommand struct {
	spec    runner.Spec
	context map[string]string
}

func (h *syncHost) RequestPermission(...plugin.Permission) {}

func (h *syncHost) Subscribe(...plugin.EventKind) {}

func (h *syncHost) RenameTab(ordinal uint32, name string) {
	h.renames[ordinal] = name
}

func (h *syncHost) RunCommand(argv []string, env map[string]string, dir string, context map[string]string) {
	spec, ok := runner.SpecFromArgv(argv, dir, env)
	if !ok {
		return
	}
	h.commands = append(h.commands, queuedCommand{spec: spec, context: context})
}

func (h *syncHost) drain(ctx context.Context, st *plugin.State, opts ProposeOptions) {
	for len(h.commands) > 0 {
		next := h.commands[0]
		h.commands = h.commands[1:]
		runCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		res := opts.Executor.Run(runCtx, next.spec)
		cancel()
		st.Update(plugin.CommandResult{
			ExitCode: res.ExitCode,
			Stdout:   res.Stdout,
			Stderr:   res.Stderr,
			Context:  next.context,
		})
	}
}
