// Package cli wires the tmux-tabdir commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/atomicstack/tmux-tabdir/internal/app"
	"github.com/atomicstack/tmux-tabdir/internal/config"
	"github.com/atomicstack/tmux-tabdir/internal/logging"
)

// Exit codes returned by Execute.
const (
	ExitOK      = 0
	ExitRuntime = 1
	ExitConfig  = 2
)

// Env is what the commands see of the process they run in.
type Env struct {
	Args    []string
	Environ []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
	// OnStart runs once configuration is resolved, before any command.
	OnStart func(config.Config)
}

var runApp = app.Run

type configError struct {
	err error
}

func (e configError) Error() string { return e.err.Error() }
func (e configError) Unwrap() error { return e.err }

type commandState struct {
	env  Env
	opts *config.Options
	cfg  config.Config
}

// NewRootCommand builds the command tree. The organiser runs when no
// subcommand is given.
func NewRootCommand(ctx context.Context, env Env) *cobra.Command {
	st := &commandState{env: env}
	root := &cobra.Command{
		Use:   "tmux-tabdir",
		Short: "Name tmux windows after the directories their panes are in",
		Long: `tmux-tabdir watches a tmux session and renames each window after the
working directories of its panes, abbreviating git worktrees to the
repository name and the home directory to ~.

Panes report their directory through "tmux-tabdir report", usually from a
shell hook (see "tmux-tabdir hook"), or from tmux itself with --seed-from-tmux.`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: st.resolve,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.run(ctx)
		},
	}
	root.SetIn(env.Stdin)
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)
	root.SetArgs(env.Args)
	root.SetContext(ctx)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return configError{err: err}
	})
	st.opts = config.Register(root.PersistentFlags(), env.Environ)

	root.AddCommand(
		newRunCommand(ctx, st),
		newPipeCommand(ctx, st),
		newReportCommand(ctx, st),
		newHookCommand(st),
		newListCommand(ctx, st),
	)
	return root
}

// Execute runs the command line and maps failures to exit codes.
func Execute(ctx context.Context, env Env) int {
	root := NewRootCommand(ctx, env)
	err := root.Execute()
	if err == nil {
		return ExitOK
	}
	logging.Error(err)
	var cfgErr configError
	if errors.As(err, &cfgErr) {
		fmt.Fprintf(env.Stderr, "Configuration error: %v\n", err)
		return ExitConfig
	}
	fmt.Fprintf(env.Stderr, "Error: %v\n", err)
	return ExitRuntime
}

func (st *commandState) resolve(cmd *cobra.Command, args []string) error {
	cfg, err := st.opts.Resolve(args)
	if err != nil {
		return configError{err: err}
	}
	st.cfg = cfg
	logging.Configure(cfg.Logging.FilePath)
	logging.SetTraceEnabled(cfg.Logging.Trace)
	if st.env.OnStart != nil {
		st.env.OnStart(cfg)
	}
	return nil
}

func (st *commandState) run(ctx context.Context) error {
	return runApp(ctx, st.cfg.App)
}

func newRunCommand(ctx context.Context, st *commandState) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the organiser (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return st.run(ctx)
		},
	}
}
