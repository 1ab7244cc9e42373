package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/atomicstack/tmux-tabdir/internal/pipe"
	"github.com/atomicstack/tmux-tabdir/internal/plugin"
	"github.com/atomicstack/tmux-tabdir/internal/tmux"
)

const sendTimeout = 2 * time.Second

var sendMessage = pipe.Send

func (st *commandState) pipeSocket() string {
	if st.cfg.App.PipeSocket != "" {
		return st.cfg.App.PipeSocket
	}
	return pipe.DefaultSocketPath()
}

func (st *commandState) send(ctx context.Context, msg pipe.Message) error {
	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	socket := st.pipeSocket()
	if err := sendMessage(ctx, socket, msg); err != nil {
		return fmt.Errorf("send to %s: %w", socket, err)
	}
	return nil
}

func newPipeCommand(ctx context.Context, st *commandState) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "pipe PAYLOAD",
		Short: "Send a raw message to the running organiser",
		Long: `Send a raw message to the running organiser. A payload of "-" reads one
line from standard input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := args[0]
			if payload == "-" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read payload: %w", err)
				}
				payload = strings.TrimRight(line, "\r\n")
			}
			return st.send(ctx, pipe.NewMessage(name, payload))
		},
	}
	cmd.Flags().StringVar(&name, "name", plugin.Name, "message name tag")
	return cmd
}

func newReportCommand(ctx context.Context, st *commandState) *cobra.Command {
	return &cobra.Command{
		Use:   "report [PANE] [DIR]",
		Short: "Report a pane's working directory",
		Long: `Report a pane's working directory to the running organiser. PANE defaults
to $TMUX_PANE and DIR to the current directory.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pane := tmux.CurrentPaneID()
			if len(args) > 0 {
				pane = args[0]
			}
			id, ok := tmux.PaneNumber(pane)
			if !ok {
				return fmt.Errorf("pane id %q: want %%N or N (is $TMUX_PANE set?)", pane)
			}
			dir := ""
			if len(args) > 1 {
				dir = args[1]
			} else {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = wd
			}
			abs, err := filepath.Abs(dir)
			if err != nil {
				return err
			}
			return st.send(ctx, pipe.NewMessage(plugin.Name, pipe.FormatReport(id, abs)))
		},
	}
}
