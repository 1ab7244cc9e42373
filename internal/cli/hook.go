package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var hookScripts = map[string]string{
	"bash": `__tmux_tabdir_report() {
  [ -n "$TMUX_PANE" ] || return
  if [ "$__tmux_tabdir_last" != "$PWD" ]; then
    __tmux_tabdir_last="$PWD"
    %[1]s report >/dev/null 2>&1 &
    disown 2>/dev/null
  fi
}
case ";$PROMPT_COMMAND;" in
  *";__tmux_tabdir_report;"*) ;;
  *) PROMPT_COMMAND="__tmux_tabdir_report${PROMPT_COMMAND:+;$PROMPT_COMMAND}" ;;
esac
`,
	"zsh": `__tmux_tabdir_report() {
  [[ -n "$TMUX_PANE" ]] || return
  ( %[1]s report >/dev/null 2>&1 & )
}
autoload -Uz add-zsh-hook
add-zsh-hook chpwd __tmux_tabdir_report
__tmux_tabdir_report
`,
	"fish": `function __tmux_tabdir_report --on-variable PWD
  test -n "$TMUX_PANE"; or return
  %[1]s report >/dev/null 2>&1 &
end
__tmux_tabdir_report
`,
}

func newHookCommand(st *commandState) *cobra.Command {
	return &cobra.Command{
		Use:       "hook [bash|zsh|fish]",
		Short:     "Print a shell hook that reports directory changes",
		Long:      `Print a shell hook that reports directory changes. Add eval "$(tmux-tabdir hook zsh)" to your shell rc file.`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := filepath.Base(os.Getenv("SHELL"))
			if len(args) > 0 {
				shell = args[0]
			}
			script, ok := hookScripts[shell]
			if !ok {
				return fmt.Errorf("unsupported shell %q (want bash, zsh or fish)", shell)
			}
			fmt.Fprintf(cmd.OutOrStdout(), script, st.hookCommand())
			return nil
		},
	}
}

// hookCommand is the command line the hook invokes, carrying the pipe socket
// when one was configured.
func (st *commandState) hookCommand() string {
	bin := "tmux-tabdir"
	if exe, err := os.Executable(); err == nil {
		bin = fmt.Sprintf("%q", exe)
	}
	if socket := st.cfg.App.PipeSocket; socket != "" {
		bin += fmt.Sprintf(" --pipe-socket %q", socket)
	}
	return bin
}
