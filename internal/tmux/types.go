package tmux

import (
	"os/exec"
	"sync"

	gotmux "github.com/atomicstack/gotmuxcc/gotmuxcc"
)

// Window is one window of the organised session.
type Window struct {
	ID      string
	Session string
	Index   int
	Name    string
}

// Pane is one pane of the organised session.
type Pane struct {
	ID          string
	Number      uint32
	Session     string
	WindowID    string
	Dead        bool
	Ignored     bool
	CurrentPath string
}

// Layout is a consistent view of a session's windows and panes, windows
// ordered by index.
type Layout struct {
	Session string
	Windows []Window
	Panes   []Pane
}

type tmuxClient interface {
	ListClients() ([]*gotmux.Client, error)
	DisplayMessage(target, format string) (string, error)
	ListWindowsFormat(target, filter, format string) ([]string, error)
	ListPanesFormat(target, filter, format string) ([]string, error)
	Close() error
}

type commander interface {
	Run() error
	Output() ([]byte, error)
}

type realCommander struct {
	cmd *exec.Cmd
}

func (r realCommander) Run() error {
	return r.cmd.Run()
}

func (r realCommander) Output() ([]byte, error) {
	return r.cmd.Output()
}

var (
	clientMu     sync.Mutex
	cachedClient tmuxClient
	cachedSocket string

	dial = func(socketPath string) (tmuxClient, error) {
		if socketPath != "" {
			return gotmux.NewTmux(socketPath)
		}
		return gotmux.DefaultTmux()
	}

	runExecCommand = func(name string, args ...string) commander {
		return realCommander{cmd: exec.Command(name, args...)}
	}
)

// newTmux returns the control-mode connection for socketPath, reusing the
// previous one while the socket is unchanged.
func newTmux(socketPath string) (tmuxClient, error) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if cachedClient != nil && cachedSocket == socketPath {
		return cachedClient, nil
	}
	if cachedClient != nil {
		_ = cachedClient.Close()
		cachedClient = nil
	}
	client, err := dial(socketPath)
	if err != nil {
		return nil, err
	}
	cachedClient = client
	cachedSocket = socketPath
	return client, nil
}

// dropClient discards the cached connection after a failed call so the next
// call reconnects.
func dropClient(client tmuxClient) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if cachedClient == client && client != nil {
		_ = client.Close()
		cachedClient = nil
		cachedSocket = ""
	}
}

// Shutdown closes the cached control-mode connection.
func Shutdown() {
	clientMu.Lock()
	defer clientMu.Unlock()
	if cachedClient != nil {
		_ = cachedClient.Close()
	}
	cachedClient = nil
	cachedSocket = ""
}
