package pipe

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/atomicstack/tmux-tabdir/internal/logging"
	"github.com/atomicstack/tmux-tabdir/internal/logging/events"
)

const (
	maxLineBytes = 1 << 20
	writeTimeout = 5 * time.Second
)

// DefaultSocketPath is the per-user socket the organiser listens on.
func DefaultSocketPath() string {
	return filepath.Join(os.TempDir(), fmt.Sprintf("tmux-tabdir-%d.sock", os.Getuid()))
}

// Server accepts newline-delimited JSON messages on a unix socket and hands
// each decoded message to a sink.
type Server struct {
	socketPath string
	listener   net.Listener
	sink       func(Message)

	mu     sync.Mutex
	closed bool
	conns  map[net.Conn]struct{}
	wg     sync.WaitGroup
}

// Listen binds the unix socket, replacing a stale socket file if present.
func Listen(socketPath string, sink func(Message)) (*Server, error) {
	if strings.TrimSpace(socketPath) == "" {
		socketPath = DefaultSocketPath()
	}
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	_ = os.Remove(socketPath)
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", socketPath, err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("chmod %s: %w", socketPath, err)
	}
	events.Pipe.Listen(socketPath)
	return &Server{
		socketPath: socketPath,
		listener:   listener,
		sink:       sink,
		conns:      make(map[net.Conn]struct{}),
	}, nil
}

// SocketPath reports the bound socket.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Serve accepts connections until Close is called.
func (s *Server) Serve() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.isClosed() {
				return
			}
			logging.Errorf("pipe accept: %w", err)
			continue
		}
		if !s.track(conn) {
			conn.Close()
			return
		}
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxLineBytes)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var msg Message
		if err := json.Unmarshal([]byte(line), &msg); err != nil {
			logging.Errorf("pipe decode %q: %w", line, err)
			continue
		}
		events.Pipe.Receive(msg.Name, msg.Payload)
		if s.sink != nil {
			s.sink(msg)
		}
	}
	if err := scanner.Err(); err != nil && !s.isClosed() {
		logging.Errorf("pipe read: %w", err)
	}
}

// Close stops accepting, drops open connections and removes the socket file.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	err := s.listener.Close()
	s.wg.Wait()
	if rmErr := os.Remove(s.socketPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
		err = rmErr
	}
	return err
}

func (s *Server) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// track registers conn with the wait group under the same lock Close takes,
// so once Close returns no handler can reach the sink.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}

// Send delivers msg to the organiser listening on socketPath.
func Send(ctx context.Context, socketPath string, msg Message) error {
	if strings.TrimSpace(socketPath) == "" {
		socketPath = DefaultSocketPath()
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return fmt.Errorf("dial %s: %w", socketPath, err)
	}
	defer conn.Close()
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := json.NewEncoder(conn).Encode(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
