package pipe

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func startServer(t *testing.T) (*Server, <-chan Message) {
	t.Helper()
	// unix socket paths are length limited, keep them short
	dir, err := os.MkdirTemp("", "tabdir")
	if err != nil {
		t.Fatalf("temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	messages := make(chan Message, 8)
	srv, err := Listen(filepath.Join(dir, "p.sock"), func(m Message) { messages <- m })
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.Serve()
	t.Cleanup(func() { srv.Close() })
	return srv, messages
}

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case m := <-ch:
		return m
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for message")
	}
	return Message{}
}

func TestSendDeliversMessage(t *testing.T) {
	srv, messages := startServer(t)
	if err := Send(context.Background(), srv.SocketPath(), NewMessage("tmux-tabdir", `"1" "/tmp"`)); err != nil {
		t.Fatalf("send: %v", err)
	}
	m := receive(t, messages)
	if m.Name != "tmux-tabdir" || m.Payload == nil || *m.Payload != `"1" "/tmp"` {
		t.Fatalf("unexpected message %#v", m)
	}
}

func TestServerSkipsMalformedLines(t *testing.T) {
	srv, messages := startServer(t)
	conn, err := net.Dial("unix", srv.SocketPath())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	fmt.Fprint(conn, "not json\n\n{\"name\":\"a\"}\n{\"name\":\"b\",\"payload\":\"x\"}\n")

	first := receive(t, messages)
	if first.Name != "a" || first.Payload != nil {
		t.Fatalf("unexpected first message %#v", first)
	}
	second := receive(t, messages)
	if second.Name != "b" || *second.Payload != "x" {
		t.Fatalf("unexpected second message %#v", second)
	}
}

func TestCloseRemovesSocket(t *testing.T) {
	srv, _ := startServer(t)
	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(srv.SocketPath()); !os.IsNotExist(err) {
		t.Fatalf("expected socket file removed, got %v", err)
	}
	if err := srv.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
	if err := Send(context.Background(), srv.SocketPath(), NewMessage("x", "y")); err == nil {
		t.Fatalf("expected send to a closed server to fail")
	}
}

func TestNoSinkCallsAfterClose(t *testing.T) {
	dir, err := os.MkdirTemp("", "tabdir")
	if err != nil {
		t.Fatalf("temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	for i := 0; i < 20; i++ {
		var closed atomic.Bool
		var late atomic.Int32
		srv, err := Listen(filepath.Join(dir, "p.sock"), func(Message) {
			if closed.Load() {
				late.Add(1)
			}
		})
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		go srv.Serve()

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					ctx, cancel := context.WithTimeout(context.Background(), time.Second)
					err := Send(ctx, srv.SocketPath(), NewMessage("x", "y"))
					cancel()
					if err != nil {
						return
					}
				}
			}()
		}
		time.Sleep(5 * time.Millisecond)
		if err := srv.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		closed.Store(true)
		wg.Wait()
		time.Sleep(5 * time.Millisecond)
		if n := late.Load(); n != 0 {
			t.Fatalf("iteration %d: sink called %d times after Close returned", i, n)
		}
	}
}
