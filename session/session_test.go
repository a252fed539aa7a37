package session

import (
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"soupbin/durablelog"
	"soupbin/protocol"
)

func pipeSessions(t *testing.T, opts Options) (server, client net.Conn) {
	t.Helper()
	a, b := net.Pipe()
	t.Cleanup(func() { a.Close(); b.Close() })
	return a, b
}

// TestAcceptLoginAndReplay exercises spec §8 scenario S1: a server session
// whose output log already holds two rows ("hello", "world") accepts a
// login requesting replay from sequence 1. The accepted sequence in the
// 'A' body must be the server's own bookkeeping (3, one past the highest
// stored row), never an echo of the client's requested value.
func TestAcceptLoginAndReplay(t *testing.T) {
	serverConn, clientConn := pipeSessions(t, Options{})
	dbDir := t.TempDir()

	// Seed the output log as if "hello" and "world" had already been sent
	// in a prior run of this session, before the session under test ever
	// opens it.
	seedLog, err := durablelog.Open(durablelog.ServerLogPath(dbDir, "session1"))
	if err != nil {
		t.Fatalf("seed log open failed: %v", err)
	}
	if _, err := seedLog.StoreOutput("hello"); err != nil {
		t.Fatalf("StoreOutput failed: %v", err)
	}
	if _, err := seedLog.StoreOutput("world"); err != nil {
		t.Fatalf("StoreOutput failed: %v", err)
	}
	if err := seedLog.Close(); err != nil {
		t.Fatalf("seed log close failed: %v", err)
	}

	s := New(serverConn, RoleServer, NopHandler{}, Options{DBDir: dbDir})

	accepted, err := s.AcceptLogin("user1", "session1")
	if err != nil {
		t.Fatalf("AcceptLogin failed: %v", err)
	}
	if accepted != 3 {
		t.Fatalf("AcceptLogin returned sequence %d, want 3", accepted)
	}

	go s.Run()

	// Read the 'A' accept frame.
	typ, body, err := protocol.Decode(clientConn)
	if err != nil {
		t.Fatalf("decode accept frame: %v", err)
	}
	if typ != protocol.TypeLoginAccepted {
		t.Fatalf("got type %q, want 'A'", typ)
	}
	sessionName, sequence, err := protocol.ParseAcceptBody(body)
	if err != nil {
		t.Fatalf("ParseAcceptBody: %v", err)
	}
	if sessionName != "session1" {
		t.Errorf("session name = %q, want session1", sessionName)
	}
	if sequence != 3 {
		t.Errorf("accept body sequence = %d, want 3 (spec scenario S1)", sequence)
	}

	if err := s.ReplaySequenced(1); err != nil {
		t.Fatalf("ReplaySequenced failed: %v", err)
	}

	for _, want := range []string{"hello", "world"} {
		typ, body, err := protocol.Decode(clientConn)
		if err != nil {
			t.Fatalf("decode replay frame: %v", err)
		}
		if typ != protocol.TypeSequencedData {
			t.Fatalf("got type %q, want 'S'", typ)
		}
		if string(body) != want {
			t.Errorf("replayed body = %q, want %q", body, want)
		}
	}

	s.Close()
}

func TestDbPaths(t *testing.T) {
	dbDir := t.TempDir()
	serverConn, _ := pipeSessions(t, Options{})
	s := New(serverConn, RoleServer, NopHandler{}, Options{DBDir: dbDir})
	if _, err := s.AcceptLogin("user1", "session1"); err != nil {
		t.Fatalf("AcceptLogin failed: %v", err)
	}
	defer s.Close()

	if err := s.SendSequenced("hi"); err != nil {
		t.Fatalf("SendSequenced failed: %v", err)
	}

	wantPath := filepath.Join(dbDir, "server-session1.db")
	if _, err := os.Stat(wantPath); err != nil {
		t.Fatalf("server log not found at %s: %v", wantPath, err)
	}
	if _, err := s.log.LoadOutput(1); err != nil {
		t.Fatalf("LoadOutput failed on %s: %v", wantPath, err)
	}
}

// TestWriterExitsAfterDrainingQueue exercises invariant §8.5's drain side:
// once three dispatched frames have been written, the writer duty has
// exited and the queue is empty.
func TestWriterExitsAfterDrainingQueue(t *testing.T) {
	serverConn, clientConn := pipeSessions(t, Options{})
	s := New(serverConn, RoleServer, NopHandler{}, Options{DBDir: t.TempDir()})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 3; i++ {
			if _, _, err := protocol.Decode(clientConn); err != nil {
				return
			}
		}
	}()

	s.dispatch(protocol.TypeDebug, []byte("one"))
	s.dispatch(protocol.TypeDebug, []byte("two"))
	s.dispatch(protocol.TypeDebug, []byte("three"))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for dispatched frames to be written")
	}

	s.mu.Lock()
	running := s.writerRunning
	qlen := len(s.queue)
	s.mu.Unlock()
	if running {
		t.Error("writer should have exited after draining the queue")
	}
	if qlen != 0 {
		t.Errorf("queue length = %d, want 0", qlen)
	}

	s.Close()
}

// TestIdleTimeoutStopsSession exercises scenario S5 with a short idle
// timeout: a session that receives nothing for IdleTimeout closes.
func TestIdleTimeoutStopsSession(t *testing.T) {
	serverConn, clientConn := pipeSessions(t, Options{})
	defer clientConn.Close()

	s := New(serverConn, RoleServer, NopHandler{}, Options{
		DBDir:       t.TempDir(),
		IdleTimeout: 50 * time.Millisecond,
	})

	done := make(chan error, 1)
	go func() { done <- s.Run() }()

	select {
	case <-done:
		if s.State() != StateClosed {
			t.Errorf("state = %v, want CLOSED", s.State())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("session did not close after idle timeout")
	}
}

// TestHeartbeatCadence exercises scenario S4 with a short heartbeat
// interval: an idle server session emits periodic 'H' frames.
func TestHeartbeatCadence(t *testing.T) {
	serverConn, clientConn := pipeSessions(t, Options{})

	s := New(serverConn, RoleServer, NopHandler{}, Options{
		DBDir:             t.TempDir(),
		HeartbeatInterval: 20 * time.Millisecond,
		IdleTimeout:       time.Hour,
	})
	go s.Run()
	defer s.Close()

	for i := 0; i < 2; i++ {
		typ, _, err := protocol.Decode(clientConn)
		if err != nil {
			t.Fatalf("decode heartbeat frame: %v", err)
		}
		if typ != protocol.TypeServerHeartbeat {
			t.Fatalf("got type %q, want 'H'", typ)
		}
	}
}
