package client

import (
	"net"
	"strings"
	"testing"

	"soupbin/protocol"
	"soupbin/session"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

func TestREPLDebugCommand(t *testing.T) {
	clientSideConn, peerConn := net.Pipe()
	defer peerConn.Close()

	s := session.New(clientSideConn, session.RoleClient, NewHandler(testLogger{}), session.Options{DBDir: t.TempDir()})
	go s.Run()
	defer s.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunREPL(strings.NewReader("debug hello there\nq\n"), s, testLogger{})
	}()

	typ, body, err := protocol.Decode(peerConn)
	if err != nil {
		t.Fatalf("decode debug frame: %v", err)
	}
	if typ != protocol.TypeDebug {
		t.Fatalf("got type %q, want '+'", typ)
	}
	if string(body) != "hello there" {
		t.Errorf("debug body = %q, want %q", body, "hello there")
	}

	<-done
}

func TestREPLLogoutCommand(t *testing.T) {
	clientSideConn, peerConn := net.Pipe()
	defer peerConn.Close()

	s := session.New(clientSideConn, session.RoleClient, NewHandler(testLogger{}), session.Options{DBDir: t.TempDir()})
	go s.Run()
	defer s.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		RunREPL(strings.NewReader("logout\n"), s, testLogger{})
	}()

	typ, _, err := protocol.Decode(peerConn)
	if err != nil {
		t.Fatalf("decode logout frame: %v", err)
	}
	if typ != protocol.TypeLogout {
		t.Fatalf("got type %q, want 'O'", typ)
	}

	<-done
}
