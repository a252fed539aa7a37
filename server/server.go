package server

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"soupbin/auth"
	"soupbin/session"
)

// Acceptor (C7) listens on a TCP address and spawns one server-role session
// per accepted connection. It owns the listener exclusively. The
// Authenticator and Log are shared, read-only, across every spawned
// session, per spec §5's "Shared resources" note — but the per-connection
// Handler itself (and the login-rate limiter it owns) is built fresh for
// each connection in handleConn, so one connection's logins never
// throttle another's. This is the same accept-loop plus shutdown-flag
// shape the reference RPC server's Serve/Shutdown use, stripped of service
// registration, middleware chaining, and etcd advertisement — this
// protocol has no service dispatch to register.
type Acceptor struct {
	Authenticator auth.Authenticator
	Log           session.Logger
	Opts          session.Options

	listener net.Listener
	wg       sync.WaitGroup
	shutdown atomic.Bool
}

// NewAcceptor returns an Acceptor that spawns sessions against authenticator,
// logging with log, each session running with opts.
func NewAcceptor(authenticator auth.Authenticator, log session.Logger, opts session.Options) *Acceptor {
	return &Acceptor{Authenticator: authenticator, Log: log, Opts: opts}
}

// Serve listens on address and runs the accept loop until Shutdown is
// called or Accept fails for a reason other than an intentional close.
func (a *Acceptor) Serve(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	a.listener = listener

	for {
		conn, err := listener.Accept()
		if err != nil {
			if a.shutdown.Load() {
				return nil
			}
			return err
		}

		a.wg.Add(1)
		go a.handleConn(conn)
	}
}

func (a *Acceptor) handleConn(conn net.Conn) {
	defer a.wg.Done()
	// A fresh Handler per connection gives each connection its own
	// loginLimiter; sharing one Handler (and therefore one limiter) across
	// connections would let logins on unrelated connections throttle each
	// other.
	handler := NewHandler(a.Authenticator, a.Log)
	s := session.New(conn, session.RoleServer, handler, a.Opts)
	if err := s.Run(); err != nil {
		a.Log.Debug("server: session ended", "remote", conn.RemoteAddr(), "err", err)
	}
}

// Shutdown stops accepting new connections and waits up to timeout for
// in-flight sessions to finish draining.
func (a *Acceptor) Shutdown(timeout time.Duration) error {
	a.shutdown.Store(true)
	a.listener.Close()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("server: timeout waiting for sessions to drain")
	}
}
