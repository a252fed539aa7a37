// Package server implements the server-side handler (C4) and TCP acceptor
// (C7): the acceptor listens and spawns one session per connection; the
// handler parses logins, authenticates them, and answers the literal "date"
// unsequenced command, exactly as the reference server does.
package server

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"soupbin/auth"
	"soupbin/protocol"
	"soupbin/session"
)

// Handler implements session.Handler for server-role sessions. The
// Authenticator and Log are shared, read-only references; the Acceptor
// builds one Handler per accepted connection (see NewHandler), so the
// loginLimiter below governs exactly one connection, never the whole
// process.
type Handler struct {
	session.NopHandler
	Authenticator auth.Authenticator
	Log           session.Logger

	// loginLimiter throttles login attempts on this one connection, failed
	// or successful, per SPEC_FULL.md §3's added hardening: 1 attempt/second,
	// burst 3. A
	// Handler (and therefore this limiter) is constructed fresh per
	// connection by the Acceptor, the same "limiter lives in the outer
	// closure, not per-call" discipline the reference rate-limit
	// middleware uses, scoped down to one connection instead of the whole
	// process.
	loginLimiter *rate.Limiter
}

// NewHandler returns a Handler backed by the given authenticator, with its
// own fresh login-rate limiter. Call it once per accepted connection, not
// once per process — a Handler shared across connections would let one
// connection's logins throttle every other connection's.
func NewHandler(authenticator auth.Authenticator, log session.Logger) *Handler {
	return &Handler{
		Authenticator: authenticator,
		Log:           log,
		loginLimiter:  rate.NewLimiter(rate.Limit(1), 3),
	}
}

// ProcessLogin implements spec §4.4: parse the 46-byte body, authenticate,
// and accept or reject.
func (h *Handler) ProcessLogin(s *session.Session, body []byte) {
	if !h.loginLimiter.Allow() {
		h.logf(h.Log.Warn, "login rate limit exceeded, rejecting", nil)
		s.RejectLogin(protocol.RejectNotAuthorized)
		return
	}

	req, err := protocol.ParseLoginBody(body)
	if err != nil {
		h.logf(h.Log.Warn, "malformed login body", err)
		s.RejectLogin(protocol.RejectNotAuthorized)
		return
	}

	h.Log.Debug("server: login attempt", "user", req.Username, "session", req.SessionName)

	ok, err := h.Authenticator.Authenticate(req.Username, req.Password, req.SessionName)
	if err != nil {
		h.logf(h.Log.Error, "authenticator error", err)
		s.RejectLogin(protocol.RejectNotAuthorized)
		return
	}
	if !ok {
		h.Log.Info("server: login rejected", "user", req.Username, "session", req.SessionName)
		s.RejectLogin(protocol.RejectNotAuthorized)
		return
	}

	if _, err := s.AcceptLogin(req.Username, req.SessionName); err != nil {
		h.logf(h.Log.Error, "failed to accept login", err)
		s.RejectLogin(protocol.RejectNotAuthorized)
		return
	}

	if err := s.ReplaySequenced(req.Sequence); err != nil {
		h.logf(h.Log.Error, "replay failed", err)
	}
}

// ProcessUnsequenced implements the reference server's one application
// command: the literal body "date" is answered with the current wall-clock
// time as a sequenced message. Every other body is ignored, per spec §4.4.
func (h *Handler) ProcessUnsequenced(s *session.Session, body []byte) {
	if string(body) != "date" {
		return
	}
	now := time.Now().Format("2006-01-02 15:04:05")
	if err := s.SendSequenced(now); err != nil {
		h.logf(h.Log.Error, "failed to send date response", err)
	}
}

func (h *Handler) logf(log func(string, ...any), msg string, err error) {
	if err != nil {
		log(fmt.Sprintf("server: %s", msg), "err", err)
		return
	}
	log(fmt.Sprintf("server: %s", msg))
}
