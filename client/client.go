// Package client implements the client-side handler (C6): processing of
// inbound sequenced messages after the session has already persisted them
// and advanced its sequence counter.
package client

import "soupbin/session"

// Handler implements session.Handler for client-role sessions. The
// reference implementation just logs the message; richer behavior is
// application-supplied, per spec §4.6.
type Handler struct {
	session.NopHandler
	Log session.Logger
}

// NewHandler returns a Handler that logs every sequenced message it sees.
func NewHandler(log session.Logger) *Handler {
	return &Handler{Log: log}
}

func (h *Handler) ProcessSequenced(s *session.Session, body []byte) {
	h.Log.Info("client: sequenced message", "body", string(body))
}
