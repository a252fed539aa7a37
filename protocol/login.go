package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed-width field sizes for the login request body (spec §6).
const (
	usernameLen    = 6
	passwordLen    = 10
	sessionNameLen = 10
	sequenceLen    = 20

	LoginBodyLen  = usernameLen + passwordLen + sessionNameLen + sequenceLen // 46
	AcceptBodyLen = sessionNameLen + sequenceLen                             // 30
)

// LoginRequest is the parsed form of an 'L' packet body.
type LoginRequest struct {
	Username    string
	Password    string
	SessionName string
	Sequence    int64
}

// EncodeLoginBody renders a login request as the 46-byte space-padded body
// described in spec §6: user(6) + password(10) + session(10) + sequence(20).
// The text fields are left-justified with trailing pad spaces; the sequence
// field is right-justified ASCII decimal (leading pad spaces), matching the
// worked example in spec §8 scenario S1.
func EncodeLoginBody(username, password, sessionName string, sequence int64) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%-*s%-*s%-*s%*d", usernameLen, username, passwordLen, password, sessionNameLen, sessionName, sequenceLen, sequence)
	return []byte(b.String())
}

// ParseLoginBody splits a 46-byte login body into its fields and parses the
// base-10 ASCII sequence number. Fields are trimmed of padding spaces. A
// sequence field that is empty or not a valid base-10 integer is a
// ParseError, matching spec §4.4's "login body that fails integer parse".
func ParseLoginBody(body []byte) (LoginRequest, error) {
	if len(body) != LoginBodyLen {
		return LoginRequest{}, &ParseError{Field: "body", Err: fmt.Errorf("expected %d bytes, got %d", LoginBodyLen, len(body))}
	}

	username := strings.TrimSpace(string(body[0:usernameLen]))
	password := strings.TrimSpace(string(body[usernameLen : usernameLen+passwordLen]))
	sessionName := strings.TrimSpace(string(body[usernameLen+passwordLen : usernameLen+passwordLen+sessionNameLen]))
	sequenceField := strings.TrimSpace(string(body[usernameLen+passwordLen+sessionNameLen:]))

	sequence, err := strconv.ParseInt(sequenceField, 10, 64)
	if err != nil {
		return LoginRequest{}, &ParseError{Field: "sequence", Err: err}
	}

	return LoginRequest{
		Username:    username,
		Password:    password,
		SessionName: sessionName,
		Sequence:    sequence,
	}, nil
}

// EncodeAcceptBody renders an 'A' packet body: session name and sequence,
// both right-justified with spaces to width 10 and 20 respectively.
func EncodeAcceptBody(sessionName string, sequence int64) []byte {
	return []byte(fmt.Sprintf("%*s%*d", sessionNameLen, sessionName, sequenceLen, sequence))
}

// ParseAcceptBody is the client-side counterpart of EncodeAcceptBody.
func ParseAcceptBody(body []byte) (sessionName string, sequence int64, err error) {
	if len(body) != AcceptBodyLen {
		return "", 0, &ParseError{Field: "body", Err: fmt.Errorf("expected %d bytes, got %d", AcceptBodyLen, len(body))}
	}
	sessionName = strings.TrimSpace(string(body[0:sessionNameLen]))
	sequenceField := strings.TrimSpace(string(body[sessionNameLen:]))
	sequence, err = strconv.ParseInt(sequenceField, 10, 64)
	if err != nil {
		return "", 0, &ParseError{Field: "sequence", Err: err}
	}
	return sessionName, sequence, nil
}

// ParseError reports a malformed structured body (currently only the login
// and accept bodies are structured; everything else is opaque). Spec §4.3
// maps this directly to reject_login("A") on the login path.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("protocol: parse error in field %q: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
