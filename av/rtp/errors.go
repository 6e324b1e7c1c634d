package rtp

import "errors"

// Sentinel errors for rtp package operations.
// These errors enable reliable error classification using errors.Is().

// Construction errors.
var (
	// ErrNilTransport indicates a nil transport was supplied.
	ErrNilTransport = errors.New("transport cannot be nil")

	// ErrNilRemoteAddr indicates a nil remote address was supplied.
	ErrNilRemoteAddr = errors.New("remote address cannot be nil")
)

// Session registry errors.
var (
	// ErrSessionExists indicates a session is already registered for the stream.
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionNotFound indicates no session is registered for the stream.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed indicates the session was closed.
	ErrSessionClosed = errors.New("session closed")
)

// Send errors.
var (
	// ErrRTPFailed indicates RTP transmission failed.
	ErrRTPFailed = errors.New("RTP transmission failed")

	// ErrRTCPFailed indicates RTCP transmission failed.
	ErrRTCPFailed = errors.New("RTCP transmission failed")
)
