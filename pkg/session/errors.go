package session

import "errors"

var (
	// ErrClosed is returned when a command is sent after Run has exited.
	ErrClosed = errors.New("session: closed")

	// ErrNilBackend is returned when switching to a nil backend.
	ErrNilBackend = errors.New("session: nil backend")
)
