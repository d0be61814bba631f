package player

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoBackend is returned when no backend is installed.
	ErrNoBackend = errors.New("player: no backend")

	// ErrClosed is returned when a closed backend is driven.
	ErrClosed = errors.New("player: backend closed")

	// ErrUnknownKind is returned for an unrecognized backend name.
	ErrUnknownKind = errors.New("player: unknown backend kind")

	// ErrPlayRejected is reported when a media element refuses to start (autoplay policy).
	ErrPlayRejected = errors.New("player: play rejected")

	// ErrPlayPending is returned when a play is already in flight. Dispatch
	// treats it as nothing issued.
	ErrPlayPending = errors.New("player: play already in flight")
)

// Error codes reported by embedded YouTube players.
const (
	CodeInvalidParam     = 2
	CodeHTML5Error       = 5
	CodeNotFound         = 100
	CodeEmbedDisallowed  = 101
	CodeEmbedDisallowed2 = 150
	CodeEmbedBlocked     = 153
)

// Error is an asynchronous playback error reported by a backend.
// It locks the gate until cleared.
type Error struct {
	// Kind identifies which backend reported the error.
	Kind Kind

	// Code is the backend's numeric error code (0 if none).
	Code int

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("player [%s]: error %d: %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("player [%s]: %s", e.Kind, e.Message)
}

// IsBlocked returns true when the source refuses to play embedded.
// Callers fall back to another backend rather than waiting for a fix.
func (e *Error) IsBlocked() bool {
	switch e.Code {
	case CodeEmbedDisallowed, CodeEmbedDisallowed2, CodeEmbedBlocked:
		return true
	}
	return false
}

// Notice is the user-facing text for this error.
func (e *Error) Notice() string {
	if e.IsBlocked() {
		return "Video blocked playback. Switched to Safe Mode."
	}
	if e.Code != 0 {
		return fmt.Sprintf("Playback Error (%d). Try another video.", e.Code)
	}
	return e.Message
}

// AsError extracts a *Error from err.
func AsError(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
