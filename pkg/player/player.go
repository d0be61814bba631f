// Package player drives heterogeneous video backends with play/pause intents.
//
// Each backend variant satisfies the small Backend capability interface.
// Consumers depend only on Backend and use Dispatch to apply an intent, which
// skips redundant calls when the backend can report its state and re-issues
// every time when it cannot.
package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/teslashibe/chewtube/pkg/gate"
)

// Kind names a backend variant.
type Kind string

const (
	// KindEmbed is a message-channel controlled embed (postMessage iframe).
	KindEmbed Kind = "embed"
	// KindAPI is an API-controlled player object with a synchronous state query.
	KindAPI Kind = "api"
	// KindMedia is a native media element with an asynchronous, rejectable play().
	KindMedia Kind = "media"
)

// ParseKind validates a backend name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindEmbed, KindAPI, KindMedia:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// PlayState is what a backend reports about itself.
type PlayState int

const (
	// StateUnknown means the backend cannot be queried.
	StateUnknown PlayState = iota
	StatePlaying
	StatePaused
)

// String implements fmt.Stringer.
func (s PlayState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Backend is the capability set every playback variant provides.
type Backend interface {
	Kind() Kind
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	State(ctx context.Context) PlayState
	// Close releases the backend. It must be safe to call more than once.
	Close() error
}

// Dispatch applies an intent to a backend.
// When the backend reports a state that already matches, nothing is issued.
// Unknown state always re-issues. Returns whether a call was made.
func Dispatch(ctx context.Context, b Backend, intent gate.Intent) (bool, error) {
	if b == nil {
		return false, ErrNoBackend
	}

	st := b.State(ctx)
	switch intent {
	case gate.Play:
		if st == StatePlaying {
			return false, nil
		}
		if err := b.Play(ctx); errors.Is(err, ErrPlayPending) {
			return false, nil
		} else if err != nil {
			return true, err
		}
		return true, nil
	default:
		if st == StatePaused {
			return false, nil
		}
		return true, b.Pause(ctx)
	}
}
