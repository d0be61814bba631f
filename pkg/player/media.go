package player

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/chewtube/internal/log"
)

// MediaElement is a handle on a native media element.
// Play starts playback asynchronously; the returned channel yields one
// result (nil or a rejection) and may be closed without a value.
type MediaElement interface {
	Play(ctx context.Context) <-chan error
	Pause(ctx context.Context) error
	Paused() bool
}

// DefaultPlayTimeout bounds how long a play may stay in flight before
// another one is allowed.
const DefaultPlayTimeout = 2 * time.Second

// Media adapts a MediaElement to Backend.
// Rejected plays are swallowed and retried on the next tick. A play whose
// result never arrives is abandoned after the play timeout.
type Media struct {
	el      MediaElement
	timeout time.Duration

	mu      sync.Mutex
	pending uint64 // sequence of the in-flight play, 0 when idle
	seq     uint64

	rejections atomic.Uint64
	done       chan struct{}
	closeOnce  sync.Once
}

// NewMedia wraps el.
func NewMedia(el MediaElement) *Media {
	return &Media{el: el, timeout: DefaultPlayTimeout, done: make(chan struct{})}
}

// SetPlayTimeout changes how long a play may stay unresolved.
// Non-positive values restore the default.
func (m *Media) SetPlayTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultPlayTimeout
	}
	m.mu.Lock()
	m.timeout = d
	m.mu.Unlock()
}

// Kind implements Backend.
func (m *Media) Kind() Kind { return KindMedia }

// Play implements Backend. It never blocks on the element's result and never
// returns the rejection. At most one play is in flight; while it is, Play
// returns ErrPlayPending.
func (m *Media) Play(ctx context.Context) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}

	m.mu.Lock()
	if m.pending != 0 {
		m.mu.Unlock()
		return ErrPlayPending
	}
	m.seq++
	id := m.seq
	m.pending = id
	timeout := m.timeout
	m.mu.Unlock()

	result := m.el.Play(ctx)
	go m.await(id, result, timeout)
	return nil
}

func (m *Media) await(id uint64, result <-chan error, timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var (
		err     error
		ok      bool
		expired bool
	)
	select {
	case err, ok = <-result:
	case <-timer.C:
		expired = true
	case <-m.done:
	}

	m.mu.Lock()
	if m.pending == id {
		m.pending = 0
	}
	m.mu.Unlock()

	if expired {
		log.Component("player").Debug("play unresolved, retrying next tick",
			"kind", KindMedia, "timeout", timeout)
		return
	}
	if ok && err != nil {
		n := m.rejections.Add(1)
		log.Component("player").Debug("play rejected, retrying next tick",
			"kind", KindMedia, "error", err, "rejections", n)
	}
}

// Pause implements Backend.
func (m *Media) Pause(ctx context.Context) error {
	select {
	case <-m.done:
		return ErrClosed
	default:
	}
	return m.el.Pause(ctx)
}

// State implements Backend.
func (m *Media) State(context.Context) PlayState {
	if m.el.Paused() {
		return StatePaused
	}
	return StatePlaying
}

// Rejections returns how many plays the element has refused.
func (m *Media) Rejections() uint64 {
	return m.rejections.Load()
}

// Close implements Backend.
func (m *Media) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	return nil
}
