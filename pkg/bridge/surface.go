package bridge

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/chewtube/pkg/player"
	"github.com/teslashibe/chewtube/pkg/protocol"
)

// defaultPlayTTL is how long a media play waits for its play_result before
// it is dropped from the pending set.
const defaultPlayTTL = 30 * time.Second

type pendingPlay struct {
	result  chan error
	started time.Time
}

// Channel returns the player surface as an embed message channel.
func (b *Bridge) Channel() player.Channel {
	return embedChannel{b}
}

// API returns the player surface as an API-controlled player.
func (b *Bridge) API() player.API {
	return apiSurface{b}
}

// MediaElement returns the player surface as a native media element.
func (b *Bridge) MediaElement() player.MediaElement {
	return mediaSurface{b}
}

type embedChannel struct{ b *Bridge }

func (e embedChannel) Post(ctx context.Context, payload []byte) error {
	msg, err := protocol.NewEmbedCommandMessage(payload)
	if err != nil {
		return err
	}
	return e.b.sendToPlayer(ctx, msg)
}

type apiSurface struct{ b *Bridge }

func (a apiSurface) PlayVideo(ctx context.Context) error {
	return a.b.command(ctx, protocol.FuncPlay, "")
}

func (a apiSurface) PauseVideo(ctx context.Context) error {
	return a.b.command(ctx, protocol.FuncPause, "")
}

// PlayerState returns the last reported state. Reports arrive asynchronously,
// so a play just issued may still read as paused until the next report.
func (a apiSurface) PlayerState(context.Context) (player.PlayerState, error) {
	if !a.b.PlayerConnected() {
		return 0, ErrNotConnected
	}
	if !a.b.stateKnown.Load() {
		return 0, ErrNoState
	}
	return player.PlayerState(a.b.state.Load()), nil
}

type mediaSurface struct{ b *Bridge }

// Play sends a play command tagged with an id; the result arrives as a
// play_result from the surface.
func (m mediaSurface) Play(ctx context.Context) <-chan error {
	result := make(chan error, 1)
	id := uuid.NewString()

	now := time.Now()
	var stale []chan error
	m.b.mu.Lock()
	for pid, p := range m.b.pending {
		if now.Sub(p.started) > m.b.playTTL {
			stale = append(stale, p.result)
			delete(m.b.pending, pid)
		}
	}
	m.b.pending[id] = pendingPlay{result: result, started: now}
	m.b.mu.Unlock()

	for _, ch := range stale {
		deliver(ch, ErrPlayExpired)
	}

	if err := m.b.command(ctx, protocol.FuncPlay, id); err != nil {
		m.b.mu.Lock()
		delete(m.b.pending, id)
		m.b.mu.Unlock()
		deliver(result, err)
	}
	return result
}

func (m mediaSurface) Pause(ctx context.Context) error {
	if err := m.b.command(ctx, protocol.FuncPause, ""); err != nil {
		return err
	}
	m.b.paused.Store(true)
	return nil
}

func (m mediaSurface) Paused() bool {
	return m.b.paused.Load()
}

func (b *Bridge) command(ctx context.Context, fn, id string) error {
	msg, err := protocol.NewCommandMessage(fn, id)
	if err != nil {
		return err
	}
	return b.sendToPlayer(ctx, msg)
}

// Load tells the player surface to switch videos.
func (b *Bridge) Load(ctx context.Context, videoID, embedURL string) error {
	msg, err := protocol.NewLoadCommandMessage(videoID, embedURL)
	if err != nil {
		return err
	}
	return b.sendToPlayer(ctx, msg)
}
