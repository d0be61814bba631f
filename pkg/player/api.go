package player

import (
	"context"
	"sync/atomic"

	"github.com/teslashibe/chewtube/internal/log"
)

// PlayerState mirrors the YouTube IFrame API player state codes.
type PlayerState int

const (
	PlayerUnstarted PlayerState = -1
	PlayerEnded     PlayerState = 0
	PlayerPlaying   PlayerState = 1
	PlayerPaused    PlayerState = 2
	PlayerBuffering PlayerState = 3
	PlayerCued      PlayerState = 5
)

// API is a player object controlled through direct method calls.
type API interface {
	PlayVideo(ctx context.Context) error
	PauseVideo(ctx context.Context) error
	PlayerState(ctx context.Context) (PlayerState, error)
}

// APIPlayer adapts an API player object to Backend.
type APIPlayer struct {
	api    API
	closer func() error
	closed atomic.Bool
}

// NewAPIPlayer wraps api. closer (optional) destroys the player object on Close.
func NewAPIPlayer(api API, closer func() error) *APIPlayer {
	return &APIPlayer{api: api, closer: closer}
}

// Kind implements Backend.
func (p *APIPlayer) Kind() Kind { return KindAPI }

// Play implements Backend.
func (p *APIPlayer) Play(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.api.PlayVideo(ctx)
}

// Pause implements Backend.
func (p *APIPlayer) Pause(ctx context.Context) error {
	if p.closed.Load() {
		return ErrClosed
	}
	return p.api.PauseVideo(ctx)
}

// State implements Backend.
// Anything other than "playing" counts as paused, so buffering or cued
// players are asked to play again. A failed query is Unknown.
func (p *APIPlayer) State(ctx context.Context) PlayState {
	if p.closed.Load() {
		return StateUnknown
	}
	st, err := p.api.PlayerState(ctx)
	if err != nil {
		log.Component("player").Debug("state query failed", "kind", KindAPI, "error", err)
		return StateUnknown
	}
	if st == PlayerPlaying {
		return StatePlaying
	}
	return StatePaused
}

// Close implements Backend.
func (p *APIPlayer) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	if p.closer != nil {
		return p.closer()
	}
	return nil
}
