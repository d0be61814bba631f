package player

import (
	"context"
	"encoding/json"
	"sync/atomic"
)

// Channel carries opaque command payloads to an embedded player in another
// context. Delivery is fire-and-forget; there is no reply.
type Channel interface {
	Post(ctx context.Context, payload []byte) error
}

// EmbedCommand is the postMessage payload understood by embedded players.
type EmbedCommand struct {
	Event string `json:"event"`
	Func  string `json:"func"`
	Args  string `json:"args"`
}

// Embed functions.
const (
	FuncPlay  = "playVideo"
	FuncPause = "pauseVideo"
)

// Embed controls a player it can only message.
// It cannot query play state, so every intent is re-issued.
type Embed struct {
	ch     Channel
	closed atomic.Bool
}

// NewEmbed creates an embed backend on ch.
func NewEmbed(ch Channel) *Embed {
	return &Embed{ch: ch}
}

// Kind implements Backend.
func (e *Embed) Kind() Kind { return KindEmbed }

// Play implements Backend.
func (e *Embed) Play(ctx context.Context) error {
	return e.post(ctx, FuncPlay)
}

// Pause implements Backend.
func (e *Embed) Pause(ctx context.Context) error {
	return e.post(ctx, FuncPause)
}

// State implements Backend. Embeds never know their state.
func (e *Embed) State(context.Context) PlayState {
	return StateUnknown
}

// Close implements Backend.
func (e *Embed) Close() error {
	e.closed.Store(true)
	return nil
}

func (e *Embed) post(ctx context.Context, fn string) error {
	if e.closed.Load() {
		return ErrClosed
	}
	payload, err := EncodeEmbedCommand(fn)
	if err != nil {
		return err
	}
	return e.ch.Post(ctx, payload)
}

// EncodeEmbedCommand builds the command payload for fn.
func EncodeEmbedCommand(fn string) ([]byte, error) {
	return json.Marshal(EmbedCommand{Event: "command", Func: fn, Args: ""})
}
