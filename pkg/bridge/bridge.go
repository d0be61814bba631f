// Package bridge connects browser clients to the session over WebSockets.
//
// Two kinds of client connect:
//   - observers stream face landmarks from the camera (/ws/observer)
//   - the player surface hosts the video and executes commands (/ws/player)
//
// The bridge turns the player surface into the capability handles the
// player package drives: an embed Channel, an API player and a MediaElement.
package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/chewtube/internal/log"
	"github.com/teslashibe/chewtube/pkg/landmark"
	"github.com/teslashibe/chewtube/pkg/player"
	"github.com/teslashibe/chewtube/pkg/protocol"
)

const writeWait = 2 * time.Second

// Role is what a connected client does.
type Role string

const (
	RoleObserver Role = "observer"
	RolePlayer   Role = "player"
)

// Conn is one connected browser client.
type Conn struct {
	ID        string
	Role      Role
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send writes a message to the client.
func (c *Conn) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Conn) touch() {
	c.mu.Lock()
	c.LastSeen = time.Now()
	c.mu.Unlock()
}

// Bridge manages observer and player connections.
type Bridge struct {
	mu        sync.RWMutex
	observers map[string]*Conn
	player    *Conn
	pending   map[string]pendingPlay
	playTTL   time.Duration

	// Callbacks
	onFrame       func(landmark.Frame)
	onCameraError func(reason string)
	onPlayerError func(code int, message string)

	// Last report from the player surface
	state      atomic.Int32
	stateKnown atomic.Bool
	paused     atomic.Bool

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	framesReceived   atomic.Uint64

	logger *slog.Logger
}

// New creates an empty bridge.
func New() *Bridge {
	b := &Bridge{
		observers: make(map[string]*Conn),
		pending:   make(map[string]pendingPlay),
		playTTL:   defaultPlayTTL,
		logger:    log.Component("bridge"),
	}
	b.paused.Store(true)
	return b
}

// OnFrame sets the callback for landmark frames from any observer.
func (b *Bridge) OnFrame(fn func(landmark.Frame)) {
	b.mu.Lock()
	b.onFrame = fn
	b.mu.Unlock()
}

// OnCameraError sets the callback for observers that lost their camera.
func (b *Bridge) OnCameraError(fn func(reason string)) {
	b.mu.Lock()
	b.onCameraError = fn
	b.mu.Unlock()
}

// OnPlayerError sets the callback for errors reported by the player surface.
func (b *Bridge) OnPlayerError(fn func(code int, message string)) {
	b.mu.Lock()
	b.onPlayerError = fn
	b.mu.Unlock()
}

// RegisterRoutes registers the WebSocket endpoints on a Fiber app.
func (b *Bridge) RegisterRoutes(app fiber.Router) {
	app.Get("/ws/observer", upgradeOnly, websocket.New(b.handle(RoleObserver)))
	app.Get("/ws/player", upgradeOnly, websocket.New(b.handle(RolePlayer)))
}

func upgradeOnly(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		c.Locals("allowed", true)
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (b *Bridge) handle(role Role) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		conn := &Conn{
			ID:        uuid.NewString(),
			Role:      role,
			Conn:      c,
			Connected: time.Now(),
			LastSeen:  time.Now(),
		}
		b.register(conn)
		defer b.unregister(conn)

		for {
			_, data, err := c.ReadMessage()
			if err != nil {
				b.logger.Debug("read ended", "role", role, "id", conn.ID, "error", err)
				return
			}
			conn.touch()
			b.messagesReceived.Add(1)
			b.handleMessage(conn, data)
		}
	}
}

func (b *Bridge) register(c *Conn) {
	b.mu.Lock()
	var replaced *Conn
	switch c.Role {
	case RoleObserver:
		b.observers[c.ID] = c
	case RolePlayer:
		replaced = b.player
		b.player = c
	}
	observers := len(b.observers)
	b.mu.Unlock()

	if c.Role == RolePlayer {
		b.resetState()
	}
	if replaced != nil {
		b.logger.Info("player surface replaced", "old", replaced.ID, "new", c.ID)
		_ = replaced.Conn.Close()
	}
	b.logger.Info("client connected", "role", c.Role, "id", c.ID, "observers", observers)
}

func (b *Bridge) unregister(c *Conn) {
	b.mu.Lock()
	var orphaned map[string]pendingPlay
	switch c.Role {
	case RoleObserver:
		delete(b.observers, c.ID)
	case RolePlayer:
		if b.player == c {
			b.player = nil
			orphaned = b.pending
			b.pending = make(map[string]pendingPlay)
		}
	}
	b.mu.Unlock()

	for _, p := range orphaned {
		deliver(p.result, ErrNotConnected)
	}
	if orphaned != nil {
		b.resetState()
	}
	b.logger.Info("client disconnected", "role", c.Role, "id", c.ID)
}

func (b *Bridge) resetState() {
	b.stateKnown.Store(false)
	b.state.Store(int32(player.PlayerUnstarted))
	b.paused.Store(true)
}

// handleMessage processes an incoming message from a client.
func (b *Bridge) handleMessage(c *Conn, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		b.logger.Debug("parse error", "id", c.ID, "error", err)
		return
	}

	b.mu.RLock()
	frameCb := b.onFrame
	cameraCb := b.onCameraError
	errorCb := b.onPlayerError
	b.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeLandmarks:
		if c.Role != RoleObserver {
			return
		}
		b.framesReceived.Add(1)
		if frameCb != nil {
			if lm, err := msg.GetLandmarksData(); err == nil {
				frameCb(lm.Points)
			}
		}

	case protocol.TypeCameraError:
		if cameraCb != nil {
			if ce, err := msg.GetCameraErrorData(); err == nil {
				cameraCb(ce.Reason)
			}
		}

	case protocol.TypePlayerState:
		if c.Role != RolePlayer {
			return
		}
		if ps, err := msg.GetPlayerStateData(); err == nil {
			b.state.Store(int32(ps.State))
			b.paused.Store(ps.Paused)
			b.stateKnown.Store(true)
		}

	case protocol.TypePlayerError:
		if c.Role != RolePlayer {
			return
		}
		if pe, err := msg.GetPlayerErrorData(); err == nil {
			b.logger.Warn("player surface error", "code", pe.Code, "message", pe.Message)
			if errorCb != nil {
				errorCb(pe.Code, pe.Message)
			}
		}

	case protocol.TypePlayResult:
		if c.Role != RolePlayer {
			return
		}
		if pr, err := msg.GetPlayResultData(); err == nil {
			b.resolve(pr.ID, pr.Error)
		}

	case protocol.TypePing:
		pong, err := protocol.NewPongMessage("", msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			b.messagesSent.Add(1)
			_ = c.Send(pong)
		}
	}
}

func (b *Bridge) resolve(id, errName string) {
	b.mu.Lock()
	p, ok := b.pending[id]
	delete(b.pending, id)
	b.mu.Unlock()
	if !ok {
		return
	}
	ch := p.result
	if errName != "" {
		deliver(ch, fmt.Errorf("%w: %s", player.ErrPlayRejected, errName))
		return
	}
	b.paused.Store(false)
	deliver(ch, nil)
}

// deliver completes a pending play at most once.
func deliver(ch chan error, err error) {
	select {
	case ch <- err:
	default:
	}
}

// sendToPlayer sends a message to the player surface.
func (b *Bridge) sendToPlayer(ctx context.Context, msg *protocol.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.RLock()
	p := b.player
	b.mu.RUnlock()
	if p == nil {
		return ErrNotConnected
	}

	b.messagesSent.Add(1)
	return p.Send(msg)
}

// PlayerConnected reports whether a player surface is attached.
func (b *Bridge) PlayerConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.player != nil
}

// ObserverCount returns the number of connected observers.
func (b *Bridge) ObserverCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers)
}

// Stats contains bridge statistics
type Stats struct {
	Observers        int    `json:"observers"`
	PlayerConnected  bool   `json:"player_connected"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	FramesReceived   uint64 `json:"frames_received"`
}

// GetStats returns bridge statistics
func (b *Bridge) GetStats() Stats {
	return Stats{
		Observers:        b.ObserverCount(),
		PlayerConnected:  b.PlayerConnected(),
		MessagesReceived: b.messagesReceived.Load(),
		MessagesSent:     b.messagesSent.Load(),
		FramesReceived:   b.framesReceived.Load(),
	}
}
