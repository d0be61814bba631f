package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teslashibe/chewtube/pkg/gate"
	"github.com/teslashibe/chewtube/pkg/landmark"
	"github.com/teslashibe/chewtube/pkg/player"
	"github.com/teslashibe/chewtube/pkg/protocol"
)

var nextPort atomic.Int32

func init() {
	nextPort.Store(18180)
}

// startBridge serves b on a fresh local port and returns its ws base URL.
func startBridge(t *testing.T, b *Bridge) string {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	b.RegisterRoutes(app)

	addr := fmt.Sprintf("127.0.0.1:%d", nextPort.Add(1))
	go app.Listen(addr)
	t.Cleanup(func() { _ = app.Shutdown() })
	time.Sleep(100 * time.Millisecond)

	return "ws://" + addr
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg *protocol.Message) {
	t.Helper()
	data, err := msg.Bytes()
	require.NoError(t, err)
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, data))
}

func readCommand(t *testing.T, ws *websocket.Conn) protocol.CommandData {
	t.Helper()
	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	msg, err := protocol.ParseMessage(data)
	require.NoError(t, err)
	require.Equal(t, protocol.TypeCommand, msg.Type)
	cmd, err := msg.GetCommandData()
	require.NoError(t, err)
	return *cmd
}

func TestNew(t *testing.T) {
	b := New()
	assert.Zero(t, b.ObserverCount())
	assert.False(t, b.PlayerConnected())
	assert.True(t, b.MediaElement().Paused())

	stats := b.GetStats()
	assert.Zero(t, stats.MessagesReceived)
	assert.Zero(t, stats.MessagesSent)
}

func TestSurface_NotConnected(t *testing.T) {
	b := New()
	ctx := context.Background()

	assert.ErrorIs(t, b.Channel().Post(ctx, []byte(`{}`)), ErrNotConnected)
	assert.ErrorIs(t, b.API().PlayVideo(ctx), ErrNotConnected)
	_, err := b.API().PlayerState(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)

	err = <-b.MediaElement().Play(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestObserver_FramesAndCameraError(t *testing.T) {
	b := New()
	var frames atomic.Int32
	var points atomic.Int32
	reason := make(chan string, 1)

	b.OnFrame(func(f landmark.Frame) {
		frames.Add(1)
		points.Store(int32(len(f)))
	})
	b.OnCameraError(func(r string) { reason <- r })

	base := startBridge(t, b)
	ws := dial(t, base+"/ws/observer")

	require.Eventually(t, func() bool { return b.ObserverCount() == 1 }, time.Second, 10*time.Millisecond)

	msg, _ := protocol.NewLandmarksMessage(1, make(landmark.Frame, landmark.MinPoints))
	send(t, ws, msg)
	msg, _ = protocol.NewLandmarksMessage(2, nil)
	send(t, ws, msg)

	require.Eventually(t, func() bool { return frames.Load() == 2 }, time.Second, 10*time.Millisecond)
	assert.Zero(t, points.Load(), "last frame had no face")

	msg, _ = protocol.NewCameraErrorMessage("NotAllowedError")
	send(t, ws, msg)
	select {
	case r := <-reason:
		assert.Equal(t, "NotAllowedError", r)
	case <-time.After(time.Second):
		t.Fatal("camera error callback not called")
	}

	assert.Equal(t, uint64(2), b.GetStats().FramesReceived)

	ws.Close()
	require.Eventually(t, func() bool { return b.ObserverCount() == 0 }, time.Second, 10*time.Millisecond)
}

func TestPlayer_EmbedChannel(t *testing.T) {
	b := New()
	base := startBridge(t, b)
	ws := dial(t, base+"/ws/player")
	require.Eventually(t, b.PlayerConnected, time.Second, 10*time.Millisecond)

	embed := player.NewEmbed(b.Channel())
	require.NoError(t, embed.Pause(context.Background()))

	cmd := readCommand(t, ws)
	assert.Equal(t, protocol.FuncEmbed, cmd.Func)

	var inner player.EmbedCommand
	require.NoError(t, json.Unmarshal(cmd.Payload, &inner))
	assert.Equal(t, "command", inner.Event)
	assert.Equal(t, player.FuncPause, inner.Func)
}

func TestPlayer_APIStateReports(t *testing.T) {
	b := New()
	base := startBridge(t, b)
	ws := dial(t, base+"/ws/player")
	require.Eventually(t, b.PlayerConnected, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	api := player.NewAPIPlayer(b.API(), nil)
	assert.Equal(t, player.StateUnknown, api.State(ctx), "no report yet")

	msg, _ := protocol.NewPlayerStateMessage(int(player.PlayerPaused), true)
	send(t, ws, msg)
	require.Eventually(t, func() bool {
		return api.State(ctx) == player.StatePaused
	}, time.Second, 10*time.Millisecond)

	issued, err := player.Dispatch(ctx, api, gate.Play)
	require.NoError(t, err)
	assert.True(t, issued)
	assert.Equal(t, protocol.FuncPlay, readCommand(t, ws).Func)

	msg, _ = protocol.NewPlayerStateMessage(int(player.PlayerPlaying), false)
	send(t, ws, msg)
	require.Eventually(t, func() bool {
		return api.State(ctx) == player.StatePlaying
	}, time.Second, 10*time.Millisecond)
}

func TestPlayer_MediaPlayResult(t *testing.T) {
	b := New()
	base := startBridge(t, b)
	ws := dial(t, base+"/ws/player")
	require.Eventually(t, b.PlayerConnected, time.Second, 10*time.Millisecond)

	el := b.MediaElement()
	ctx := context.Background()

	result := el.Play(ctx)
	cmd := readCommand(t, ws)
	require.Equal(t, protocol.FuncPlay, cmd.Func)
	require.NotEmpty(t, cmd.ID)

	msg, _ := protocol.NewPlayResultMessage(cmd.ID, "NotAllowedError")
	send(t, ws, msg)
	select {
	case err := <-result:
		assert.ErrorIs(t, err, player.ErrPlayRejected)
	case <-time.After(time.Second):
		t.Fatal("play result not delivered")
	}
	assert.True(t, el.Paused())

	result = el.Play(ctx)
	cmd = readCommand(t, ws)
	msg, _ = protocol.NewPlayResultMessage(cmd.ID, "")
	send(t, ws, msg)
	select {
	case err := <-result:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("play result not delivered")
	}
	assert.False(t, el.Paused())

	require.NoError(t, el.Pause(ctx))
	assert.Equal(t, protocol.FuncPause, readCommand(t, ws).Func)
	assert.True(t, el.Paused())
}

func TestPlayer_DisconnectFailsPendingPlay(t *testing.T) {
	b := New()
	base := startBridge(t, b)
	ws := dial(t, base+"/ws/player")
	require.Eventually(t, b.PlayerConnected, time.Second, 10*time.Millisecond)

	result := b.MediaElement().Play(context.Background())
	readCommand(t, ws)
	ws.Close()

	select {
	case err := <-result:
		assert.ErrorIs(t, err, ErrNotConnected)
	case <-time.After(time.Second):
		t.Fatal("pending play not failed on disconnect")
	}
	assert.False(t, b.PlayerConnected())
}

func TestPlayer_UnansweredPlayExpires(t *testing.T) {
	b := New()
	b.playTTL = 10 * time.Millisecond
	base := startBridge(t, b)
	ws := dial(t, base+"/ws/player")
	require.Eventually(t, b.PlayerConnected, time.Second, 10*time.Millisecond)

	el := b.MediaElement()
	first := el.Play(context.Background())
	readCommand(t, ws)
	time.Sleep(20 * time.Millisecond)

	el.Play(context.Background())
	readCommand(t, ws)

	select {
	case err := <-first:
		assert.ErrorIs(t, err, ErrPlayExpired)
	case <-time.After(time.Second):
		t.Fatal("unanswered play not expired")
	}

	b.mu.RLock()
	n := len(b.pending)
	b.mu.RUnlock()
	assert.Equal(t, 1, n)
}

func TestObserver_CannotSpeakForPlayer(t *testing.T) {
	b := New()
	codes := make(chan int, 1)
	b.OnPlayerError(func(code int, _ string) { codes <- code })

	base := startBridge(t, b)
	surface := dial(t, base+"/ws/player")
	observer := dial(t, base+"/ws/observer")
	require.Eventually(t, func() bool {
		return b.PlayerConnected() && b.ObserverCount() == 1
	}, time.Second, 10*time.Millisecond)

	ctx := context.Background()
	result := b.MediaElement().Play(ctx)
	cmd := readCommand(t, surface)

	msg, _ := protocol.NewPlayerErrorMessage(player.CodeEmbedDisallowed2, "spoofed")
	send(t, observer, msg)
	msg, _ = protocol.NewPlayerStateMessage(1, false)
	send(t, observer, msg)
	msg, _ = protocol.NewPlayResultMessage(cmd.ID, "")
	send(t, observer, msg)

	// Ping round-trip orders the check after the spoofed messages.
	ping, _ := protocol.NewMessage(protocol.TypePing, nil)
	send(t, observer, ping)
	_ = observer.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := observer.ReadMessage()
	require.NoError(t, err)

	select {
	case <-codes:
		t.Fatal("player error accepted from an observer")
	default:
	}
	_, err = b.API().PlayerState(ctx)
	assert.ErrorIs(t, err, ErrNoState, "observer must not set player state")
	select {
	case <-result:
		t.Fatal("play result accepted from an observer")
	default:
	}
	assert.True(t, b.MediaElement().Paused())
}

func TestPlayer_ErrorForwarded(t *testing.T) {
	b := New()
	codes := make(chan int, 1)
	b.OnPlayerError(func(code int, _ string) { codes <- code })

	base := startBridge(t, b)
	ws := dial(t, base+"/ws/player")
	require.Eventually(t, b.PlayerConnected, time.Second, 10*time.Millisecond)

	msg, _ := protocol.NewPlayerErrorMessage(player.CodeEmbedDisallowed2, "embedding disabled")
	send(t, ws, msg)

	select {
	case code := <-codes:
		assert.Equal(t, 150, code)
	case <-time.After(time.Second):
		t.Fatal("player error callback not called")
	}
}

func TestPlayer_NewSurfaceReplacesOld(t *testing.T) {
	b := New()
	base := startBridge(t, b)
	first := dial(t, base+"/ws/player")
	require.Eventually(t, b.PlayerConnected, time.Second, 10*time.Millisecond)

	second := dial(t, base+"/ws/player")
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, b.API().PauseVideo(context.Background()))
	assert.Equal(t, protocol.FuncPause, readCommand(t, second).Func)

	_ = first.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := first.ReadMessage()
	assert.Error(t, err, "replaced surface is closed")
}

func TestPingPong(t *testing.T) {
	b := New()
	base := startBridge(t, b)
	ws := dial(t, base+"/ws/observer")

	msg, _ := protocol.NewMessage(protocol.TypePing, nil)
	send(t, ws, msg)

	_ = ws.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	resp, err := protocol.ParseMessage(data)
	require.NoError(t, err)
	assert.Equal(t, protocol.TypePong, resp.Type)
}

func TestRegisterRoutes_RejectsPlainHTTP(t *testing.T) {
	app := fiber.New()
	New().RegisterRoutes(app)

	req := httptest.NewRequest("GET", "/ws/player", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)
}
