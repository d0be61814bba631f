// Package protocol defines the WebSocket message types exchanged between the
// chewtube server and browser clients (face observer and player surface).
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/chewtube/pkg/landmark"
)

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Observer → Server messages
	TypeLandmarks   MessageType = "landmarks"    // One face keypoint set (empty = no face)
	TypeCameraError MessageType = "camera_error" // Camera could not be opened

	// Server → Player messages
	TypeCommand MessageType = "command" // Play/pause instruction

	// Player → Server messages
	TypePlayerState MessageType = "player_state" // Current player state
	TypePlayerError MessageType = "player_error" // Asynchronous playback error
	TypePlayResult  MessageType = "play_result"  // Outcome of an async play()

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Observer → Server Message Types
// =============================================================================

// LandmarksData carries one observation. Points is empty when no face was found.
type LandmarksData struct {
	Seq    uint64         `json:"seq,omitempty"`
	Points landmark.Frame `json:"points"`
}

// CameraErrorData reports that the camera is unavailable.
type CameraErrorData struct {
	Reason string `json:"reason"` // "denied", "not_found", ...
}

// =============================================================================
// Server → Player Message Types
// =============================================================================

// Command functions.
const (
	FuncPlay  = "play"
	FuncPause = "pause"
	FuncEmbed = "embed" // Payload is forwarded verbatim to the embedded frame
	FuncLoad  = "load"  // Payload is LoadData
)

// CommandData instructs the player surface.
type CommandData struct {
	ID      string          `json:"id,omitempty"` // Set for plays that expect a play_result
	Func    string          `json:"func"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LoadData tells the player surface to switch videos.
type LoadData struct {
	VideoID  string `json:"video_id"`
	EmbedURL string `json:"embed_url"`
}

// =============================================================================
// Player → Server Message Types
// =============================================================================

// PlayerStateData reports the surface's current state.
type PlayerStateData struct {
	State  int  `json:"state"`  // YouTube-style state code for API players
	Paused bool `json:"paused"` // Native media element paused flag
}

// PlayerErrorData reports a playback error.
type PlayerErrorData struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// PlayResultData resolves a pending play command.
type PlayResultData struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"` // e.g. "NotAllowedError"
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
