package protocol

import (
	"encoding/json"

	"github.com/teslashibe/chewtube/pkg/landmark"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewLandmarksMessage creates a landmarks message
func NewLandmarksMessage(seq uint64, points landmark.Frame) (*Message, error) {
	return NewMessage(TypeLandmarks, LandmarksData{Seq: seq, Points: points})
}

// NewCameraErrorMessage creates a camera error message
func NewCameraErrorMessage(reason string) (*Message, error) {
	return NewMessage(TypeCameraError, CameraErrorData{Reason: reason})
}

// NewCommandMessage creates a play/pause command. id may be empty.
func NewCommandMessage(fn, id string) (*Message, error) {
	return NewMessage(TypeCommand, CommandData{ID: id, Func: fn})
}

// NewEmbedCommandMessage wraps a raw embed payload for forwarding.
func NewEmbedCommandMessage(payload []byte) (*Message, error) {
	return NewMessage(TypeCommand, CommandData{Func: FuncEmbed, Payload: json.RawMessage(payload)})
}

// NewLoadCommandMessage tells the player surface to load a video.
func NewLoadCommandMessage(videoID, embedURL string) (*Message, error) {
	payload, err := json.Marshal(LoadData{VideoID: videoID, EmbedURL: embedURL})
	if err != nil {
		return nil, err
	}
	return NewMessage(TypeCommand, CommandData{Func: FuncLoad, Payload: payload})
}

// NewPlayerStateMessage creates a player state report
func NewPlayerStateMessage(state int, paused bool) (*Message, error) {
	return NewMessage(TypePlayerState, PlayerStateData{State: state, Paused: paused})
}

// NewPlayerErrorMessage creates a player error report
func NewPlayerErrorMessage(code int, message string) (*Message, error) {
	return NewMessage(TypePlayerError, PlayerErrorData{Code: code, Message: message})
}

// NewPlayResultMessage resolves a play command
func NewPlayResultMessage(id, errName string) (*Message, error) {
	return NewMessage(TypePlayResult, PlayResultData{ID: id, Error: errName})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetLandmarksData extracts landmarks from a message
func (m *Message) GetLandmarksData() (*LandmarksData, error) {
	var data LandmarksData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCameraErrorData extracts a camera error from a message
func (m *Message) GetCameraErrorData() (*CameraErrorData, error) {
	var data CameraErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetCommandData extracts a command from a message
func (m *Message) GetCommandData() (*CommandData, error) {
	var data CommandData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPlayerStateData extracts a player state report from a message
func (m *Message) GetPlayerStateData() (*PlayerStateData, error) {
	var data PlayerStateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPlayerErrorData extracts a player error from a message
func (m *Message) GetPlayerErrorData() (*PlayerErrorData, error) {
	var data PlayerErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPlayResultData extracts a play result from a message
func (m *Message) GetPlayResultData() (*PlayResultData, error) {
	var data PlayResultData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
