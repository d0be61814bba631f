package protocol

import (
	"encoding/json"
	"testing"

	"github.com/teslashibe/chewtube/pkg/landmark"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    any
		wantErr bool
	}{
		{
			name:    "landmarks message",
			msgType: TypeLandmarks,
			data:    LandmarksData{Seq: 1, Points: landmark.Frame{{X: 0.1, Y: 0.2}}},
		},
		{
			name:    "command message",
			msgType: TypeCommand,
			data:    CommandData{Func: FuncPlay},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeCommand,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestParseMessage_Landmarks(t *testing.T) {
	raw := []byte(`{"type":"landmarks","data":{"seq":7,"points":[{"x":0.5,"y":0.25},{"x":0.5,"y":0.75,"z":-0.01}]}}`)

	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	data, err := msg.GetLandmarksData()
	if err != nil {
		t.Fatalf("GetLandmarksData() error = %v", err)
	}
	if data.Seq != 7 || len(data.Points) != 2 {
		t.Fatalf("unexpected data %+v", data)
	}
	if data.Points[1].Y != 0.75 || data.Points[1].Z != -0.01 {
		t.Errorf("Points[1] = %+v", data.Points[1])
	}
}

func TestParseMessage_EmptyFaceIsValid(t *testing.T) {
	msg, err := ParseMessage([]byte(`{"type":"landmarks","data":{"points":[]}}`))
	if err != nil {
		t.Fatal(err)
	}
	data, _ := msg.GetLandmarksData()
	if !data.Points.Empty() {
		t.Error("Expected empty frame")
	}
}

func TestParseMessage_Invalid(t *testing.T) {
	if _, err := ParseMessage([]byte(`not json`)); err == nil {
		t.Error("Expected error for invalid JSON")
	}
	if _, err := ParseMessage([]byte(`{"data":{}}`)); err == nil {
		t.Error("Expected error for missing type")
	}
}

func TestEmbedCommandMessage_ForwardsPayload(t *testing.T) {
	payload := []byte(`{"event":"command","func":"playVideo","args":""}`)
	msg, err := NewEmbedCommandMessage(payload)
	if err != nil {
		t.Fatal(err)
	}

	b, _ := msg.Bytes()
	parsed, err := ParseMessage(b)
	if err != nil {
		t.Fatal(err)
	}
	cmd, err := parsed.GetCommandData()
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Func != FuncEmbed {
		t.Errorf("Func = %s, want embed", cmd.Func)
	}

	var inner map[string]string
	if err := json.Unmarshal(cmd.Payload, &inner); err != nil {
		t.Fatal(err)
	}
	if inner["func"] != "playVideo" {
		t.Errorf("inner func = %s", inner["func"])
	}
}

func TestPlayerMessages(t *testing.T) {
	msg, _ := NewPlayerStateMessage(1, false)
	st, err := msg.GetPlayerStateData()
	if err != nil || st.State != 1 || st.Paused {
		t.Errorf("player state = %+v, %v", st, err)
	}

	msg, _ = NewPlayerErrorMessage(150, "embedding disabled")
	pe, err := msg.GetPlayerErrorData()
	if err != nil || pe.Code != 150 {
		t.Errorf("player error = %+v, %v", pe, err)
	}

	msg, _ = NewPlayResultMessage("abc", "NotAllowedError")
	pr, err := msg.GetPlayResultData()
	if err != nil || pr.ID != "abc" || pr.Error != "NotAllowedError" {
		t.Errorf("play result = %+v, %v", pr, err)
	}
}

func TestPongLatency(t *testing.T) {
	msg, _ := NewPongMessage("p1", 1000, 1045)
	var pong PongData
	if err := msg.ParseData(&pong); err != nil {
		t.Fatal(err)
	}
	if pong.LatencyMs != 45 {
		t.Errorf("LatencyMs = %d, want 45", pong.LatencyMs)
	}
}

func TestLoadCommandMessage(t *testing.T) {
	msg, err := NewLoadCommandMessage("aqz-KE-bpKQ", "https://www.youtube.com/embed/aqz-KE-bpKQ")
	if err != nil {
		t.Fatal(err)
	}
	cmd, err := msg.GetCommandData()
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Func != FuncLoad {
		t.Errorf("Func = %s, want load", cmd.Func)
	}
	var load LoadData
	if err := json.Unmarshal(cmd.Payload, &load); err != nil {
		t.Fatal(err)
	}
	if load.VideoID != "aqz-KE-bpKQ" {
		t.Errorf("VideoID = %s", load.VideoID)
	}
}
