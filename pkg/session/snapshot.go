package session

import (
	"time"

	"github.com/teslashibe/chewtube/pkg/gate"
	"github.com/teslashibe/chewtube/pkg/landmark"
	"github.com/teslashibe/chewtube/pkg/player"
	"github.com/teslashibe/chewtube/pkg/tuning"
)

// Snapshot is a read-only view of the session for dashboards and overlays.
// Nothing in the control loop depends on it being read.
type Snapshot struct {
	SessionID string      `json:"session_id"`
	State     gate.State  `json:"state"`
	Intent    gate.Intent `json:"intent"`
	Started   bool        `json:"started"`
	Fuel      float64     `json:"fuel"`
	Allowed   bool        `json:"allowed"`

	// Detection
	Openness       float64             `json:"openness"`
	Threshold      float64             `json:"threshold"`
	MouthOpen      bool                `json:"mouth_open"`
	Keypoints      *landmark.Keypoints `json:"keypoints,omitempty"`
	DetectionFault string              `json:"detection_fault,omitempty"`

	// Backend
	Backend   player.Kind `json:"backend,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode int         `json:"error_code,omitempty"`

	Tuning tuning.Params `json:"tuning"`

	// Counters
	Ticks         uint64 `json:"ticks"`
	Frames        uint64 `json:"frames"`
	EmptyFrames   uint64 `json:"empty_frames"`
	DroppedFrames uint64 `json:"dropped_frames"`
	Bites         uint64 `json:"bites"`

	UpdatedAt time.Time `json:"updated_at"`
}
