// Package chew turns facial keypoints into discrete bite events.
//
// The pipeline is two stages: an estimator reduces each frame to a single
// mouth openness ratio, and an edge detector fires once each time that
// ratio rises above the sensitivity threshold.
package chew

import (
	"math"

	"github.com/teslashibe/chewtube/pkg/landmark"
)

// Sample is one frame's openness measurement plus the points it came from.
type Sample struct {
	Openness  float64            `json:"openness"`
	Keypoints landmark.Keypoints `json:"keypoints"`
}

// Openness returns vertical lip separation divided by face height.
// Returns false when the face height is zero.
func Openness(k landmark.Keypoints) (float64, bool) {
	mouth := math.Abs(k.UpperLip.Y - k.LowerLip.Y)
	face := math.Abs(k.Chin.Y - k.Forehead.Y)
	if face == 0 || math.IsNaN(face) || math.IsNaN(mouth) {
		return 0, false
	}
	return mouth / face, true
}

// Estimate measures one frame. No smoothing is applied; every frame stands alone.
// Returns false for empty frames and degenerate faces (no signal this frame).
func Estimate(f landmark.Frame) (Sample, bool) {
	kp, ok := f.Keypoints()
	if !ok {
		return Sample{}, false
	}
	ratio, ok := Openness(kp)
	if !ok {
		return Sample{}, false
	}
	return Sample{Openness: ratio, Keypoints: kp}, true
}
