// Package landmark defines the facial keypoint frames produced by the face observer.
package landmark

// FaceMesh indices for the points the chew detector needs.
// These follow the 468/478-point MediaPipe FaceMesh topology.
const (
	UpperLip = 13
	LowerLip = 14
	Forehead = 10
	Chin     = 152
)

// MinPoints is the shortest frame that still contains every named index.
const MinPoints = Chin + 1

// Point is a normalized image coordinate (0-1 on each axis, Z relative depth).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z,omitempty"`
}

// Frame is the keypoint set for at most one face in one captured image.
// An empty frame means no face was found.
type Frame []Point

// Empty returns true if no face was detected in this frame.
func (f Frame) Empty() bool {
	return len(f) == 0
}

// Keypoints are the four named points extracted from a frame.
type Keypoints struct {
	UpperLip Point `json:"upper_lip"`
	LowerLip Point `json:"lower_lip"`
	Forehead Point `json:"forehead"`
	Chin     Point `json:"chin"`
}

// Keypoints extracts the named points.
// Returns false if the frame is empty or too short to hold them.
func (f Frame) Keypoints() (Keypoints, bool) {
	if len(f) < MinPoints {
		return Keypoints{}, false
	}
	return Keypoints{
		UpperLip: f[UpperLip],
		LowerLip: f[LowerLip],
		Forehead: f[Forehead],
		Chin:     f[Chin],
	}, true
}
