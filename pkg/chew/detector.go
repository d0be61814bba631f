package chew

// Threshold maps the sensitivity knob to an openness threshold.
// Sensitivity 1 gives 0.015 and 10 gives 0.06: a higher value needs a wider mouth.
func Threshold(sensitivity int) float64 {
	return 0.01 + float64(sensitivity)*0.005
}

// EdgeDetector fires one bite per open period.
// It is not safe for concurrent use; the session owns it.
type EdgeDetector struct {
	open bool
}

// Observe feeds one openness sample and reports whether a bite fired.
func (d *EdgeDetector) Observe(openness float64, sensitivity int) bool {
	if openness > Threshold(sensitivity) {
		if d.open {
			return false
		}
		d.open = true
		return true
	}
	d.open = false
	return false
}

// Open reports whether the detector currently considers the mouth open.
func (d *EdgeDetector) Open() bool {
	return d.open
}

// Reset forgets the current open period.
func (d *EdgeDetector) Reset() {
	d.open = false
}
