package session

import "time"

// Config holds the session's timing parameters.
type Config struct {
	// TickInterval is the decay clock period. Decay amounts assume 100ms.
	TickInterval time.Duration

	// FrameBuffer is how many observations may queue before the oldest is dropped.
	FrameBuffer int

	// CallTimeout bounds each backend call made from the loop.
	CallTimeout time.Duration

	// ErrorLogInterval limits repeated backend failure logs.
	ErrorLogInterval time.Duration
}

// DefaultConfig returns the reference timing.
func DefaultConfig() Config {
	return Config{
		TickInterval:     100 * time.Millisecond,
		FrameBuffer:      8,
		CallTimeout:      2 * time.Second,
		ErrorLogInterval: 5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.FrameBuffer <= 0 {
		c.FrameBuffer = d.FrameBuffer
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = d.CallTimeout
	}
	if c.ErrorLogInterval <= 0 {
		c.ErrorLogInterval = d.ErrorLogInterval
	}
	return c
}
