// Package fuel implements the depletable reserve that gates playback.
package fuel

import "sync"

// Reserve bounds.
const (
	Empty = 0.0
	Full  = 100.0
)

// DecayScale ties the decay rate to the 100ms tick: rate 1.5 drains 0.75 per tick.
const DecayScale = 0.5

// Controller owns the fuel level.
// Bites and decay ticks are the only writers; each is a single locked
// read-modify-write so concurrent callers never lose an update.
type Controller struct {
	mu    sync.RWMutex
	level float64
}

// New creates an empty reserve.
func New() *Controller {
	return &Controller{}
}

// OnBite adds perBite fuel, capped at Full. Returns the new level.
func (c *Controller) OnBite(perBite float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = clamp(c.level + perBite)
	return c.level
}

// OnDecayTick drains rate*DecayScale fuel, floored at Empty. Returns the new level.
func (c *Controller) OnDecayTick(rate float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = clamp(c.level - rate*DecayScale)
	return c.level
}

// Level returns the current fuel level.
func (c *Controller) Level() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.level
}

// Allowed reports whether playback is allowed (level > 0).
func (c *Controller) Allowed() bool {
	return c.Level() > Empty
}

// Reset empties the reserve.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.level = Empty
	c.mu.Unlock()
}

// clamp limits a level to [Empty, Full]
func clamp(v float64) float64 {
	if v < Empty || v != v {
		return Empty
	}
	if v > Full {
		return Full
	}
	return v
}
