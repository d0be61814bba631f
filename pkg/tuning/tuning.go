// Package tuning holds the externally adjustable chew-gate parameters.
//
// Params are read (never mutated) by the session at the start of each tick,
// so a change made through the API takes effect on the next tick.
package tuning

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"
)

// Accepted ranges, matching the dashboard sliders.
const (
	MinSensitivity = 1
	MaxSensitivity = 10

	MinDecayRate  = 0.5
	MaxDecayRate  = 5.0
	DecayRateStep = 0.5

	MinFuelPerBite = 10.0
	MaxFuelPerBite = 100.0
)

var (
	// ErrInvalidSensitivity is returned when sensitivity is outside 1-10.
	ErrInvalidSensitivity = errors.New("tuning: sensitivity must be an integer in [1, 10]")

	// ErrInvalidDecayRate is returned when decay rate is outside 0.5-5.0 or off the 0.5 grid.
	ErrInvalidDecayRate = errors.New("tuning: decay rate must be in [0.5, 5.0] in steps of 0.5")

	// ErrInvalidFuelPerBite is returned when fuel per bite is outside 10-100.
	ErrInvalidFuelPerBite = errors.New("tuning: fuel per bite must be in [10, 100]")
)

// Params holds the real-time adjustable gate parameters.
type Params struct {
	Sensitivity int     `json:"sensitivity" yaml:"sensitivity" toml:"sensitivity"`       // Mouth threshold knob (higher = wider opening required)
	DecayRate   float64 `json:"decay_rate" yaml:"decay_rate" toml:"decay_rate"`          // Fuel drain multiplier per tick
	FuelPerBite float64 `json:"fuel_per_bite" yaml:"fuel_per_bite" toml:"fuel_per_bite"` // Fuel added per bite
}

// Default returns the parameters the dashboard starts with.
func Default() Params {
	return Params{
		Sensitivity: 5,
		DecayRate:   1.5,
		FuelPerBite: 30,
	}
}

// Validate checks every field against its accepted range.
func (p Params) Validate() error {
	var errs []error
	if p.Sensitivity < MinSensitivity || p.Sensitivity > MaxSensitivity {
		errs = append(errs, fmt.Errorf("%w: got %d", ErrInvalidSensitivity, p.Sensitivity))
	}
	if p.DecayRate < MinDecayRate || p.DecayRate > MaxDecayRate || !onGrid(p.DecayRate, DecayRateStep) {
		errs = append(errs, fmt.Errorf("%w: got %v", ErrInvalidDecayRate, p.DecayRate))
	}
	if math.IsNaN(p.FuelPerBite) || p.FuelPerBite < MinFuelPerBite || p.FuelPerBite > MaxFuelPerBite {
		errs = append(errs, fmt.Errorf("%w: got %v", ErrInvalidFuelPerBite, p.FuelPerBite))
	}
	return errors.Join(errs...)
}

// Merge returns p with every non-zero field of update applied.
func (p Params) Merge(update Params) Params {
	if update.Sensitivity != 0 {
		p.Sensitivity = update.Sensitivity
	}
	if update.DecayRate != 0 {
		p.DecayRate = update.DecayRate
	}
	if update.FuelPerBite != 0 {
		p.FuelPerBite = update.FuelPerBite
	}
	return p
}

func onGrid(v, step float64) bool {
	n := v / step
	return math.Abs(n-math.Round(n)) < 1e-9
}

// Store is a concurrency-safe holder for the current Params.
// Writers replace the whole value; readers always see a consistent triple.
type Store struct {
	v atomic.Pointer[Params]
}

// NewStore creates a store seeded with p.
func NewStore(p Params) *Store {
	s := &Store{}
	s.v.Store(&p)
	return s
}

// Get returns the current parameters.
func (s *Store) Get() Params {
	return *s.v.Load()
}

// Set validates and stores p.
func (s *Store) Set(p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.v.Store(&p)
	return nil
}

// Update merges non-zero fields of update into the current value.
// Returns the stored result, or the current value and an error if validation fails.
func (s *Store) Update(update Params) (Params, error) {
	for {
		cur := s.v.Load()
		next := cur.Merge(update)
		if err := next.Validate(); err != nil {
			return *cur, err
		}
		if s.v.CompareAndSwap(cur, &next) {
			return next, nil
		}
	}
}
