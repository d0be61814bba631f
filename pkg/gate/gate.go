// Package gate converts fuel sign, session state and backend errors into
// play/pause intents.
package gate

// State is the gate's derived state.
type State int

const (
	// Waiting means the session has not been started.
	Waiting State = iota
	// Eating means started, fuel above zero and no backend error.
	Eating
	// Paused means started with an empty reserve or an active backend error.
	Paused
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Waiting:
		return "waiting"
	case Eating:
		return "eating"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// MarshalText lets State serialize as its name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Intent is the only vocabulary the gate shares with playback backends.
type Intent int

const (
	Pause Intent = iota
	Play
)

// String implements fmt.Stringer.
func (i Intent) String() string {
	if i == Play {
		return "play"
	}
	return "pause"
}

// MarshalText lets Intent serialize as its name.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// Derive is the pure state function. The boundary is exact: any level above
// zero is Eating unless an error is active.
func Derive(started bool, level float64, errActive bool) State {
	switch {
	case !started:
		return Waiting
	case errActive || level <= 0:
		return Paused
	default:
		return Eating
	}
}

// IntentFor maps a state to the intent the backend should be driven toward.
func IntentFor(s State) Intent {
	if s == Eating {
		return Play
	}
	return Pause
}

// Transition records a state change.
type Transition struct {
	From State
	To   State
}

// Gate holds the inputs Derive needs besides fuel and remembers the last
// evaluated state so callers can observe transitions.
// It is not safe for concurrent use; the session owns it.
type Gate struct {
	started   bool
	errActive bool
	last      State
}

// New creates a gate in the Waiting state.
func New() *Gate {
	return &Gate{last: Waiting}
}

// Start marks the session as started.
func (g *Gate) Start() {
	g.started = true
}

// Stop marks the session as stopped. The caller resets fuel and issues Pause.
func (g *Gate) Stop() {
	g.started = false
	g.last = Waiting
}

// Started reports whether the session is running.
func (g *Gate) Started() bool {
	return g.started
}

// SetError locks (true) or unlocks (false) the gate against Play.
func (g *Gate) SetError(active bool) {
	g.errActive = active
}

// ErrorActive reports whether a backend error currently locks the gate.
func (g *Gate) ErrorActive() bool {
	return g.errActive
}

// State returns the last evaluated state.
func (g *Gate) State() State {
	return g.last
}

// Evaluate derives the state for the given fuel level and returns it with the
// intent to issue. changed is true when the state differs from the last call.
func (g *Gate) Evaluate(level float64) (State, Intent, Transition, bool) {
	next := Derive(g.started, level, g.errActive)
	tr := Transition{From: g.last, To: next}
	g.last = next
	return next, IntentFor(next), tr, tr.From != tr.To
}
