// Package session runs the chew-gated playback loop for one viewer.
//
// A Session owns the fuel reserve, the bite detector, the gate and the active
// playback backend. Run is the single consumer: decay ticks, landmark frames
// and control commands all arrive on channels and are applied one at a time
// on the Run goroutine, so fuel updates never interleave.
package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/chewtube/internal/log"
	"github.com/teslashibe/chewtube/pkg/chew"
	"github.com/teslashibe/chewtube/pkg/fuel"
	"github.com/teslashibe/chewtube/pkg/gate"
	"github.com/teslashibe/chewtube/pkg/landmark"
	"github.com/teslashibe/chewtube/pkg/player"
	"github.com/teslashibe/chewtube/pkg/tuning"
)

// Recorder receives loop telemetry. pkg/metrics provides the Prometheus one.
type Recorder interface {
	Frame(face bool)
	FrameDropped()
	Bite()
	Fuel(level float64)
	Transition(from, to gate.State)
	Intent(intent gate.Intent, issued bool)
	BackendError(kind player.Kind, code int)
	CallFailed(kind player.Kind)
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdReportError
	cmdClearError
	cmdSwitchBackend
	cmdDetectionFault
)

type command struct {
	kind    commandKind
	backend player.Backend
	err     *player.Error
	reason  string
	result  error
	done    chan struct{}
}

// Session is one viewer's closed-loop controller.
type Session struct {
	id     string
	cfg    Config
	params *tuning.Store
	logger *slog.Logger

	// Owned by the Run goroutine
	fuel     *fuel.Controller
	detector chew.EdgeDetector
	gate     *gate.Gate
	backend  player.Backend
	lastErr  *player.Error
	fault    string
	sample   chew.Sample
	hasFace  bool
	lastLog  time.Time

	frames chan landmark.Frame
	cmds   chan command
	exited chan struct{}
	once   sync.Once

	dropped atomic.Uint64

	// Published view
	mu       sync.RWMutex
	snap     Snapshot
	recorder Recorder
	onUpdate []func(Snapshot)
}

// New creates a session. backend may be nil until SwitchBackend is called.
func New(cfg Config, params *tuning.Store, backend player.Backend) *Session {
	if params == nil {
		params = tuning.NewStore(tuning.Default())
	}
	cfg = cfg.withDefaults()
	id := uuid.NewString()

	s := &Session{
		id:      id,
		cfg:     cfg,
		params:  params,
		logger:  log.Component("session").With("session_id", id),
		fuel:    fuel.New(),
		gate:    gate.New(),
		backend: backend,
		frames:  make(chan landmark.Frame, cfg.FrameBuffer),
		cmds:    make(chan command, 16),
		exited:  make(chan struct{}),
	}
	s.publish()
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string {
	return s.id
}

// Params returns the tuning store the session reads each tick.
func (s *Session) Params() *tuning.Store {
	return s.params
}

// SetRecorder installs a telemetry recorder. Call before Run.
func (s *Session) SetRecorder(r Recorder) {
	s.mu.Lock()
	s.recorder = r
	s.mu.Unlock()
}

// OnUpdate registers a callback invoked with a fresh snapshot after every
// tick and command. Callbacks run on the loop goroutine and must not block.
func (s *Session) OnUpdate(fn func(Snapshot)) {
	s.mu.Lock()
	s.onUpdate = append(s.onUpdate, fn)
	s.mu.Unlock()
}

// Snapshot returns the latest published view.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Run drives the session until ctx is cancelled. On exit the active backend
// is paused and closed.
func (s *Session) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()
	defer s.once.Do(func() { close(s.exited) })
	defer s.teardown()

	s.logger.Info("session loop started",
		"tick", s.cfg.TickInterval, "frame_buffer", s.cfg.FrameBuffer)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session loop stopped")
			return ctx.Err()

		case <-ticker.C:
			s.tick(ctx)

		case f := <-s.frames:
			s.observe(f)

		case c := <-s.cmds:
			c.result = s.apply(ctx, c)
			close(c.done)
		}
	}
}

// Submit hands one observation to the loop without blocking.
// When the buffer is full the oldest queued frame is dropped.
func (s *Session) Submit(f landmark.Frame) {
	select {
	case s.frames <- f:
		return
	default:
	}

	select {
	case <-s.frames:
		s.dropped.Add(1)
		if r := s.rec(); r != nil {
			r.FrameDropped()
		}
	default:
	}

	select {
	case s.frames <- f:
	default:
		s.dropped.Add(1)
	}
}

// Start begins gating. Fuel starts empty so the first evaluation pauses.
func (s *Session) Start() error {
	return s.send(command{kind: cmdStart})
}

// Stop returns to Waiting, empties the reserve and pauses the backend.
func (s *Session) Stop() error {
	return s.send(command{kind: cmdStop})
}

// ReportError locks the gate to Paused until ClearError or SwitchBackend.
func (s *Session) ReportError(err *player.Error) error {
	return s.send(command{kind: cmdReportError, err: err})
}

// ClearError unlocks the gate.
func (s *Session) ClearError() error {
	return s.send(command{kind: cmdClearError})
}

// SwitchBackend quiesces the current backend and installs b. Fuel carries over.
func (s *Session) SwitchBackend(b player.Backend) error {
	if b == nil {
		return ErrNilBackend
	}
	return s.send(command{kind: cmdSwitchBackend, backend: b})
}

// DetectionFault records that the observer can no longer produce frames
// (for example camera permission denied). Fuel freezes at its current value
// apart from decay; the gate keeps running.
func (s *Session) DetectionFault(reason string) error {
	return s.send(command{kind: cmdDetectionFault, reason: reason})
}

func (s *Session) send(c command) error {
	c.done = make(chan struct{})
	select {
	case s.cmds <- c:
	case <-s.exited:
		return ErrClosed
	}
	select {
	case <-c.done:
		return c.result
	case <-s.exited:
		return ErrClosed
	}
}

// tick runs one decay period: drain, re-evaluate, drive the backend.
func (s *Session) tick(ctx context.Context) {
	if s.gate.Started() {
		p := s.params.Get()
		level := s.fuel.OnDecayTick(p.DecayRate)
		s.evaluate(ctx, level)
	}
	s.mu.Lock()
	s.snap.Ticks++
	s.mu.Unlock()
	s.publish()
}

// observe runs the detection pipeline for one frame.
func (s *Session) observe(f landmark.Frame) {
	s.mu.Lock()
	s.snap.Frames++
	s.mu.Unlock()

	if s.fault != "" {
		s.logger.Info("detection recovered", "fault", s.fault)
		s.fault = ""
	}

	sample, ok := chew.Estimate(f)
	if r := s.rec(); r != nil {
		r.Frame(ok)
	}
	if !ok {
		s.hasFace = false
		s.mu.Lock()
		s.snap.EmptyFrames++
		s.mu.Unlock()
		return
	}
	s.sample = sample
	s.hasFace = true

	p := s.params.Get()
	if !s.detector.Observe(sample.Openness, p.Sensitivity) {
		return
	}
	if !s.gate.Started() {
		return
	}

	level := s.fuel.OnBite(p.FuelPerBite)
	s.mu.Lock()
	s.snap.Bites++
	s.mu.Unlock()
	if r := s.rec(); r != nil {
		r.Bite()
		r.Fuel(level)
	}
	s.logger.Debug("bite", "openness", sample.Openness, "fuel", level)
}

// apply executes one control command on the loop goroutine.
func (s *Session) apply(ctx context.Context, c command) error {
	defer s.publish()

	switch c.kind {
	case cmdStart:
		if s.gate.Started() {
			return nil
		}
		s.fuel.Reset()
		s.detector.Reset()
		s.gate.Start()
		s.logger.Info("session started")
		s.evaluate(ctx, s.fuel.Level())

	case cmdStop:
		from := s.gate.State()
		s.gate.Stop()
		s.fuel.Reset()
		s.detector.Reset()
		s.logger.Info("session stopped", "from", from)
		if from != gate.Waiting {
			if r := s.rec(); r != nil {
				r.Transition(from, gate.Waiting)
			}
		}
		s.drive(ctx, gate.Pause)

	case cmdReportError:
		if c.err == nil {
			return nil
		}
		s.lastErr = c.err
		s.gate.SetError(true)
		s.logger.Warn("backend error, gate locked", "kind", c.err.Kind, "code", c.err.Code, "error", c.err.Message)
		if r := s.rec(); r != nil {
			r.BackendError(c.err.Kind, c.err.Code)
		}
		s.evaluate(ctx, s.fuel.Level())

	case cmdClearError:
		s.clearError()
		s.evaluate(ctx, s.fuel.Level())

	case cmdSwitchBackend:
		s.quiesce(ctx)
		s.backend = c.backend
		s.clearError()
		s.logger.Info("backend switched", "kind", c.backend.Kind(), "fuel", s.fuel.Level())
		s.evaluate(ctx, s.fuel.Level())

	case cmdDetectionFault:
		s.fault = c.reason
		s.hasFace = false
		s.logger.Warn("detection unavailable, fuel frozen", "reason", c.reason)
	}
	return nil
}

func (s *Session) clearError() {
	if s.lastErr != nil {
		s.logger.Info("backend error cleared")
	}
	s.lastErr = nil
	s.gate.SetError(false)
}

// evaluate re-derives the gate state and drives the backend toward it.
func (s *Session) evaluate(ctx context.Context, level float64) {
	st, intent, tr, changed := s.gate.Evaluate(level)
	if changed {
		s.logger.Info("gate transition", "from", tr.From, "to", tr.To, "fuel", level)
		if r := s.rec(); r != nil {
			r.Transition(tr.From, tr.To)
		}
	}
	if r := s.rec(); r != nil {
		r.Fuel(level)
	}
	if st == gate.Waiting {
		return
	}
	s.drive(ctx, intent)
}

// drive applies intent to the active backend. Failures are transient:
// they are logged (rate limited) and retried on the next tick.
func (s *Session) drive(ctx context.Context, intent gate.Intent) {
	if s.backend == nil {
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	issued, err := player.Dispatch(callCtx, s.backend, intent)
	r := s.rec()
	if r != nil {
		r.Intent(intent, issued)
	}
	s.mu.Lock()
	s.snap.Intent = intent
	s.mu.Unlock()

	if err == nil {
		return
	}
	if r != nil {
		r.CallFailed(s.backend.Kind())
	}
	if s.lastLog.IsZero() || time.Since(s.lastLog) > s.cfg.ErrorLogInterval {
		s.logger.Warn("backend call failed, retrying next tick",
			"kind", s.backend.Kind(), "intent", intent, "error", err)
		s.lastLog = time.Now()
	}
}

// quiesce pauses and closes the active backend. It runs even when ctx is done.
func (s *Session) quiesce(ctx context.Context) {
	if s.backend == nil {
		return
	}
	if ctx.Err() != nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()

	old := s.backend
	if _, err := player.Dispatch(callCtx, old, gate.Pause); err != nil {
		s.logger.Debug("pause before close failed", "kind", old.Kind(), "error", err)
	}
	if err := old.Close(); err != nil {
		s.logger.Warn("backend close failed", "kind", old.Kind(), "error", err)
	}
	s.backend = nil
}

func (s *Session) teardown() {
	s.quiesce(context.Background())
	s.publish()
}

func (s *Session) rec() Recorder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recorder
}

// publish rebuilds the snapshot and notifies listeners.
func (s *Session) publish() {
	p := s.params.Get()
	level := s.fuel.Level()

	s.mu.Lock()
	snap := s.snap
	snap.SessionID = s.id
	snap.State = s.gate.State()
	snap.Started = s.gate.Started()
	snap.Fuel = level
	snap.Allowed = level > 0
	snap.Threshold = chew.Threshold(p.Sensitivity)
	snap.MouthOpen = s.detector.Open()
	snap.Tuning = p
	snap.DetectionFault = s.fault
	snap.DroppedFrames = s.dropped.Load()
	snap.Backend = ""
	if s.backend != nil {
		snap.Backend = s.backend.Kind()
	}
	snap.Error, snap.ErrorCode = "", 0
	if s.lastErr != nil {
		snap.Error = s.lastErr.Notice()
		snap.ErrorCode = s.lastErr.Code
	}
	snap.Openness = 0
	snap.Keypoints = nil
	if s.hasFace {
		kp := s.sample.Keypoints
		snap.Openness = s.sample.Openness
		snap.Keypoints = &kp
	}
	snap.UpdatedAt = time.Now()
	s.snap = snap
	listeners := s.onUpdate
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
