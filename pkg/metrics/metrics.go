// Package metrics exposes chew-gate telemetry as Prometheus series.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teslashibe/chewtube/pkg/gate"
	"github.com/teslashibe/chewtube/pkg/player"
)

const namespace = "chewtube"

// Collector implements session.Recorder on its own registry.
type Collector struct {
	registry *prometheus.Registry

	frames       *prometheus.CounterVec
	dropped      prometheus.Counter
	bites        prometheus.Counter
	fuel         prometheus.Gauge
	state        *prometheus.GaugeVec
	transitions  *prometheus.CounterVec
	intents      *prometheus.CounterVec
	errors       *prometheus.CounterVec
	callFailures *prometheus.CounterVec
}

// New creates a collector and registers its series plus the Go runtime collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "frames_total",
			Help:      "Landmark frames processed, by whether a face was found",
		}, []string{"face"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "frames_dropped_total",
			Help:      "Frames dropped because the loop fell behind",
		}),
		bites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detect",
			Name:      "bites_total",
			Help:      "Rising edges of mouth openness counted as bites",
		}),
		fuel: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "fuel",
			Help:      "Current fuel level in [0,100]",
		}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "state",
			Help:      "1 for the current gate state, 0 otherwise",
		}, []string{"state"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "transitions_total",
			Help:      "Gate state transitions",
		}, []string{"from", "to"}),
		intents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "intents_total",
			Help:      "Intents evaluated, by whether a backend call was issued",
		}, []string{"intent", "issued"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "errors_total",
			Help:      "Playback errors reported by backends",
		}, []string{"kind", "code"}),
		callFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "player",
			Name:      "call_failures_total",
			Help:      "Backend play/pause calls that returned an error",
		}, []string{"kind"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.frames, c.dropped, c.bites, c.fuel, c.state,
		c.transitions, c.intents, c.errors, c.callFailures,
	)
	c.setState(gate.Waiting)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) Frame(face bool) {
	c.frames.WithLabelValues(strconv.FormatBool(face)).Inc()
}

func (c *Collector) FrameDropped() {
	c.dropped.Inc()
}

func (c *Collector) Bite() {
	c.bites.Inc()
}

func (c *Collector) Fuel(level float64) {
	c.fuel.Set(level)
}

func (c *Collector) Transition(from, to gate.State) {
	c.transitions.WithLabelValues(from.String(), to.String()).Inc()
	c.setState(to)
}

func (c *Collector) Intent(intent gate.Intent, issued bool) {
	c.intents.WithLabelValues(intent.String(), strconv.FormatBool(issued)).Inc()
}

func (c *Collector) BackendError(kind player.Kind, code int) {
	c.errors.WithLabelValues(string(kind), strconv.Itoa(code)).Inc()
}

func (c *Collector) CallFailed(kind player.Kind) {
	c.callFailures.WithLabelValues(string(kind)).Inc()
}

func (c *Collector) setState(current gate.State) {
	for _, s := range []gate.State{gate.Waiting, gate.Eating, gate.Paused} {
		v := 0.0
		if s == current {
			v = 1
		}
		c.state.WithLabelValues(s.String()).Set(v)
	}
}
