// Package metrics exports controller progress for the node-exporter
// textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"agv-lift/internal/types"
)

const namespace = "agv"

type Metrics struct {
	registry   *prometheus.Registry
	controller string

	transitions    *prometheus.CounterVec
	failures       *prometheus.CounterVec
	stateIndex     *prometheus.GaugeVec
	rangingInvalid prometheus.Counter
	distance       prometheus.Gauge
	weight         prometheus.Gauge
}

func New(controller string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		registry:   reg,
		controller: controller,
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_transitions_total",
			Help:      "Phases entered, by controller and phase.",
		}, []string{"controller", "state"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "phase_failures_total",
			Help:      "Phases that returned an error, by controller and phase.",
		}, []string{"controller", "state"}),
		stateIndex: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "state_index",
			Help:      "Position of the current phase in the controller's sequence. Never decreases; an aborted controller keeps the failed phase.",
		}, []string{"controller"}),
		rangingInvalid: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ranging_invalid_total",
			Help:      "Ranging cycles skipped because the echo gave no reading.",
		}),
		distance: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ranging_distance_cm",
			Help:      "Last valid obstacle distance.",
		}),
		weight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "load_weight_kg",
			Help:      "Last load cell weight.",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) StateEntered(state types.ControllerState, index int) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(m.controller, string(state)).Inc()
	m.stateIndex.WithLabelValues(m.controller).Set(float64(index))
}

func (m *Metrics) PhaseFailed(state types.ControllerState) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(m.controller, string(state)).Inc()
}

func (m *Metrics) RangingInvalid() {
	if m == nil {
		return
	}
	m.rangingInvalid.Inc()
}

func (m *Metrics) Distance(cm float64) {
	if m == nil {
		return
	}
	m.distance.Set(cm)
}

func (m *Metrics) Weight(kg float64) {
	if m == nil {
		return
	}
	m.weight.Set(kg)
}

// WriteTextfile atomically replaces path with the current metrics.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
