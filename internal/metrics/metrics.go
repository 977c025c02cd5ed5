// Package metrics derives scalar run statistics from the per-step
// result snapshots. Metrics are passive observers: feed every snapshot
// through Observe and read Value at the end of the run.
package metrics

import (
	"math"

	"github.com/san-kum/partsim/internal/engine"
)

type Metric interface {
	Name() string
	Observe(r *engine.CoupledResults)
	Value() float64
	Reset()
}

// PeakStress tracks the worst mechanical stress seen in Pa.
type PeakStress struct {
	peak float64
}

func NewPeakStress() *PeakStress { return &PeakStress{} }

func (m *PeakStress) Name() string { return "peak_stress" }

func (m *PeakStress) Observe(r *engine.CoupledResults) {
	if s := r.MaxStress(); s > m.peak {
		m.peak = s
	}
}

func (m *PeakStress) Value() float64 { return m.peak }
func (m *PeakStress) Reset()         { m.peak = 0 }

// PeakTemperature tracks the hottest node temperature seen in degC.
type PeakTemperature struct {
	peak    float64
	samples int
}

func NewPeakTemperature() *PeakTemperature { return &PeakTemperature{} }

func (m *PeakTemperature) Name() string { return "peak_temperature" }

func (m *PeakTemperature) Observe(r *engine.CoupledResults) {
	t := r.MaxTemperature()
	if m.samples == 0 || t > m.peak {
		m.peak = t
	}
	m.samples++
}

func (m *PeakTemperature) Value() float64 { return m.peak }

func (m *PeakTemperature) Reset() {
	m.peak = 0
	m.samples = 0
}

// MeanPower averages the total dissipated electrical power in watts.
type MeanPower struct {
	total   float64
	samples int
}

func NewMeanPower() *MeanPower { return &MeanPower{} }

func (m *MeanPower) Name() string { return "mean_power" }

func (m *MeanPower) Observe(r *engine.CoupledResults) {
	m.total += r.TotalPower()
	m.samples++
}

func (m *MeanPower) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanPower) Reset() {
	m.total = 0
	m.samples = 0
}

// Reliability reports the latest system reliability, the product of
// all component health scores.
type Reliability struct {
	latest float64
}

func NewReliability() *Reliability { return &Reliability{latest: 1} }

func (m *Reliability) Name() string { return "reliability" }

func (m *Reliability) Observe(r *engine.CoupledResults) { m.latest = r.Reliability() }

func (m *Reliability) Value() float64 { return m.latest }
func (m *Reliability) Reset()         { m.latest = 1 }

// ThermalDrift is the worst relative change of stored thermal energy
// against the first observed sample. On a closed network with no heat
// input it should stay near zero.
type ThermalDrift struct {
	initial  float64
	maxDrift float64
	samples  int
}

func NewThermalDrift() *ThermalDrift { return &ThermalDrift{} }

func (m *ThermalDrift) Name() string { return "thermal_drift" }

func (m *ThermalDrift) Observe(r *engine.CoupledResults) {
	if r.Thermal == nil {
		return
	}
	energy := r.Thermal.StoredEnergy
	if m.samples == 0 {
		m.initial = energy
	}
	m.samples++
	if m.initial != 0 {
		drift := math.Abs(energy-m.initial) / math.Abs(m.initial)
		m.maxDrift = math.Max(m.maxDrift, drift)
	}
}

func (m *ThermalDrift) Value() float64 { return m.maxDrift }

func (m *ThermalDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}

// Collector fans snapshots out to a set of metrics and reports their
// values by name.
type Collector struct {
	metrics []Metric
}

func NewCollector(ms ...Metric) *Collector {
	if len(ms) == 0 {
		ms = []Metric{
			NewPeakStress(),
			NewPeakTemperature(),
			NewMeanPower(),
			NewReliability(),
			NewThermalDrift(),
		}
	}
	return &Collector{metrics: ms}
}

func (c *Collector) Observe(r *engine.CoupledResults) {
	for _, m := range c.metrics {
		m.Observe(r)
	}
}

func (c *Collector) Values() map[string]float64 {
	out := make(map[string]float64, len(c.metrics))
	for _, m := range c.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

func (c *Collector) Reset() {
	for _, m := range c.metrics {
		m.Reset()
	}
}
