package metrics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Stability is the fraction of observed frames in which the scene was
// running.
type Stability struct {
	name    string
	halted  int
	samples int
}

func NewStability() *Stability {
	return &Stability{name: "stability"}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(sc dynamo.Scene, t float64) {
	s.samples++
	if sc.Halted() {
		s.halted++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.halted)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.halted = 0
	s.samples = 0
}

// Population is the entity count at the latest frame.
type Population struct {
	name  string
	count int
}

func NewPopulation() *Population {
	return &Population{name: "population"}
}

func (p *Population) Name() string                      { return p.name }
func (p *Population) Observe(s dynamo.Scene, _ float64) { p.count = s.Len() }
func (p *Population) Value() float64                    { return float64(p.count) }
func (p *Population) Reset()                            { p.count = 0 }

// MaxSpeed is the largest entity speed seen over the run. Scenes that do
// not expose velocities report zero.
type MaxSpeed struct {
	name string
	max  float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(s dynamo.Scene, _ float64) {
	vr, ok := s.(dynamo.VelocityReader)
	if !ok {
		return
	}
	for _, v := range vr.Velocities() {
		m.max = math.Max(m.max, r3.Norm(v))
	}
}

func (m *MaxSpeed) Value() float64 { return m.max }
func (m *MaxSpeed) Reset()         { m.max = 0 }

// Default returns the metrics recorded for every run.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewEnergy(),
		NewEnergyDrift(),
		NewStability(),
		NewPopulation(),
		NewMaxSpeed(),
	}
}
