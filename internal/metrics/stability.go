package metrics

import (
	"math"

	"github.com/san-kum/balancer/internal/control"
)

// Stability is the fraction of ticks with a finite state and the pendulum
// angle within threshold of zero, in the policy's angle unit.
type Stability struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewStability(threshold float64) *Stability {
	return &Stability{
		name:      "stability",
		threshold: threshold,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(t float64, d control.Decision) {
	s.samples++
	if !d.State.IsFinite() || math.Abs(d.State.PendulumAngle) > s.threshold {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
