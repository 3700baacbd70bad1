package metrics

import (
	"math"

	"github.com/san-kum/balancer/internal/control"
)

// Tracking is the RMS distance between the actuator and its target position.
type Tracking struct {
	name    string
	target  float64
	sumSq   float64
	samples int
}

func NewTracking(target float64) *Tracking {
	return &Tracking{
		name:   "tracking_rms",
		target: target,
	}
}

func (tr *Tracking) Name() string { return tr.name }

func (tr *Tracking) Observe(t float64, d control.Decision) {
	e := d.State.ActuatorPos - tr.target
	tr.sumSq += e * e
	tr.samples++
}

func (tr *Tracking) Value() float64 {
	if tr.samples == 0 {
		return 0
	}
	return math.Sqrt(tr.sumSq / float64(tr.samples))
}

func (tr *Tracking) Reset() {
	tr.sumSq = 0
	tr.samples = 0
}
