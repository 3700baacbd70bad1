package control

import (
	"fmt"
	"math"
)

// Limit saturates x to [-bound, bound]. NaN becomes 0 so the result is
// always finite for a finite bound.
func Limit(x, bound float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	if math.Abs(x) > bound {
		return math.Copysign(bound, x)
	}
	return x
}

// Limiter is a Limit with its bound checked once, at construction.
type Limiter struct {
	bound float64
}

func NewLimiter(bound float64) (*Limiter, error) {
	if !(bound > 0) || math.IsInf(bound, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidActuatorBound, bound)
	}
	return &Limiter{bound: bound}, nil
}

func (l *Limiter) Bound() float64 { return l.bound }

func (l *Limiter) Limit(x float64) float64 {
	return Limit(x, l.bound)
}

// Saturated reports whether Limit would change x.
func (l *Limiter) Saturated(x float64) bool {
	return math.IsNaN(x) || math.Abs(x) > l.bound
}
