package control

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidObservationShape is matched by every *ShapeError.
	ErrInvalidObservationShape = errors.New("control: invalid observation shape")

	// ErrInvalidActuatorBound indicates a bound that is not finite and positive.
	ErrInvalidActuatorBound = errors.New("control: actuator bound must be finite and positive")

	// ErrInvalidDeadband indicates a negative or NaN position deadband.
	ErrInvalidDeadband = errors.New("control: deadband must be non-negative")

	// ErrUnknownPolicy indicates a policy name or kind outside the known set.
	ErrUnknownPolicy = errors.New("control: unknown policy")
)

// ShapeError reports a raw observation with the wrong number of components.
type ShapeError struct {
	Got int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("control: invalid observation shape: got %d values, want %d", e.Got, StateLen)
}

func (e *ShapeError) Is(target error) bool {
	return target == ErrInvalidObservationShape
}
