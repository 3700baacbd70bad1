// Package control turns one raw plant reading into one actuator command.
//
// A tick flows strictly downward through three pure stages:
//
//   - [Normalizer]: raw reading → [StateVector], applying the calibration offset
//   - [Policy]: [StateVector] → raw command (closed set selected by [Kind])
//   - [Limiter]: raw command → bounded, finite command
//
// [Controller] binds the three together and is the only entry point a host
// needs:
//
//	ctrl, err := control.NewController(control.KindThreshold, cfg, control.CalibrationFor(control.Upright, control.Degrees))
//	if err != nil {
//	    return err // bad bound or policy, fail before the first tick
//	}
//	cmd, err := ctrl.Command([]float64{pos, vel, angle, omega})
//
// No stage keeps memory between calls, so a Controller may be called any
// number of times and in any order.
package control
