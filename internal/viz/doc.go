// Package viz is the terminal live view of a running balancer.
//
// [Model] is a Bubble Tea program that steps an experiment in real time and
// draws the actuator and pendulum on a Braille [Canvas], with the pendulum
// angle history and loop counters beside it.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Rebuild the experiment from its config
//	Tab   - Cycle plant parameters
//	↑/↓   - Scale the selected parameter by ±5%
//	←/→   - Push the pendulum
//	T     - Cycle color themes
//	?     - Show help overlay
package viz
