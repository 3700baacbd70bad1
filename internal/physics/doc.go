// Package physics provides the simulated plants the control loop is
// exercised against.
//
// Each plant implements [dynamo.System] with the state layout
// [x, ẋ, θ, ω]: actuator position and velocity, then pendulum angle
// (radians, 0 = upright, positive leaning toward +x) and angular velocity.
//
//   - [CartPole]: cart pushed by a horizontal force
//   - [Platform]: kinematic platform driven by velocity commands
//
// Both implement [dynamo.Configurable] so presets and tuning runs can set
// physical parameters by name.
package physics
