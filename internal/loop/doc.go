// Package loop drives a [control.Controller] against a physics engine, one
// tick at a time.
//
// The driver owns no control logic. Each tick it keeps the engine's bodies
// awake, reads the raw state, asks the controller for a decision and writes
// the command back. A reading that fails normalization skips the tick: no
// command is written and the engine keeps whatever it was last given.
//
//	drv := loop.New(ctrl, world, logger)
//	drv.AddMetric(metrics.NewControlEffort())
//	err := world.Run(ctx, ticks, drv.OnTick)
//	res := drv.Result()
package loop
