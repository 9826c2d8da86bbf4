// Package loop drives the line follower: one sensor reading in, one pair of
// motor powers out, once per cycle.
//
// A [Driver] moves through three phases:
//
//	Calibrating -> Running -> Stopped
//
// Calibration runs once after the startup delay. Running repeats
// read -> junction check -> estimate -> PID -> motor mapping until the
// junction marker is seen, the context is canceled between cycles, or the
// optional cycle limit is reached. Collaborator failures stop the driver and
// are returned as [robot.CycleError]; there are no retries.
//
// [Advance] is the pure part of a cycle and can be exercised without any
// collaborator.
//
// # Thread Safety
//
// A Driver and its [State] belong to one goroutine.
package loop
