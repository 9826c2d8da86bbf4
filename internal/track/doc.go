// Package track simulates a differential-drive robot with a five-sensor
// reflectance array driving over a printed course.
//
// A [Course] is a dark centre line drawn as a polyline, ending in a
// full-width junction bar. [Sim] implements both robot.SensorArray and
// robot.MotorDriver, so the control loop runs against it unchanged:
//
//	sim := track.NewSim(track.Straight(), track.DefaultOptions())
//	d, _ := loop.New(cfg, sim, sim)
//	res, _ := d.Run(ctx)
//
// Each Read advances the physics by one timestep using the most recently
// applied wheel powers, then samples the sensors. Raw sensor values are
// mapped to [0, 1000] with the per-sensor range found by Calibrate.
package track
