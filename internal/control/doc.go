// Package control provides the feedback law of the line follower and the
// mapping of its output onto two bounded wheel powers.
//
//   - [Step]: one PID iteration over a normalized line position
//   - [MapToMotors]: differential steering around a base speed
//   - [Clamp]: range saturation shared by both
//
// # Usage
//
//	var st control.State
//	cv := control.Step(position, control.Gains{Kp: 1, Kd: 3}, &st)
//	cmd := control.MapToMotors(cv, 0.3, 0.0, 0.3)
//
// The integral term accumulates without decay or clamping. Gains are fixed
// for the lifetime of a run.
package control
