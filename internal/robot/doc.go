// Package robot defines the domain types shared by the line-following
// controller and the contracts of its hardware collaborators.
//
// The control core never touches hardware directly. It is handed:
//
//   - [SensorArray]: calibrates once and produces one [SensorReading] per cycle
//   - [MotorDriver]: accepts one power value per [Channel] per cycle
//   - [Diagnostics]: optional sink for formatted debug records
//
// Real boards, the simulator in package track and test doubles all satisfy
// the same interfaces.
//
// # Thread Safety
//
// Collaborators are driven by a single control loop and need not be safe for
// concurrent use. [Diagnostics] implementations must never block the caller.
package robot
