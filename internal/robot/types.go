package robot

import (
	"context"
	"fmt"
)

// NumSensors is the width of the reflectance array.
const NumSensors = 5

// SensorReading holds calibrated reflectance values, leftmost sensor first.
type SensorReading [NumSensors]int

func (r SensorReading) String() string {
	return fmt.Sprintf("%d %d %d %d %d", r[0], r[1], r[2], r[3], r[4])
}

type Channel int

const (
	Left Channel = iota
	Right
)

func (c Channel) String() string {
	switch c {
	case Left:
		return "L"
	case Right:
		return "R"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

// MotorCommand is the pair of wheel powers derived in one cycle.
type MotorCommand struct {
	Left  float64
	Right float64
}

// Power returns the command value for a channel.
func (m MotorCommand) Power(ch Channel) float64 {
	if ch == Right {
		return m.Right
	}
	return m.Left
}

type SensorArray interface {
	// Calibrate runs once at startup and blocks until finished.
	Calibrate(ctx context.Context) error
	// Read blocks until a fresh calibrated reading is available.
	Read(ctx context.Context) (SensorReading, error)
}

type MotorDriver interface {
	SetPower(ch Channel, power float64) error
}

// Diagnostics receives formatted debug records tagged like "PID" or
// "MOTOR L". Implementations must return immediately and swallow their own
// delivery failures.
type Diagnostics interface {
	Record(tag, format string, args ...any)
}

// NopDiagnostics discards every record.
type NopDiagnostics struct{}

func (NopDiagnostics) Record(string, string, ...any) {}
