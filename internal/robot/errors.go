package robot

import (
	"errors"
	"fmt"
)

// Domain errors for controller setup and collaborator failures.
var (
	// ErrInvalidConfig indicates startup constants that cannot drive the robot.
	ErrInvalidConfig = errors.New("robot: invalid configuration")

	// ErrNotCalibrated indicates a sensor read before calibration finished.
	ErrNotCalibrated = errors.New("robot: sensors not calibrated")

	// ErrInvalidChannel indicates a motor channel other than Left or Right.
	ErrInvalidChannel = errors.New("robot: invalid motor channel")
)

// CycleError wraps a collaborator failure with control loop context.
type CycleError struct {
	Cycle   int
	Phase   string
	Op      string
	Wrapped error
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: cycle %d: %s: %v", e.Phase, e.Cycle, e.Op, e.Wrapped)
}

func (e *CycleError) Unwrap() error {
	return e.Wrapped
}
