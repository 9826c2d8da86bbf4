package sensing

import (
	"fmt"

	"github.com/san-kum/linebot/internal/robot"
)

const DefaultJunctionThreshold = 700

// JunctionDetector reports a solid dark marker under the whole array.
type JunctionDetector struct {
	Threshold int
}

func DefaultJunctionDetector() JunctionDetector {
	return JunctionDetector{Threshold: DefaultJunctionThreshold}
}

func (j JunctionDetector) Validate() error {
	if j.Threshold <= 0 {
		return fmt.Errorf("%w: junction threshold must be positive, got %d", robot.ErrInvalidConfig, j.Threshold)
	}
	return nil
}

// IsAtJunction is true iff no sensor reads below the threshold.
func (j JunctionDetector) IsAtJunction(r robot.SensorReading) bool {
	for _, v := range r {
		if v < j.Threshold {
			return false
		}
	}
	return true
}

// IsAtJunction uses DefaultJunctionDetector.
func IsAtJunction(r robot.SensorReading) bool {
	return DefaultJunctionDetector().IsAtJunction(r)
}
