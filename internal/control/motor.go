package control

import (
	"fmt"
	"math"

	"github.com/san-kum/linebot/internal/robot"
)

// MapToMotors converts a control variable into clamped wheel powers. A
// positive control variable speeds up the left wheel and slows the right.
func MapToMotors(controlVariable, baseSpeed, min, max float64) robot.MotorCommand {
	return robot.MotorCommand{
		Left:  Clamp(baseSpeed+controlVariable, min, max),
		Right: Clamp(baseSpeed-controlVariable, min, max),
	}
}

// Limits bounds the wheel powers around a base speed.
type Limits struct {
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
	Base float64 `yaml:"base_speed" json:"base_speed"`
}

func (l Limits) Validate() error {
	if math.IsNaN(l.Min) || math.IsNaN(l.Max) || math.IsNaN(l.Base) {
		return fmt.Errorf("%w: motor limits must be numbers", robot.ErrInvalidConfig)
	}
	if l.Min < 0 {
		return fmt.Errorf("%w: motor min must be >= 0, got %v", robot.ErrInvalidConfig, l.Min)
	}
	if l.Min > l.Max {
		return fmt.Errorf("%w: motor min %v exceeds max %v", robot.ErrInvalidConfig, l.Min, l.Max)
	}
	if l.Base < l.Min || l.Base > l.Max {
		return fmt.Errorf("%w: base speed %v outside [%v, %v]", robot.ErrInvalidConfig, l.Base, l.Min, l.Max)
	}
	return nil
}

// Map applies MapToMotors with these limits and reports whether either wheel
// was clamped.
func (l Limits) Map(controlVariable float64) (cmd robot.MotorCommand, saturated bool) {
	cmd = MapToMotors(controlVariable, l.Base, l.Min, l.Max)
	saturated = cmd.Left != l.Base+controlVariable || cmd.Right != l.Base-controlVariable
	return cmd, saturated
}
