package control

import (
	"fmt"
	"math"

	"github.com/san-kum/linebot/internal/robot"
)

type Gains struct {
	Kp float64 `yaml:"kp" json:"kp"`
	Ki float64 `yaml:"ki" json:"ki"`
	Kd float64 `yaml:"kd" json:"kd"`
}

func (g Gains) Validate() error {
	for name, v := range map[string]float64{"kp": g.Kp, "ki": g.Ki, "kd": g.Kd} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: gain %s must be finite, got %v", robot.ErrInvalidConfig, name, v)
		}
	}
	return nil
}

// State is the carried PID memory. It starts zeroed and is mutated exactly
// once per cycle by Step; it has a single writer.
type State struct {
	Integral         float64
	PreviousPosition float64
}

// Terms is the breakdown of one PID iteration.
type Terms struct {
	Proportional float64
	Integral     float64
	Derivative   float64
	Output       float64
}

// Step runs one PID iteration and returns the unclamped control variable.
func Step(position float64, gains Gains, state *State) float64 {
	return StepTerms(position, gains, state).Output
}

// StepTerms is Step reporting every term.
func StepTerms(position float64, gains Gains, state *State) Terms {
	proportional := position
	derivative := position - state.PreviousPosition
	state.Integral += proportional
	state.PreviousPosition = position

	return Terms{
		Proportional: proportional,
		Integral:     state.Integral,
		Derivative:   derivative,
		Output:       proportional*gains.Kp + state.Integral*gains.Ki + derivative*gains.Kd,
	}
}
