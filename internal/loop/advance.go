package loop

import (
	"github.com/san-kum/linebot/internal/control"
	"github.com/san-kum/linebot/internal/robot"
)

// Advance runs the control law for one reading: junction check, position
// estimate, PID step and motor mapping. State is updated only when the
// reading is not a junction; a junction cycle carries no motor command.
func Advance(state *State, reading robot.SensorReading, p Params) Cycle {
	c := Cycle{Reading: reading}

	if p.Junction.IsAtJunction(reading) {
		c.Junction = true
		return c
	}

	c.Position, c.Detected = p.Estimator.Estimate(reading, state.PreviousReading, state.PID.PreviousPosition)
	c.Terms = control.StepTerms(c.Position, p.Gains, &state.PID)
	c.Command, c.Saturated = p.Limits.Map(c.Terms.Output)

	state.PreviousReading = reading
	return c
}
