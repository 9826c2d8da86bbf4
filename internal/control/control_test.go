package control

import (
	"errors"
	"math"
	"testing"

	"github.com/san-kum/linebot/internal/robot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name      string
		v, lo, hi float64
		want      float64
	}{
		{"inside", 0.2, 0, 0.3, 0.2},
		{"above", 1.3, 0, 0.3, 0.3},
		{"below", -0.7, 0, 0.3, 0},
		{"at min", 0, 0, 0.3, 0},
		{"at max", 0.3, 0, 0.3, 0.3},
		{"degenerate range", 5, 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.v, tt.lo, tt.hi))
		})
	}
}

func TestClampIdempotent(t *testing.T) {
	bounds := [][2]float64{{0, 0.3}, {-1, 1}, {2, 2}, {-5, -3}}
	for _, b := range bounds {
		for x := -10.0; x <= 10.0; x += 0.25 {
			once := Clamp(x, b[0], b[1])
			assert.Equal(t, once, Clamp(once, b[0], b[1]), "x=%v bounds=%v", x, b)
		}
	}
}

func TestStepAccumulatesIntegral(t *testing.T) {
	gains := Gains{Kp: 1, Ki: 0.5, Kd: 3.5}
	var st State

	first := Step(0.4, gains, &st)
	second := Step(0.4, gains, &st)

	// first: p=0.4, i=0.4, d=0.4 -> 0.4 + 0.2 + 1.4
	assert.InDelta(t, 2.0, first, 1e-12)
	// second: p=0.4, i=0.8, d=0 -> 0.4 + 0.4
	assert.InDelta(t, 0.8, second, 1e-12)
	assert.NotEqual(t, first, second)
	assert.InDelta(t, 0.8, st.Integral, 1e-12)
	assert.Equal(t, 0.4, st.PreviousPosition)
}

func TestStepIntegralIsUnbounded(t *testing.T) {
	var st State
	for i := 0; i < 10000; i++ {
		Step(1.0, Gains{Ki: 1}, &st)
	}
	assert.Equal(t, 10000.0, st.Integral)
}

func TestStepTerms(t *testing.T) {
	st := State{Integral: 1.0, PreviousPosition: -0.5}
	terms := StepTerms(0.5, Gains{Kp: 2, Ki: 0.1, Kd: 1}, &st)

	assert.Equal(t, 0.5, terms.Proportional)
	assert.Equal(t, 1.5, terms.Integral)
	assert.Equal(t, 1.0, terms.Derivative)
	assert.InDelta(t, 1.0+0.15+1.0, terms.Output, 1e-12)
}

func TestStepOutputIsUnclamped(t *testing.T) {
	var st State
	cv := Step(1.0, Gains{Kp: 100}, &st)
	assert.Equal(t, 100.0, cv)
}

func TestGainsValidate(t *testing.T) {
	require.NoError(t, Gains{Kp: 1, Ki: 0.5, Kd: 3.5}.Validate())

	err := Gains{Kp: math.NaN()}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, robot.ErrInvalidConfig))

	assert.Error(t, Gains{Kd: math.Inf(1)}.Validate())
}

func TestMapToMotors(t *testing.T) {
	cmd := MapToMotors(1.0, 0.3, 0.0, 0.3)
	assert.Equal(t, robot.MotorCommand{Left: 0.3, Right: 0.0}, cmd)

	cmd = MapToMotors(-0.1, 0.2, 0.0, 0.3)
	assert.InDelta(t, 0.1, cmd.Left, 1e-12)
	assert.InDelta(t, 0.3, cmd.Right, 1e-12)

	cmd = MapToMotors(0, 0.3, 0, 0.3)
	assert.Equal(t, robot.MotorCommand{Left: 0.3, Right: 0.3}, cmd)
}

func TestLimitsValidate(t *testing.T) {
	tests := []struct {
		name    string
		limits  Limits
		wantErr bool
	}{
		{"m3pi defaults", Limits{Min: 0, Max: 0.3, Base: 0.3}, false},
		{"base in middle", Limits{Min: 0.1, Max: 0.5, Base: 0.3}, false},
		{"min above max", Limits{Min: 0.5, Max: 0.3, Base: 0.4}, true},
		{"negative min", Limits{Min: -0.1, Max: 0.3, Base: 0.2}, true},
		{"base above max", Limits{Min: 0, Max: 0.3, Base: 0.4}, true},
		{"base below min", Limits{Min: 0.1, Max: 0.3, Base: 0}, true},
		{"nan", Limits{Min: 0, Max: math.NaN(), Base: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.limits.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, robot.ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestLimitsMapReportsSaturation(t *testing.T) {
	l := Limits{Min: 0, Max: 0.3, Base: 0.15}

	cmd, saturated := l.Map(0.05)
	assert.False(t, saturated)
	assert.InDelta(t, 0.2, cmd.Left, 1e-12)
	assert.InDelta(t, 0.1, cmd.Right, 1e-12)

	cmd, saturated = l.Map(0.5)
	assert.True(t, saturated)
	assert.Equal(t, robot.MotorCommand{Left: 0.3, Right: 0}, cmd)
}
