package sensing

import (
	"testing"

	"github.com/san-kum/linebot/internal/robot"
	"github.com/stretchr/testify/assert"
)

func TestIsAtJunction(t *testing.T) {
	tests := []struct {
		name    string
		reading robot.SensorReading
		want    bool
	}{
		{"all at threshold", robot.SensorReading{700, 700, 700, 700, 700}, true},
		{"all saturated", robot.SensorReading{1000, 1000, 1000, 1000, 1000}, true},
		{"one below", robot.SensorReading{699, 1000, 1000, 1000, 1000}, false},
		{"last below", robot.SensorReading{1000, 1000, 1000, 1000, 0}, false},
		{"centred line", robot.SensorReading{0, 0, 1000, 0, 0}, false},
		{"blank", robot.SensorReading{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAtJunction(tt.reading))
		})
	}
}

func TestJunctionDetectorCustomThreshold(t *testing.T) {
	j := JunctionDetector{Threshold: 900}
	assert.False(t, j.IsAtJunction(robot.SensorReading{800, 900, 900, 900, 900}))
	assert.True(t, j.IsAtJunction(robot.SensorReading{900, 900, 900, 900, 900}))

	assert.ErrorIs(t, JunctionDetector{}.Validate(), robot.ErrInvalidConfig)
	assert.NoError(t, DefaultJunctionDetector().Validate())
}
