package sensing

import (
	"fmt"

	"github.com/san-kum/linebot/internal/robot"
)

const (
	DefaultNoiseThreshold = 100
	DefaultLineThreshold  = 300
	DefaultRangeMin       = 0
	DefaultRangeMax       = 4000
)

// Estimator computes the weighted centroid of the sensor array. Values at or
// below NoiseThreshold are ignored; a line counts as detected once any value
// exceeds LineThreshold.
type Estimator struct {
	NoiseThreshold int
	LineThreshold  int
	RangeMin       float64
	RangeMax       float64
}

func DefaultEstimator() Estimator {
	return Estimator{
		NoiseThreshold: DefaultNoiseThreshold,
		LineThreshold:  DefaultLineThreshold,
		RangeMin:       DefaultRangeMin,
		RangeMax:       DefaultRangeMax,
	}
}

func (e Estimator) Validate() error {
	if e.NoiseThreshold < 0 {
		return fmt.Errorf("%w: noise threshold must be >= 0, got %d", robot.ErrInvalidConfig, e.NoiseThreshold)
	}
	if e.LineThreshold < e.NoiseThreshold {
		return fmt.Errorf("%w: line threshold %d below noise threshold %d", robot.ErrInvalidConfig, e.LineThreshold, e.NoiseThreshold)
	}
	if e.RangeMax <= e.RangeMin || e.RangeMin+e.RangeMax == 0 {
		return fmt.Errorf("%w: sensor range [%v, %v] is empty", robot.ErrInvalidConfig, e.RangeMin, e.RangeMax)
	}
	return nil
}

// FallbackThreshold is the previous-position boundary used when no line is
// detected: rangeCenter / (rangeMin + rangeMax). It is 0.5 for the default
// range.
func (e Estimator) FallbackThreshold() float64 {
	center := (e.RangeMax + e.RangeMin) / 2
	return center / (e.RangeMin + e.RangeMax)
}

// Estimate returns the line position for the current reading and whether a
// line was detected. Without a line it returns 1 when previousPosition is
// below FallbackThreshold and 0 otherwise; these are the only two values the
// fallback produces.
//
// The previous reading is part of the estimator contract but does not
// influence the result.
func (e Estimator) Estimate(current, previous robot.SensorReading, previousPosition float64) (float64, bool) {
	detected := false
	weighted := 0.0
	sum := 0.0

	for i, v := range current {
		if v <= e.NoiseThreshold {
			continue
		}
		if v > e.LineThreshold {
			detected = true
		}
		weighted += float64(v) * 1000 * float64(i)
		sum += float64(v)
	}

	if !detected {
		if previousPosition < e.FallbackThreshold() {
			return 1, false
		}
		return 0, false
	}

	// sum > 0 here: detection implies a contributing value above LineThreshold.
	linePosition := weighted / sum
	return (linePosition/e.RangeMax)*2 - 1, true
}

// Estimate uses DefaultEstimator.
func Estimate(current, previous robot.SensorReading, previousPosition float64) (float64, bool) {
	return DefaultEstimator().Estimate(current, previous, previousPosition)
}
