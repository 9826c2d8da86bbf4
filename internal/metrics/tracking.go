package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/linebot/internal/loop"
)

// positions keeps the per-cycle line positions shared by the tracking
// metrics.
type positions struct {
	xs []float64
}

func (p *positions) observe(c loop.Cycle) { p.xs = append(p.xs, c.Position) }
func (p *positions) reset()               { p.xs = p.xs[:0] }

// TrackingError is the mean absolute line position.
type TrackingError struct {
	positions
}

func NewTrackingError() *TrackingError { return &TrackingError{} }

func (t *TrackingError) Name() string         { return "tracking_error" }
func (t *TrackingError) Observe(c loop.Cycle) { t.observe(c) }
func (t *TrackingError) Reset()               { t.reset() }

func (t *TrackingError) Value() float64 {
	if len(t.xs) == 0 {
		return 0
	}
	abs := make([]float64, len(t.xs))
	for i, x := range t.xs {
		abs[i] = math.Abs(x)
	}
	return stat.Mean(abs, nil)
}

// PositionSpread is the sample standard deviation of the line position.
type PositionSpread struct {
	positions
}

func NewPositionSpread() *PositionSpread { return &PositionSpread{} }

func (p *PositionSpread) Name() string         { return "position_stddev" }
func (p *PositionSpread) Observe(c loop.Cycle) { p.observe(c) }
func (p *PositionSpread) Reset()               { p.reset() }

func (p *PositionSpread) Value() float64 {
	if len(p.xs) < 2 {
		return 0
	}
	return stat.StdDev(p.xs, nil)
}
