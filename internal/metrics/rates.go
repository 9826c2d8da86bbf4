package metrics

import "github.com/san-kum/linebot/internal/loop"

// Rate is the fraction of cycles matching a predicate.
type Rate struct {
	name    string
	match   func(loop.Cycle) bool
	hits    int
	samples int
}

// NewSaturation counts cycles where either wheel power was clamped.
func NewSaturation() *Rate {
	return &Rate{name: "saturation", match: func(c loop.Cycle) bool { return c.Saturated }}
}

// NewFallbackRate counts cycles where no line was detected.
func NewFallbackRate() *Rate {
	return &Rate{name: "fallback_rate", match: func(c loop.Cycle) bool { return !c.Detected }}
}

func (r *Rate) Name() string { return r.name }

func (r *Rate) Observe(c loop.Cycle) {
	r.samples++
	if r.match(c) {
		r.hits++
	}
}

func (r *Rate) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return float64(r.hits) / float64(r.samples)
}

func (r *Rate) Reset() {
	r.hits = 0
	r.samples = 0
}

// Default is the metric set recorded for every run.
func Default() []loop.Metric {
	return []loop.Metric{
		NewTrackingError(),
		NewPositionSpread(),
		NewControlEffort(),
		NewSaturation(),
		NewFallbackRate(),
	}
}
