// Package optim searches PID gains offline by running the simulated robot
// once per candidate.
package optim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/san-kum/linebot/internal/config"
	"github.com/san-kum/linebot/internal/control"
	"github.com/san-kum/linebot/internal/experiment"
	"github.com/san-kum/linebot/internal/loop"
)

const DefaultMetric = "tracking_error"

type Candidate struct {
	Gains   control.Gains
	Reason  loop.StopReason
	Cycles  int
	Score   float64
	Metrics map[string]float64
	Err     error
}

// Finished reports whether the candidate drove to the junction.
func (c Candidate) Finished() bool {
	return c.Err == nil && c.Reason == loop.Junction
}

type GridSearch struct {
	Kp []float64
	Ki []float64
	Kd []float64
	// Workers bounds concurrent runs; zero uses GOMAXPROCS.
	Workers int
	// Metric ranks finished candidates, lower is better.
	Metric string
}

func NewGridSearch(kp, ki, kd []float64) *GridSearch {
	return &GridSearch{Kp: kp, Ki: ki, Kd: kd, Metric: DefaultMetric}
}

// Grid expands the value lists in kp, ki, kd order. An empty list stands for
// the single value 0.
func (g *GridSearch) Grid() []control.Gains {
	axis := func(vs []float64) []float64 {
		if len(vs) == 0 {
			return []float64{0}
		}
		return vs
	}
	var out []control.Gains
	for _, kp := range axis(g.Kp) {
		for _, ki := range axis(g.Ki) {
			for _, kd := range axis(g.Kd) {
				out = append(out, control.Gains{Kp: kp, Ki: ki, Kd: kd})
			}
		}
	}
	return out
}

// Search runs base once per grid point and returns every candidate, best
// first. Finished candidates rank ahead of the rest; among them the lower
// score wins and ties go to fewer cycles. A candidate's own failure is kept
// in Candidate.Err; only cancellation aborts the search.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, reg *experiment.Registry) ([]Candidate, error) {
	metric := g.Metric
	if metric == "" {
		metric = DefaultMetric
	}
	if _, err := reg.GetMetric(metric); err != nil {
		return nil, err
	}
	if base.Sim.MaxCycles == 0 {
		return nil, fmt.Errorf("grid search needs a cycle limit")
	}

	grid := g.Grid()
	results := make([]Candidate, len(grid))

	workers := g.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, gains := range grid {
		wg.Add(1)
		go func(idx int, gains control.Gains) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = Candidate{Gains: gains, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()

			results[idx] = evaluate(ctx, base, reg, gains, metric)
		}(i, gains)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Finished() != b.Finished() {
			return a.Finished()
		}
		if a.Score != b.Score {
			return a.Score < b.Score
		}
		return a.Cycles < b.Cycles
	})
	return results, nil
}

func evaluate(ctx context.Context, base *config.Config, reg *experiment.Registry, gains control.Gains, metric string) Candidate {
	cand := Candidate{Gains: gains, Score: math.Inf(1)}

	cfg := *base
	cfg.Gains = gains
	cfg.Verbose = false
	cfg.Diagnostics.Port = ""

	exp, err := experiment.New(&cfg, reg, experiment.WithoutStartupDelay())
	if err != nil {
		cand.Err = err
		return cand
	}

	res, err := exp.Run(ctx)
	cand.Err = multierr.Append(err, exp.Close())
	if res != nil {
		cand.Reason = res.Reason
		cand.Cycles = res.Cycles
		cand.Metrics = res.Metrics
		if cand.Finished() {
			cand.Score = res.Metrics[metric]
		}
	}
	return cand
}
