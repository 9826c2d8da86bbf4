package experiment

import (
	"context"
	"io"

	"go.uber.org/multierr"

	"github.com/san-kum/linebot/internal/config"
	"github.com/san-kum/linebot/internal/diag"
	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/track"
)

// Experiment is one simulated robot on one course, driven by a loop.Driver.
type Experiment struct {
	cfg    *config.Config
	course *track.Course
	sim    *track.Sim
	sink   *diag.Sink
	driver *loop.Driver
}

// Option adjusts the loop configuration or the driver options before the
// driver is built.
type Option func(*setup)

type setup struct {
	diagOut  io.Writer
	record   bool
	noDelay  bool
	loopOpts []loop.Option
}

// WithDiagnosticsWriter sends diagnostics to w instead of the configured port.
func WithDiagnosticsWriter(w io.Writer) Option {
	return func(s *setup) { s.diagOut = w }
}

// WithTrace records every cycle in the result.
func WithTrace() Option {
	return func(s *setup) { s.record = true }
}

// WithoutStartupDelay skips the power-on wait.
func WithoutStartupDelay() Option {
	return func(s *setup) { s.noDelay = true }
}

func WithObservers(o ...loop.Observer) Option {
	return func(s *setup) { s.loopOpts = append(s.loopOpts, loop.WithObservers(o...)) }
}

// New validates cfg and builds the simulated robot, the diagnostics sink and
// the driver. Nothing is opened when cfg is invalid.
func New(cfg *config.Config, reg *Registry, opts ...Option) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var st setup
	for _, opt := range opts {
		opt(&st)
	}

	course, err := reg.GetCourse(cfg.Sim.Course)
	if err != nil {
		return nil, err
	}
	sim, err := track.NewSim(course, cfg.TrackOptions())
	if err != nil {
		return nil, err
	}

	sinkOpts := diag.Options{Verbose: cfg.Verbose, Buffer: cfg.Diagnostics.Buffer}
	var sink *diag.Sink
	switch {
	case st.diagOut != nil:
		sink = diag.New(st.diagOut, sinkOpts)
	case cfg.Diagnostics.Port != "":
		sink, err = diag.OpenSerial(cfg.Diagnostics.Port, cfg.Diagnostics.Serial, sinkOpts)
		if err != nil {
			return nil, err
		}
	default:
		sink = diag.New(io.Discard, sinkOpts)
	}

	lc := cfg.LoopConfig()
	lc.Record = st.record
	if st.noDelay {
		lc.StartupDelay = 0
	}

	loopOpts := append([]loop.Option{
		loop.WithDiagnostics(sink),
		loop.WithMetrics(reg.DefaultMetrics()...),
	}, st.loopOpts...)

	driver, err := loop.New(lc, sim, sim, loopOpts...)
	if err != nil {
		return nil, multierr.Append(err, sink.Close())
	}

	return &Experiment{
		cfg:    cfg,
		course: course,
		sim:    sim,
		sink:   sink,
		driver: driver,
	}, nil
}

func (e *Experiment) Run(ctx context.Context) (*loop.Result, error) {
	return e.driver.Run(ctx)
}

func (e *Experiment) Driver() *loop.Driver  { return e.driver }
func (e *Experiment) Sim() *track.Sim       { return e.sim }
func (e *Experiment) Course() *track.Course { return e.course }

func (e *Experiment) DiagnosticsStats() diag.Stats { return e.sink.Stats() }

// Close stops the motors and flushes diagnostics.
func (e *Experiment) Close() error {
	return multierr.Combine(e.sim.Halt(), e.sink.Close())
}
