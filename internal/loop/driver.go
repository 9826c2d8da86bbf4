package loop

import (
	"context"
	"time"

	"github.com/san-kum/linebot/internal/robot"
)

type Driver struct {
	cfg       Config
	sensors   robot.SensorArray
	motors    robot.MotorDriver
	diag      robot.Diagnostics
	metrics   []Metric
	observers []Observer

	phase  Phase
	reason StopReason
	cycles int
	state  State
}

type Option func(*Driver)

func WithDiagnostics(d robot.Diagnostics) Option {
	return func(dr *Driver) {
		if d != nil {
			dr.diag = d
		}
	}
}

func WithMetrics(m ...Metric) Option {
	return func(d *Driver) { d.metrics = append(d.metrics, m...) }
}

func WithObservers(o ...Observer) Option {
	return func(d *Driver) { d.observers = append(d.observers, o...) }
}

// New validates cfg and returns a driver in the Calibrating phase.
func New(cfg Config, sensors robot.SensorArray, motors robot.MotorDriver, opts ...Option) (*Driver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Driver{
		cfg:     cfg,
		sensors: sensors,
		motors:  motors,
		diag:    robot.NopDiagnostics{},
		phase:   Calibrating,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Driver) Phase() Phase           { return d.phase }
func (d *Driver) StopReason() StopReason { return d.reason }
func (d *Driver) Cycles() int            { return d.cycles }

// State returns a copy of the carried loop state.
func (d *Driver) State() State { return d.state }

// Start waits out the startup delay, calibrates the sensor array once and
// moves the driver to Running.
func (d *Driver) Start(ctx context.Context) error {
	if d.phase != Calibrating {
		return nil
	}

	if d.cfg.StartupDelay > 0 {
		timer := time.NewTimer(d.cfg.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			d.stop(Canceled)
			return ctx.Err()
		case <-timer.C:
		}
	}

	d.diag.Record("START", "Calibration of sensor array")
	if err := d.sensors.Calibrate(ctx); err != nil {
		return d.fail("calibrate sensors", err)
	}
	d.diag.Record("END", "Calibration of sensor array")

	for _, m := range d.metrics {
		m.Reset()
	}
	d.phase = Running
	return nil
}

// Step runs one Running cycle. When the reading is a junction the driver
// stops without commanding the motors.
func (d *Driver) Step(ctx context.Context) (Cycle, error) {
	if d.phase != Running {
		return Cycle{}, nil
	}

	reading, err := d.sensors.Read(ctx)
	if err != nil {
		return Cycle{}, d.fail("read sensors", err)
	}
	d.diag.Record("Data", "%s", reading)

	c := Advance(&d.state, reading, d.cfg.Params)
	c.Index = d.cycles

	if c.Junction {
		d.diag.Record("INTERRUPT", "Reached T junction")
		d.stop(Junction)
		return c, nil
	}

	if !c.Detected {
		d.diag.Record("INTERRUPT", "No line detected")
	}
	d.diag.Record("NEW", "Line position = %.2f", c.Position)
	d.diag.Record("PID", "Control var = %.4f", c.Terms.Output)

	if err := d.motors.SetPower(robot.Left, c.Command.Left); err != nil {
		return c, d.fail("set left motor", err)
	}
	if err := d.motors.SetPower(robot.Right, c.Command.Right); err != nil {
		return c, d.fail("set right motor", err)
	}
	d.diag.Record("MOTOR L", "Motor power = %.2f", c.Command.Left)
	d.diag.Record("MOTOR R", "Motor power = %.2f", c.Command.Right)

	d.cycles++
	for _, m := range d.metrics {
		m.Observe(c)
	}
	for _, o := range d.observers {
		o.OnCycle(c)
	}

	if d.cfg.MaxCycles > 0 && d.cycles >= d.cfg.MaxCycles {
		d.stop(CycleLimit)
	}
	return c, nil
}

// Run starts the driver and steps it until it stops. Cancellation is
// checked between cycles; a canceled run returns its partial result along
// with ctx.Err().
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	result := &Result{Metrics: make(map[string]float64)}
	if d.cfg.Record {
		result.Trace = make([]Cycle, 0, 256)
	}

	finish := func() *Result {
		result.Cycles = d.cycles
		result.Reason = d.reason
		result.Elapsed = time.Since(start)
		for _, m := range d.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
		return result
	}

	if err := d.Start(ctx); err != nil {
		return finish(), err
	}

	for d.phase == Running {
		select {
		case <-ctx.Done():
			d.stop(Canceled)
			return finish(), ctx.Err()
		default:
		}

		c, err := d.Step(ctx)
		if err != nil {
			return finish(), err
		}
		if d.cfg.Record && !c.Junction {
			result.Trace = append(result.Trace, c)
		}
	}

	return finish(), nil
}

func (d *Driver) stop(reason StopReason) {
	d.phase = Stopped
	d.reason = reason
}

func (d *Driver) fail(op string, err error) error {
	phase := d.phase
	d.stop(Failed)
	return &robot.CycleError{Cycle: d.cycles, Phase: phase.String(), Op: op, Wrapped: err}
}
