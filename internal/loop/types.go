package loop

import (
	"fmt"
	"time"

	"github.com/san-kum/linebot/internal/control"
	"github.com/san-kum/linebot/internal/robot"
	"github.com/san-kum/linebot/internal/sensing"
)

type Phase int

const (
	Calibrating Phase = iota
	Running
	Stopped
)

func (p Phase) String() string {
	switch p {
	case Calibrating:
		return "calibrating"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

type StopReason int

const (
	NotStopped StopReason = iota
	Junction
	Canceled
	CycleLimit
	Failed
)

func (r StopReason) String() string {
	switch r {
	case NotStopped:
		return "none"
	case Junction:
		return "junction"
	case Canceled:
		return "canceled"
	case CycleLimit:
		return "cycle limit"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("StopReason(%d)", int(r))
	}
}

// Params are the per-cycle constants of the control law.
type Params struct {
	Gains     control.Gains
	Limits    control.Limits
	Estimator sensing.Estimator
	Junction  sensing.JunctionDetector
}

func DefaultParams() Params {
	return Params{
		Gains:     control.Gains{Kp: 1, Ki: 0, Kd: 3},
		Limits:    control.Limits{Min: 0, Max: 0.3, Base: 0.3},
		Estimator: sensing.DefaultEstimator(),
		Junction:  sensing.DefaultJunctionDetector(),
	}
}

func (p Params) Validate() error {
	if err := p.Gains.Validate(); err != nil {
		return err
	}
	if err := p.Limits.Validate(); err != nil {
		return err
	}
	if err := p.Estimator.Validate(); err != nil {
		return err
	}
	return p.Junction.Validate()
}

type Config struct {
	Params
	// StartupDelay is a blocking wait before calibration.
	StartupDelay time.Duration
	// MaxCycles bounds a run; zero means unbounded.
	MaxCycles int
	// Record keeps every cycle in Result.Trace.
	Record bool
}

func DefaultConfig() Config {
	return Config{
		Params:       DefaultParams(),
		StartupDelay: time.Second,
	}
}

func (c Config) Validate() error {
	if err := c.Params.Validate(); err != nil {
		return err
	}
	if c.StartupDelay < 0 {
		return fmt.Errorf("%w: startup delay must be >= 0, got %v", robot.ErrInvalidConfig, c.StartupDelay)
	}
	if c.MaxCycles < 0 {
		return fmt.Errorf("%w: max cycles must be >= 0, got %d", robot.ErrInvalidConfig, c.MaxCycles)
	}
	return nil
}

// State is everything carried from one cycle to the next. It is owned by a
// single Driver and only touched from the goroutine running that driver; a
// future asynchronous sensor source must hand readings over instead of
// writing here. PID.PreviousPosition doubles as the estimator's previous
// position.
type State struct {
	PreviousReading robot.SensorReading
	PID             control.State
}

// Cycle records one loop iteration.
type Cycle struct {
	Index     int
	Reading   robot.SensorReading
	Junction  bool
	Position  float64
	Detected  bool
	Terms     control.Terms
	Command   robot.MotorCommand
	Saturated bool
}

type Metric interface {
	Name() string
	Observe(c Cycle)
	Value() float64
	Reset()
}

type Observer interface {
	OnCycle(c Cycle)
}

type Result struct {
	Cycles  int
	Reason  StopReason
	Trace   []Cycle
	Metrics map[string]float64
	Elapsed time.Duration
}
