package track

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/multierr"

	"github.com/san-kum/linebot/internal/robot"
)

const (
	calibratedMax  = 1000
	lineEdge       = 0.004
	floorRaw       = 200.0
	lineRaw        = 2000.0
	calibrateSteps = 96
	calibrateSweep = 0.9
)

type Options struct {
	// Dt is the physics time advanced by every Read, in seconds.
	Dt float64
	// Noise is the amplitude of uniform raw sensor noise.
	Noise float64
	// Variation spreads per-sensor floor and line levels by this fraction.
	Variation     float64
	Seed          int64
	WheelBase     float64
	MaxWheelSpeed float64
	SensorSpacing float64
	SensorMount   float64
}

func DefaultOptions() Options {
	return Options{
		Dt:            0.01,
		Noise:         20,
		Variation:     0.1,
		Seed:          1,
		WheelBase:     0.09,
		MaxWheelSpeed: 1.0,
		SensorSpacing: 0.012,
		SensorMount:   0.04,
	}
}

func (o Options) Validate() error {
	if o.Dt <= 0 {
		return fmt.Errorf("%w: sim dt must be positive, got %v", robot.ErrInvalidConfig, o.Dt)
	}
	if o.Noise < 0 || o.Variation < 0 || o.Variation >= 1 {
		return fmt.Errorf("%w: sim noise %v / variation %v out of range", robot.ErrInvalidConfig, o.Noise, o.Variation)
	}
	if o.WheelBase <= 0 || o.MaxWheelSpeed <= 0 || o.SensorSpacing <= 0 || o.SensorMount <= 0 {
		return fmt.Errorf("%w: sim geometry must be positive", robot.ErrInvalidConfig)
	}
	return nil
}

// Sim is a simulated robot on a course. It is not safe for concurrent use.
type Sim struct {
	course *Course
	body   Body
	opts   Options
	rng    *rand.Rand

	pose   Pose
	power  [2]float64
	t      float64
	floor  [robot.NumSensors]float64
	line   [robot.NumSensors]float64
	calMin [robot.NumSensors]float64
	calMax [robot.NumSensors]float64

	calibrated bool
}

func NewSim(course *Course, opts Options) (*Sim, error) {
	if err := course.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	s := &Sim{
		course: course,
		body:   Body{WheelBase: opts.WheelBase, MaxWheelSpeed: opts.MaxWheelSpeed},
		opts:   opts,
		rng:    rand.New(rand.NewSource(opts.Seed)),
		pose:   course.Start(),
	}
	for i := range s.floor {
		s.floor[i] = floorRaw * (1 + opts.Variation*(2*s.rng.Float64()-1))
		s.line[i] = lineRaw * (1 + opts.Variation*(2*s.rng.Float64()-1))
	}
	return s, nil
}

func (s *Sim) Course() *Course { return s.course }
func (s *Sim) Pose() Pose      { return s.pose }
func (s *Sim) Time() float64   { return s.t }

// SetPose moves the robot without advancing time.
func (s *Sim) SetPose(p Pose) { s.pose = p }

func (s *Sim) Power(ch robot.Channel) float64 { return s.power[ch] }

// Calibrate sweeps the robot in place across the line, recording the raw
// range of every sensor, then restores the starting pose.
func (s *Sim) Calibrate(ctx context.Context) error {
	home := s.pose
	defer func() { s.pose = home }()

	for i := range s.calMin {
		s.calMin[i] = math.Inf(1)
		s.calMax[i] = math.Inf(-1)
	}

	for k := 0; k < calibrateSteps; k++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		offset := -calibrateSweep + 2*calibrateSweep*float64(k)/float64(calibrateSteps-1)
		s.pose = Pose{X: home.X, Y: home.Y, Heading: home.Heading + offset}
		raw := s.raw()
		for i, v := range raw {
			s.calMin[i] = math.Min(s.calMin[i], v)
			s.calMax[i] = math.Max(s.calMax[i], v)
		}
	}

	for i := range s.calMin {
		if s.calMax[i]-s.calMin[i] <= 0 {
			return fmt.Errorf("sensor %d saw no contrast during calibration", i)
		}
	}
	s.calibrated = true
	return nil
}

// Read advances the robot by one timestep and samples the array.
func (s *Sim) Read(ctx context.Context) (robot.SensorReading, error) {
	var r robot.SensorReading
	if err := ctx.Err(); err != nil {
		return r, err
	}
	if !s.calibrated {
		return r, robot.ErrNotCalibrated
	}

	s.pose = s.body.Step(s.pose, s.power[robot.Left], s.power[robot.Right], s.opts.Dt)
	s.t += s.opts.Dt

	for i, v := range s.raw() {
		scaled := (v - s.calMin[i]) * calibratedMax / (s.calMax[i] - s.calMin[i])
		r[i] = int(math.Round(math.Max(0, math.Min(calibratedMax, scaled))))
	}
	return r, nil
}

func (s *Sim) SetPower(ch robot.Channel, power float64) error {
	if ch != robot.Left && ch != robot.Right {
		return fmt.Errorf("%w: %v", robot.ErrInvalidChannel, ch)
	}
	s.power[ch] = power
	return nil
}

// Halt zeroes both wheels.
func (s *Sim) Halt() error {
	return multierr.Combine(
		s.SetPower(robot.Left, 0),
		s.SetPower(robot.Right, 0),
	)
}

// SensorPoints returns the world position of every sensor.
func (s *Sim) SensorPoints() [robot.NumSensors]Point {
	var pts [robot.NumSensors]Point
	fwd, right := s.pose.Forward(), s.pose.Right()
	base := s.pose.Point().Add(fwd.Scale(s.opts.SensorMount))
	for i := range pts {
		lateral := float64(i-robot.NumSensors/2) * s.opts.SensorSpacing
		pts[i] = base.Add(right.Scale(lateral))
	}
	return pts
}

// LateralOffset is the distance from the array centre to the line.
func (s *Sim) LateralOffset() float64 {
	pts := s.SensorPoints()
	return s.course.DistanceToLine(pts[robot.NumSensors/2])
}

func (s *Sim) raw() [robot.NumSensors]float64 {
	var raw [robot.NumSensors]float64
	for i, p := range s.SensorPoints() {
		k := s.reflectance(p)
		v := s.floor[i] + (s.line[i]-s.floor[i])*k
		if s.opts.Noise > 0 {
			v += s.opts.Noise * (2*s.rng.Float64() - 1)
		}
		raw[i] = math.Max(0, v)
	}
	return raw
}

// reflectance is 1 over the line or the junction bar and decays to 0 over
// the bare floor.
func (s *Sim) reflectance(p Point) float64 {
	if s.course.InJunction(p) {
		return 1
	}
	d := s.course.DistanceToLine(p) - s.course.LineWidth/2
	if d <= 0 {
		return 1
	}
	return math.Exp(-(d / lineEdge) * (d / lineEdge))
}
