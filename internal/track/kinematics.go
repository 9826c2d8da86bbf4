package track

import "math"

// Pose is the robot centre and heading (radians, counter-clockwise from +X).
type Pose struct {
	X, Y    float64
	Heading float64
}

func (p Pose) Point() Point { return Point{p.X, p.Y} }

// Forward and Right are unit vectors in the robot frame.
func (p Pose) Forward() Point { return Point{math.Cos(p.Heading), math.Sin(p.Heading)} }
func (p Pose) Right() Point   { return Point{math.Sin(p.Heading), -math.Cos(p.Heading)} }

// Body is a differential-drive chassis. MaxWheelSpeed is the wheel surface
// speed in m/s at power 1.0.
type Body struct {
	WheelBase     float64
	MaxWheelSpeed float64
}

func (b Body) derive(x [3]float64, left, right float64) [3]float64 {
	vl := left * b.MaxWheelSpeed
	vr := right * b.MaxWheelSpeed
	v := (vl + vr) / 2
	omega := (vr - vl) / b.WheelBase
	return [3]float64{v * math.Cos(x[2]), v * math.Sin(x[2]), omega}
}

// Step integrates the pose over dt with fixed wheel powers using RK4.
func (b Body) Step(p Pose, left, right, dt float64) Pose {
	x := [3]float64{p.X, p.Y, p.Heading}

	k1 := b.derive(x, left, right)
	var scratch [3]float64
	for i := range x {
		scratch[i] = x[i] + dt*0.5*k1[i]
	}
	k2 := b.derive(scratch, left, right)
	for i := range x {
		scratch[i] = x[i] + dt*0.5*k2[i]
	}
	k3 := b.derive(scratch, left, right)
	for i := range x {
		scratch[i] = x[i] + dt*k3[i]
	}
	k4 := b.derive(scratch, left, right)

	dt6 := dt / 6.0
	for i := range x {
		x[i] += dt6 * (k1[i] + 2*k2[i] + 2*k3[i] + k4[i])
	}
	return Pose{X: x[0], Y: x[1], Heading: x[2]}
}
