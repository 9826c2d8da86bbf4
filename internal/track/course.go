package track

import (
	"fmt"
	"math"
	"sort"
)

type Point struct {
	X, Y float64
}

func (p Point) Add(q Point) Point          { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point          { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(f float64) Point      { return Point{p.X * f, p.Y * f} }
func (p Point) Dot(q Point) float64        { return p.X*q.X + p.Y*q.Y }
func (p Point) Norm() float64              { return math.Hypot(p.X, p.Y) }
func (p Point) DistanceTo(q Point) float64 { return p.Sub(q).Norm() }

// Course is a centre line with a junction bar placed across its end.
// Distances are in metres.
type Course struct {
	Name          string
	Points        []Point
	LineWidth     float64
	JunctionWidth float64
	JunctionDepth float64
}

const (
	defaultLineWidth     = 0.019
	defaultJunctionWidth = 0.2
	defaultJunctionDepth = 0.04
	startOffset          = 0.06
)

func newCourse(name string, pts []Point) *Course {
	return &Course{
		Name:          name,
		Points:        pts,
		LineWidth:     defaultLineWidth,
		JunctionWidth: defaultJunctionWidth,
		JunctionDepth: defaultJunctionDepth,
	}
}

func (c *Course) Validate() error {
	if len(c.Points) < 2 {
		return fmt.Errorf("course %q needs at least two points", c.Name)
	}
	if c.LineWidth <= 0 || c.JunctionWidth <= 0 || c.JunctionDepth <= 0 {
		return fmt.Errorf("course %q has non-positive dimensions", c.Name)
	}
	return nil
}

func (c *Course) Length() float64 {
	l := 0.0
	for i := 1; i < len(c.Points); i++ {
		l += c.Points[i].DistanceTo(c.Points[i-1])
	}
	return l
}

// Start returns the pose a little way along the first segment, facing along
// it.
func (c *Course) Start() Pose {
	a, b := c.Points[0], c.Points[1]
	dir := b.Sub(a).Scale(1 / b.DistanceTo(a))
	p := a.Add(dir.Scale(startOffset))
	return Pose{X: p.X, Y: p.Y, Heading: math.Atan2(dir.Y, dir.X)}
}

// DistanceToLine is the distance from p to the nearest point of the centre
// line.
func (c *Course) DistanceToLine(p Point) float64 {
	best := math.Inf(1)
	for i := 1; i < len(c.Points); i++ {
		if d := segmentDistance(p, c.Points[i-1], c.Points[i]); d < best {
			best = d
		}
	}
	return best
}

// InJunction reports whether p lies on the junction bar beyond the last
// point.
func (c *Course) InJunction(p Point) bool {
	n := len(c.Points)
	end, prev := c.Points[n-1], c.Points[n-2]
	dir := end.Sub(prev).Scale(1 / end.DistanceTo(prev))
	rel := p.Sub(end)

	along := rel.Dot(dir)
	across := rel.Dot(Point{-dir.Y, dir.X})
	return along >= 0 && along <= c.JunctionDepth && math.Abs(across) <= c.JunctionWidth/2
}

func segmentDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return p.DistanceTo(a)
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return p.DistanceTo(a.Add(ab.Scale(t)))
}

// Straight is a 1.2 m straight line.
func Straight() *Course {
	return newCourse("straight", []Point{{0, 0}, {0, 1.2}})
}

// Curve runs straight, bends right through a quarter circle of 0.5 m
// radius and runs straight again.
func Curve() *Course {
	pts := []Point{{0, 0}, {0, 0.4}}
	const (
		radius = 0.5
		steps  = 24
	)
	center := Point{radius, 0.4}
	for i := 1; i <= steps; i++ {
		a := math.Pi - float64(i)*(math.Pi/2)/steps
		pts = append(pts, Point{center.X + radius*math.Cos(a), center.Y + radius*math.Sin(a)})
	}
	last := pts[len(pts)-1]
	pts = append(pts, Point{last.X + 0.4, last.Y})
	return newCourse("curve", pts)
}

// Zigzag alternates shallow left and right bends.
func Zigzag() *Course {
	return newCourse("zigzag", []Point{
		{0, 0}, {0, 0.3}, {0.08, 0.6}, {0, 0.9}, {-0.08, 1.2}, {0, 1.5}, {0, 1.7},
	})
}

var courses = map[string]func() *Course{
	"straight": Straight,
	"curve":    Curve,
	"zigzag":   Zigzag,
}

func GetCourse(name string) (*Course, error) {
	fn, ok := courses[name]
	if !ok {
		return nil, fmt.Errorf("unknown course: %s (available: %v)", name, CourseNames())
	}
	return fn(), nil
}

func CourseNames() []string {
	names := make([]string, 0, len(courses))
	for name := range courses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
