package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/linebot/internal/loop"
	"github.com/san-kum/linebot/internal/metrics"
	"github.com/san-kum/linebot/internal/track"
)

type Registry struct {
	courses map[string]func() *track.Course
	metrics map[string]func() loop.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		courses: make(map[string]func() *track.Course),
		metrics: make(map[string]func() loop.Metric),
	}

	for _, name := range track.CourseNames() {
		r.courses[name] = func() *track.Course {
			c, _ := track.GetCourse(name)
			return c
		}
	}

	for i, m := range metrics.Default() {
		r.metrics[m.Name()] = func() loop.Metric { return metrics.Default()[i] }
	}

	return r
}

func (r *Registry) GetCourse(name string) (*track.Course, error) {
	fn, ok := r.courses[name]
	if !ok {
		return nil, fmt.Errorf("unknown course: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListCourses() []string {
	return sortedKeys(r.courses)
}

func (r *Registry) GetMetric(name string) (loop.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListMetrics() []string {
	return sortedKeys(r.metrics)
}

// DefaultMetrics returns a fresh instance of every registered metric.
func (r *Registry) DefaultMetrics() []loop.Metric {
	names := r.ListMetrics()
	out := make([]loop.Metric, 0, len(names))
	for _, name := range names {
		out = append(out, r.metrics[name]())
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
