package control

// Clamp limits v to [min, max]. Callers guarantee min <= max.
func Clamp(v, min, max float64) float64 {
	if v > max {
		return max
	}
	if v < min {
		return min
	}
	return v
}
