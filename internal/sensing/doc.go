// Package sensing turns a thresholded reflectance reading into a normalized
// line position and detects the full-width junction marker that ends a run.
//
// Positions are in [-1, 1]: -1 under the leftmost sensor, 0 centred, 1 under
// the rightmost sensor.
package sensing
