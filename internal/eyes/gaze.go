package eyes

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/banshee-data/gaze.bridge/internal/input"
)

// GazeVector is a unit-length gaze direction in the host's eye space
// (+Z forward, +X right, +Y up).
type GazeVector = input.Float3

// Project maps a normalized pupil offset to a unit gaze direction by
// normalizing (tan(alpha*x), tan(beta*y), 1).
//
// The tangent turns offsets into angular deflection, so the gaze cone widens
// towards the edges. Inputs are expected in roughly [-1, 1] with multipliers
// near 1. Nothing is clamped: a scaled offset at or beyond pi/2 yields a
// degenerate or non-finite vector. A zero multiplier collapses its axis only
// for finite offsets; an infinite sample makes every component NaN, since
// 0*Inf is NaN and normalization spreads it.
func Project(x, y, alpha, beta float32) GazeVector {
	v := r3.Vec{
		X: math.Tan(float64(alpha * x)),
		Y: math.Tan(float64(beta * y)),
		Z: 1,
	}
	u := r3.Unit(v)
	return GazeVector{X: float32(u.X), Y: float32(u.Y), Z: float32(u.Z)}
}

// Average is the elementwise mean of a and b. The result is not
// renormalized.
func Average(a, b GazeVector) GazeVector {
	return GazeVector{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
}

// Norm returns the Euclidean length of v.
func Norm(v GazeVector) float64 {
	return r3.Norm(r3.Vec{X: float64(v.X), Y: float64(v.Y), Z: float64(v.Z)})
}
