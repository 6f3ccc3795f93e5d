package eyes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProject_OriginLooksForward(t *testing.T) {
	for _, m := range []struct{ alpha, beta float32 }{
		{1, 1}, {0, 0}, {0.5, 2}, {-1, 3}, {100, -100},
	} {
		got := Project(0, 0, m.alpha, m.beta)
		assert.Equal(t, GazeVector{X: 0, Y: 0, Z: 1}, got, "alpha=%v beta=%v", m.alpha, m.beta)
	}
}

func TestProject_ZeroMultiplierCollapsesAxis(t *testing.T) {
	for _, x := range []float32{-1, -0.3, 0.2, 0.99, 5} {
		got := Project(x, 0.4, 0, 1)
		assert.Zero(t, got.X, "x=%v", x)
		assert.NotZero(t, got.Y)
	}
	for _, y := range []float32{-1, 0.5} {
		got := Project(0.4, y, 1, 0)
		assert.Zero(t, got.Y, "y=%v", y)
	}
}

func TestProject_UnitLength(t *testing.T) {
	for _, in := range [][2]float32{{0.1, 0.2}, {-1, 1}, {0.7, -0.3}, {1, 1}} {
		got := Project(in[0], in[1], 1, 1)
		assert.InDelta(t, 1.0, Norm(got), 1e-6, "input %v", in)
	}
}

func TestProject_MatchesTangentMapping(t *testing.T) {
	x, y := float32(0.5), float32(-0.25)
	alpha, beta := float32(1.2), float32(0.8)

	tx := math.Tan(float64(alpha * x))
	ty := math.Tan(float64(beta * y))
	n := math.Sqrt(tx*tx + ty*ty + 1)

	got := Project(x, y, alpha, beta)
	assert.InDelta(t, tx/n, got.X, 1e-6)
	assert.InDelta(t, ty/n, got.Y, 1e-6)
	assert.InDelta(t, 1/n, got.Z, 1e-6)
	// sign follows the offset
	assert.Greater(t, got.X, float32(0))
	assert.Less(t, got.Y, float32(0))
}

func TestProject_SingularInputIsNotClamped(t *testing.T) {
	// alpha*x = pi/2 puts tan() on its asymptote; the result is degenerate
	// rather than an error.
	got := Project(1, 0, float32(math.Pi/2), 1)
	assert.Less(t, math.Abs(float64(got.Z)), 1e-6)

	nan := Project(float32(math.Inf(1)), 0, 1, 1)
	assert.True(t, math.IsNaN(float64(nan.X)))
}

func TestProject_InfiniteSampleIsNaN(t *testing.T) {
	tests := []struct {
		name        string
		x, y        float32
		alpha, beta float32
	}{
		{"+Inf x with alpha 0", float32(math.Inf(1)), 0, 0, 1},
		{"-Inf x with alpha 0", float32(math.Inf(-1)), 0, 0, 1},
		{"+Inf y with beta 0", 0, float32(math.Inf(1)), 1, 0},
		{"NaN x", float32(math.NaN()), 0, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Project(tt.x, tt.y, tt.alpha, tt.beta)
			assert.True(t, math.IsNaN(float64(got.X)), "X = %v", got.X)
			assert.True(t, math.IsNaN(float64(got.Y)), "Y = %v", got.Y)
			assert.True(t, math.IsNaN(float64(got.Z)), "Z = %v", got.Z)
		})
	}
}

func TestAverage(t *testing.T) {
	a := GazeVector{X: 1, Y: 0, Z: 0}
	b := GazeVector{X: 0, Y: 1, Z: 0}
	got := Average(a, b)
	assert.Equal(t, GazeVector{X: 0.5, Y: 0.5, Z: 0}, got)
	assert.InDelta(t, math.Sqrt(0.5), Norm(got), 1e-6, "average is not renormalized")
}
