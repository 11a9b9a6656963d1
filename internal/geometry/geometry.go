// Package geometry provides spatial primitives for the simulation world:
// poses, vector arithmetic, periodic bounds, and a uniform-grid index for
// nearest-neighbor queries.
package geometry

import "math"

// #region pose

// Pose holds an entity's position and orientation.
// Position dimension is 2 or 3; orientation is a quaternion [w, x, y, z].
type Pose struct {
	Position    []float32
	Orientation [4]float32
}

// NewPose creates a zero pose of the given dimension with identity orientation.
func NewPose(dim int) Pose {
	return Pose{
		Position:    make([]float32, dim),
		Orientation: [4]float32{1, 0, 0, 0},
	}
}

// DistanceTo returns the Euclidean distance to another pose.
func (p Pose) DistanceTo(other Pose) float32 {
	return Distance(p.Position, other.Position)
}

// #endregion pose

// #region vectors

// Distance returns the Euclidean distance between two points.
func Distance(a, b []float32) float32 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return float32(math.Sqrt(sum))
}

// Norm returns the Euclidean length of v.
func Norm(v []float32) float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return float32(math.Sqrt(sum))
}

// Scale multiplies v in place by s.
func Scale(v []float32, s float32) {
	for i := range v {
		v[i] *= s
	}
}

// Copy returns a fresh copy of v.
func Copy(v []float32) []float32 {
	out := make([]float32, len(v))
	copy(out, v)
	return out
}

// #endregion vectors

// #region bounds

// WrapPeriodic folds position back into [0, bound) per dimension.
// No-op when periodic is false.
func WrapPeriodic(position, bounds []float32, periodic bool) {
	if !periodic {
		return
	}
	for d := range position {
		b := bounds[d]
		if b <= 0 {
			continue
		}
		for position[d] < 0 {
			position[d] += b
		}
		for position[d] >= b {
			position[d] -= b
		}
	}
}

// #endregion bounds
