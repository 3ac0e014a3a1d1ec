package gosam

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pose2 is a planar pose (x, y, θ). The tangent space ordering is
// (dx, dy, dθ), and the manifold operations use the exact SE(2) exponential
// map with right composition.
type Pose2 struct {
	X, Y, Theta float64
}

// NewPose2 returns the pose at (x, y) with heading θ.
func NewPose2(x, y, θ float64) Pose2 {
	return Pose2{x, y, θ}
}

// ExpmapPose2 is the exponential map of SE(2).
func ExpmapPose2(ξ []float64) Pose2 {
	dx, dy, dθ := ξ[0], ξ[1], ξ[2]
	if math.Abs(dθ) < 1e-10 {
		return Pose2{dx, dy, dθ}
	}
	a := math.Sin(dθ) / dθ
	b := (1 - math.Cos(dθ)) / dθ
	return Pose2{a*dx - b*dy, b*dx + a*dy, dθ}
}

// LogmapPose2 is the inverse of ExpmapPose2.
func LogmapPose2(p Pose2) []float64 {
	θ := p.Theta
	if math.Abs(θ) < 1e-10 {
		return []float64{p.X, p.Y, θ}
	}
	a := math.Sin(θ) / θ
	b := (1 - math.Cos(θ)) / θ
	det := a*a + b*b // = 2(1-cos θ)/θ²
	return []float64{(a*p.X + b*p.Y) / det, (-b*p.X + a*p.Y) / det, θ}
}

// Compose returns this pose chained with other: p * q.
func (p Pose2) Compose(q Pose2) Pose2 {
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	return Pose2{
		p.X + c*q.X - s*q.Y,
		p.Y + s*q.X + c*q.Y,
		wrapAngle(p.Theta + q.Theta),
	}
}

// Inverse returns the pose such that p.Compose(p.Inverse()) is the origin.
func (p Pose2) Inverse() Pose2 {
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	return Pose2{-c*p.X - s*p.Y, s*p.X - c*p.Y, -p.Theta}
}

// Between returns the relative pose p⁻¹ * q.
func (p Pose2) Between(q Pose2) Pose2 {
	return p.Inverse().Compose(q)
}

// AdjointMap returns the 3x3 adjoint of the pose, mapping tangent vectors
// from the local frame to the frame of p.
func (p Pose2) AdjointMap() *mat.Dense {
	c, s := math.Cos(p.Theta), math.Sin(p.Theta)
	return mat.NewDense(3, 3, []float64{
		c, -s, p.Y,
		s, c, -p.X,
		0, 0, 1,
	})
}

// Dim implements the Value interface.
func (p Pose2) Dim() int { return 3 }

// Retract implements the Value interface.
func (p Pose2) Retract(δ []float64) Value {
	return p.Compose(ExpmapPose2(δ))
}

// LocalCoordinates implements the Value interface.
func (p Pose2) LocalCoordinates(other Value) []float64 {
	q := other.(Pose2)
	return LogmapPose2(p.Between(q))
}

// Equals returns whether both poses match within tol, with the heading
// compared modulo 2π.
func (p Pose2) Equals(other Value, tol float64) bool {
	q, ok := other.(Pose2)
	return ok && math.Abs(p.X-q.X) <= tol && math.Abs(p.Y-q.Y) <= tol &&
		math.Abs(wrapAngle(p.Theta-q.Theta)) <= tol
}

func (p Pose2) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Theta)
}

// wrapAngle maps an angle to (-π, π].
func wrapAngle(θ float64) float64 {
	for θ > math.Pi {
		θ -= 2 * math.Pi
	}
	for θ <= -math.Pi {
		θ += 2 * math.Pi
	}
	return θ
}
