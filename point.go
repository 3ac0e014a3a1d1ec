package gosam

import (
	"fmt"
	"math"
)

// Point2 is a 2D point. As a manifold value it is plain Euclidean: retraction
// is vector addition.
type Point2 struct {
	X, Y float64
}

// Dim implements the Value interface.
func (p Point2) Dim() int { return 2 }

// Retract implements the Value interface.
func (p Point2) Retract(δ []float64) Value {
	return Point2{p.X + δ[0], p.Y + δ[1]}
}

// LocalCoordinates implements the Value interface.
func (p Point2) LocalCoordinates(other Value) []float64 {
	q := other.(Point2)
	return []float64{q.X - p.X, q.Y - p.Y}
}

// Equals returns whether both points match within tol.
func (p Point2) Equals(other Value, tol float64) bool {
	q, ok := other.(Point2)
	return ok && math.Abs(p.X-q.X) <= tol && math.Abs(p.Y-q.Y) <= tol
}

// Vector returns the point coordinates as a slice.
func (p Point2) Vector() []float64 { return []float64{p.X, p.Y} }

func (p Point2) String() string { return fmt.Sprintf("(%g, %g)", p.X, p.Y) }

// Point3 is a 3D point (or free vector). As a manifold value it is plain
// Euclidean: retraction is vector addition.
type Point3 struct {
	X, Y, Z float64
}

// Dim implements the Value interface.
func (p Point3) Dim() int { return 3 }

// Retract implements the Value interface.
func (p Point3) Retract(δ []float64) Value {
	return Point3{p.X + δ[0], p.Y + δ[1], p.Z + δ[2]}
}

// LocalCoordinates implements the Value interface.
func (p Point3) LocalCoordinates(other Value) []float64 {
	q := other.(Point3)
	return []float64{q.X - p.X, q.Y - p.Y, q.Z - p.Z}
}

// Equals returns whether both points match within tol.
func (p Point3) Equals(other Value, tol float64) bool {
	q, ok := other.(Point3)
	return ok && math.Abs(p.X-q.X) <= tol && math.Abs(p.Y-q.Y) <= tol && math.Abs(p.Z-q.Z) <= tol
}

// Vector returns the point coordinates as a slice.
func (p Point3) Vector() []float64 { return []float64{p.X, p.Y, p.Z} }

// Add returns p + q.
func (p Point3) Add(q Point3) Point3 { return Point3{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }

// Sub returns p - q.
func (p Point3) Sub(q Point3) Point3 { return Point3{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }

// Scale returns s * p.
func (p Point3) Scale(s float64) Point3 { return Point3{s * p.X, s * p.Y, s * p.Z} }

// Dot returns the dot product of p and q.
func (p Point3) Dot(q Point3) float64 { return p.X*q.X + p.Y*q.Y + p.Z*q.Z }

// Cross returns the cross product of p and q.
func (p Point3) Cross(q Point3) Point3 {
	return Point3{
		p.Y*q.Z - p.Z*q.Y,
		p.Z*q.X - p.X*q.Z,
		p.X*q.Y - p.Y*q.X,
	}
}

// Norm returns the Euclidean norm of p.
func (p Point3) Norm() float64 { return math.Sqrt(p.Dot(p)) }

// Normalize returns p scaled to unit norm. Panics on the zero vector.
func (p Point3) Normalize() Point3 {
	n := p.Norm()
	if n == 0 {
		panic("cannot normalize zero vector")
	}
	return p.Scale(1 / n)
}

func (p Point3) String() string { return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z) }
