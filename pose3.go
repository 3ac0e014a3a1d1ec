package gosam

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pose3 is a rigid transform in 3D space: a rotation and a translation. The
// tangent space ordering is (ωx, ωy, ωz, vx, vy, vz), rotation first, and the
// manifold operations use the full SE(3) exponential map with right
// composition.
type Pose3 struct {
	R Rot3
	T Point3
}

// NewPose3 returns the pose with the given rotation and translation.
func NewPose3(R Rot3, t Point3) Pose3 {
	return Pose3{R, t}
}

// IdentityPose3 returns the identity transform.
func IdentityPose3() Pose3 {
	return Pose3{IdentityRot3(), Point3{}}
}

// so3V returns the SO(3) left Jacobian V(ω) such that the translation part of
// Expmap(ω, v) is V(ω) v.
func so3V(ω []float64) Rot3 {
	wx, wy, wz := ω[0], ω[1], ω[2]
	θ2 := wx*wx + wy*wy + wz*wz
	θ := math.Sqrt(θ2)
	var b, c float64
	if θ < 1e-10 {
		b = 0.5 - θ2/24
		c = 1.0/6 - θ2/120
	} else {
		b = (1 - math.Cos(θ)) / θ2
		c = (θ - math.Sin(θ)) / (θ2 * θ)
	}
	// V = I + b [ω]x + c [ω]x².
	return NewRot3(
		1-c*(wy*wy+wz*wz), -b*wz+c*wx*wy, b*wy+c*wx*wz,
		b*wz+c*wx*wy, 1-c*(wx*wx+wz*wz), -b*wx+c*wy*wz,
		-b*wy+c*wx*wz, b*wx+c*wy*wz, 1-c*(wx*wx+wy*wy))
}

// so3Vinv returns the inverse of so3V.
func so3Vinv(ω []float64) Rot3 {
	wx, wy, wz := ω[0], ω[1], ω[2]
	θ2 := wx*wx + wy*wy + wz*wz
	θ := math.Sqrt(θ2)
	var c float64
	if θ < 1e-10 {
		c = 1.0 / 12
	} else {
		c = (1 - θ*math.Sin(θ)/(2*(1-math.Cos(θ)))) / θ2
	}
	// V⁻¹ = I - ½ [ω]x + c [ω]x².
	return NewRot3(
		1-c*(wy*wy+wz*wz), wz/2+c*wx*wy, -wy/2+c*wx*wz,
		-wz/2+c*wx*wy, 1-c*(wx*wx+wz*wz), wx/2+c*wy*wz,
		wy/2+c*wx*wz, -wx/2+c*wy*wz, 1-c*(wx*wx+wy*wy))
}

// ExpmapPose3 is the exponential map of SE(3), ξ = (ω, v).
func ExpmapPose3(ξ []float64) Pose3 {
	ω := ξ[:3]
	v := Point3{ξ[3], ξ[4], ξ[5]}
	return Pose3{ExpmapRot3(ω), so3V(ω).Rotate(v)}
}

// LogmapPose3 is the inverse of ExpmapPose3.
func LogmapPose3(p Pose3) []float64 {
	ω := LogmapRot3(p.R)
	v := so3Vinv(ω).Rotate(p.T)
	return []float64{ω[0], ω[1], ω[2], v.X, v.Y, v.Z}
}

// Compose returns this pose chained with other: p * q.
func (p Pose3) Compose(q Pose3) Pose3 {
	return Pose3{p.R.Compose(q.R), p.R.Rotate(q.T).Add(p.T)}
}

// Inverse returns the pose such that p.Compose(p.Inverse()) is the identity.
func (p Pose3) Inverse() Pose3 {
	Rinv := p.R.Inverse()
	return Pose3{Rinv, Rinv.Rotate(p.T).Scale(-1)}
}

// Between returns the relative transform p⁻¹ * q.
func (p Pose3) Between(q Pose3) Pose3 {
	return p.Inverse().Compose(q)
}

// AdjointMap returns the 6x6 adjoint of the pose, mapping tangent vectors
// from the local frame to the frame of p.
func (p Pose3) AdjointMap() *mat.Dense {
	A := mat.NewDense(6, 6, nil)
	tx, ty, tz := p.T.X, p.T.Y, p.T.Z
	// [t]x R in the lower-left block.
	for j := 0; j < 3; j++ {
		r1, r2, r3 := p.R.At(0, j), p.R.At(1, j), p.R.At(2, j)
		for i := 0; i < 3; i++ {
			A.Set(i, j, p.R.At(i, j))
			A.Set(3+i, 3+j, p.R.At(i, j))
		}
		A.Set(3, j, -tz*r2+ty*r3)
		A.Set(4, j, tz*r1-tx*r3)
		A.Set(5, j, -ty*r1+tx*r2)
	}
	return A
}

// TransformTo transforms a world point into the local frame of the pose:
// R' * (p - t). When non-nil, Dpose receives the 3x6 Jacobian with respect to
// the pose and Dpoint the 3x3 Jacobian with respect to the point.
func (p Pose3) TransformTo(pt Point3, Dpose, Dpoint *mat.Dense) Point3 {
	q := p.R.Unrotate(pt.Sub(p.T))
	if Dpose != nil {
		Dpose.SetRow(0, []float64{0, -q.Z, q.Y, -1, 0, 0})
		Dpose.SetRow(1, []float64{q.Z, 0, -q.X, 0, -1, 0})
		Dpose.SetRow(2, []float64{-q.Y, q.X, 0, 0, 0, -1})
	}
	if Dpoint != nil {
		Rt := p.R.Inverse()
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				Dpoint.Set(i, j, Rt.At(i, j))
			}
		}
	}
	return q
}

// TransformFrom transforms a local point into the world frame: R * p + t.
func (p Pose3) TransformFrom(pt Point3) Point3 {
	return p.R.Rotate(pt).Add(p.T)
}

// RangeJacobians bundles the optional derivatives of a range computation.
// Leave the bundle nil to skip derivative computation entirely.
type RangeJacobians struct {
	Pose   *mat.Dense // 1x6, with respect to the observing pose
	Target *mat.Dense // 1x3 for a point target, 1x6 for a pose target
}

// Range returns the Euclidean distance from the pose origin to a point, with
// optional Jacobians.
func (p Pose3) Range(pt Point3, jac *RangeJacobians) float64 {
	d := pt.Sub(p.T)
	r := d.Norm()
	if jac == nil {
		return r
	}
	n := d.Scale(1 / r)
	local := p.R.Unrotate(n)
	if jac.Pose != nil {
		jac.Pose.SetRow(0, []float64{0, 0, 0, -local.X, -local.Y, -local.Z})
	}
	if jac.Target != nil {
		jac.Target.SetRow(0, []float64{n.X, n.Y, n.Z})
	}
	return r
}

// RangeToPose returns the Euclidean distance between the origins of two
// poses, with optional Jacobians.
func (p Pose3) RangeToPose(q Pose3, jac *RangeJacobians) float64 {
	d := q.T.Sub(p.T)
	r := d.Norm()
	if jac == nil {
		return r
	}
	n := d.Scale(1 / r)
	if jac.Pose != nil {
		local := p.R.Unrotate(n)
		jac.Pose.SetRow(0, []float64{0, 0, 0, -local.X, -local.Y, -local.Z})
	}
	if jac.Target != nil {
		local := q.R.Unrotate(n)
		jac.Target.SetRow(0, []float64{0, 0, 0, local.X, local.Y, local.Z})
	}
	return r
}

// Dim implements the Value interface.
func (p Pose3) Dim() int { return 6 }

// Retract implements the Value interface.
func (p Pose3) Retract(δ []float64) Value {
	return p.Compose(ExpmapPose3(δ))
}

// LocalCoordinates implements the Value interface.
func (p Pose3) LocalCoordinates(other Value) []float64 {
	q := other.(Pose3)
	return LogmapPose3(p.Between(q))
}

// Equals returns whether both poses match within tol.
func (p Pose3) Equals(other Value, tol float64) bool {
	q, ok := other.(Pose3)
	return ok && p.R.Equals(q.R, tol) && p.T.Equals(q.T, tol)
}

func (p Pose3) String() string {
	return fmt.Sprintf("R: %s, t: %s", p.R, p.T)
}
