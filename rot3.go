package gosam

import (
	"fmt"
	"math"
)

// Rot3 is a rotation in 3D space, stored as a row-major 3x3 rotation matrix.
// The manifold operations use the exponential map of SO(3), so the tangent
// space is the 3-vector of rotation rates ω.
type Rot3 struct {
	m [9]float64
}

// NewRot3 builds a rotation from row-major matrix entries. The entries are
// trusted to form a valid rotation matrix.
func NewRot3(r11, r12, r13, r21, r22, r23, r31, r32, r33 float64) Rot3 {
	return Rot3{[9]float64{r11, r12, r13, r21, r22, r23, r31, r32, r33}}
}

// IdentityRot3 returns the identity rotation.
func IdentityRot3() Rot3 {
	return NewRot3(1, 0, 0, 0, 1, 0, 0, 0, 1)
}

// NewRot3FromColumns builds a rotation whose columns are the provided unit
// vectors.
func NewRot3FromColumns(c1, c2, c3 Point3) Rot3 {
	return NewRot3(c1.X, c2.X, c3.X, c1.Y, c2.Y, c3.Y, c1.Z, c2.Z, c3.Z)
}

// At returns the matrix entry at row i, column j.
func (R Rot3) At(i, j int) float64 { return R.m[3*i+j] }

// Rotate applies the rotation to a point: R * p.
func (R Rot3) Rotate(p Point3) Point3 {
	return Point3{
		R.m[0]*p.X + R.m[1]*p.Y + R.m[2]*p.Z,
		R.m[3]*p.X + R.m[4]*p.Y + R.m[5]*p.Z,
		R.m[6]*p.X + R.m[7]*p.Y + R.m[8]*p.Z,
	}
}

// Unrotate applies the inverse rotation to a point: R' * p.
func (R Rot3) Unrotate(p Point3) Point3 {
	return Point3{
		R.m[0]*p.X + R.m[3]*p.Y + R.m[6]*p.Z,
		R.m[1]*p.X + R.m[4]*p.Y + R.m[7]*p.Z,
		R.m[2]*p.X + R.m[5]*p.Y + R.m[8]*p.Z,
	}
}

// Compose returns R * S.
func (R Rot3) Compose(S Rot3) Rot3 {
	var out [9]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[3*i+j] = R.m[3*i]*S.m[j] + R.m[3*i+1]*S.m[3+j] + R.m[3*i+2]*S.m[6+j]
		}
	}
	return Rot3{out}
}

// Inverse returns the transposed (inverse) rotation.
func (R Rot3) Inverse() Rot3 {
	return NewRot3(
		R.m[0], R.m[3], R.m[6],
		R.m[1], R.m[4], R.m[7],
		R.m[2], R.m[5], R.m[8])
}

// ExpmapRot3 is the exponential map of SO(3): the rotation by angle ‖ω‖ about
// axis ω, computed with the Rodrigues formula.
func ExpmapRot3(ω []float64) Rot3 {
	wx, wy, wz := ω[0], ω[1], ω[2]
	θ2 := wx*wx + wy*wy + wz*wz
	θ := math.Sqrt(θ2)
	var a, b float64
	if θ < 1e-10 {
		// Taylor expansions of sin(θ)/θ and (1-cos(θ))/θ².
		a = 1 - θ2/6
		b = 0.5 - θ2/24
	} else {
		a = math.Sin(θ) / θ
		b = (1 - math.Cos(θ)) / θ2
	}
	// R = I + a [ω]x + b [ω]x².
	return NewRot3(
		1-b*(wy*wy+wz*wz), -a*wz+b*wx*wy, a*wy+b*wx*wz,
		a*wz+b*wx*wy, 1-b*(wx*wx+wz*wz), -a*wx+b*wy*wz,
		-a*wy+b*wx*wz, a*wx+b*wy*wz, 1-b*(wx*wx+wy*wy))
}

// LogmapRot3 is the inverse of ExpmapRot3: the rotation rate vector whose
// exponential is R.
func LogmapRot3(R Rot3) []float64 {
	tr := R.m[0] + R.m[4] + R.m[8]
	// Antisymmetric part holds sin(θ) times the axis.
	vx := R.m[7] - R.m[5]
	vy := R.m[2] - R.m[6]
	vz := R.m[3] - R.m[1]
	c := (tr - 1) / 2
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	θ := math.Acos(c)
	s := math.Sin(θ)
	if s > 1e-10 {
		f := θ / (2 * s)
		return []float64{f * vx, f * vy, f * vz}
	}
	if c > 0 {
		// θ near zero: log(R) ≈ antisymmetric part / 2.
		return []float64{vx / 2, vy / 2, vz / 2}
	}
	// θ near π: recover the axis from the diagonal.
	ax := math.Sqrt(math.Max(0, (R.m[0]+1)/2))
	ay := math.Sqrt(math.Max(0, (R.m[4]+1)/2))
	az := math.Sqrt(math.Max(0, (R.m[8]+1)/2))
	if R.m[1] < 0 {
		ay = -ay
	}
	if R.m[2] < 0 {
		az = -az
	}
	return []float64{θ * ax, θ * ay, θ * az}
}

// Dim implements the Value interface.
func (R Rot3) Dim() int { return 3 }

// Retract implements the Value interface by right composition with the
// exponential map.
func (R Rot3) Retract(δ []float64) Value {
	return R.Compose(ExpmapRot3(δ))
}

// LocalCoordinates implements the Value interface.
func (R Rot3) LocalCoordinates(other Value) []float64 {
	S := other.(Rot3)
	return LogmapRot3(R.Inverse().Compose(S))
}

// Equals returns whether both rotations match entrywise within tol.
func (R Rot3) Equals(other Value, tol float64) bool {
	S, ok := other.(Rot3)
	if !ok {
		return false
	}
	for i := range R.m {
		if math.Abs(R.m[i]-S.m[i]) > tol {
			return false
		}
	}
	return true
}

func (R Rot3) String() string {
	return fmt.Sprintf("[%g %g %g; %g %g %g; %g %g %g]",
		R.m[0], R.m[1], R.m[2], R.m[3], R.m[4], R.m[5], R.m[6], R.m[7], R.m[8])
}
