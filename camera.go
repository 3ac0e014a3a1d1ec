package gosam

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Camera convention: in the camera frame the optical axis is +Z, X points
// right and Y points down. A point is visible only if its camera-frame depth
// is strictly positive (cheirality).

// LevelPose builds a level camera pose from a 2D ground pose and a height:
// the optical axis is horizontal and points along the 2D heading
// (θ = 0 looks along positive X).
func LevelPose(pose2 Pose2, height float64) Pose3 {
	st, ct := math.Sincos(pose2.Theta)
	x := Point3{st, -ct, 0}
	y := Point3{0, 0, -1}
	z := Point3{ct, st, 0}
	return NewPose3(NewRot3FromColumns(x, y, z), Point3{pose2.X, pose2.Y, height})
}

// LookatPose builds a camera pose at eye looking at target with the given up
// direction. The up vector need not lie on the image plane nor be orthogonal
// to the viewing axis.
func LookatPose(eye, target, up Point3) Pose3 {
	zc := target.Sub(eye).Normalize()
	xc := up.Scale(-1).Cross(zc).Normalize()
	yc := zc.Cross(xc)
	return NewPose3(NewRot3FromColumns(xc, yc, zc), eye)
}

// ProjectionJacobians bundles the optional derivatives of a projection. Leave
// the bundle nil to skip derivative computation entirely; individual entries
// may also be nil.
type ProjectionJacobians struct {
	Pose        *mat.Dense // 2x6, with respect to the camera pose
	Point       *mat.Dense // 2x3, with respect to the 3D point
	Calibration *mat.Dense // 2x4, with respect to the intrinsics (pinhole only)
}

// NewProjectionJacobians allocates a full bundle for a camera of the given
// calibration arity. Pass wantCal false for calibrated cameras.
func NewProjectionJacobians(wantCal bool) *ProjectionJacobians {
	jac := &ProjectionJacobians{
		Pose:  mat.NewDense(2, 6, nil),
		Point: mat.NewDense(2, 3, nil),
	}
	if wantCal {
		jac.Calibration = mat.NewDense(2, 4, nil)
	}
	return jac
}

// Camera is the capability shared by all camera variants.
type Camera interface {
	Pose() Pose3
	Project(p Point3, jac *ProjectionJacobians) (Point2, error)
	Backproject(p Point2, depth float64) Point3
	Range(p Point3, jac *RangeJacobians) float64
}

// ProjectToCamera projects a point already expressed in camera coordinates to
// normalized image coordinates. Dpoint, when non-nil, receives the 2x3
// Jacobian with respect to the camera-frame point.
func ProjectToCamera(q Point3, Dpoint *mat.Dense) (Point2, error) {
	if q.Z <= 0 {
		return Point2{}, CheiralityError{q.Z}
	}
	d := 1 / q.Z
	u, v := q.X*d, q.Y*d
	if Dpoint != nil {
		Dpoint.SetRow(0, []float64{d, 0, -u * d})
		Dpoint.SetRow(1, []float64{0, d, -v * d})
	}
	return Point2{u, v}, nil
}

// BackprojectFromCamera is the exact algebraic inverse of ProjectToCamera
// given the depth along the optical axis.
func BackprojectFromCamera(p Point2, depth float64) Point3 {
	return Point3{p.X * depth, p.Y * depth, depth}
}

// calculateDpose fills the 2x6 pose Jacobian of a normalized projection from
// the projection (u, v) and the inverse depth d. Closed form, evaluated in
// optimization inner loops.
func calculateDpose(pn Point2, d float64, Dpose *mat.Dense) {
	u, v := pn.X, pn.Y
	uv, uu, vv := u*v, u*u, v*v
	Dpose.SetRow(0, []float64{uv, -1 - uu, v, -d, 0, d * u})
	Dpose.SetRow(1, []float64{1 + vv, -uv, -u, 0, -d, d * v})
}

// calculateDpoint fills the 2x3 point Jacobian of a normalized projection
// from the projection (u, v), the inverse depth d and the camera rotation R.
func calculateDpoint(pn Point2, d float64, R Rot3, Dpoint *mat.Dense) {
	u, v := pn.X, pn.Y
	Dpoint.SetRow(0, []float64{
		d * (R.At(0, 0) - u*R.At(0, 2)),
		d * (R.At(1, 0) - u*R.At(1, 2)),
		d * (R.At(2, 0) - u*R.At(2, 2)),
	})
	Dpoint.SetRow(1, []float64{
		d * (R.At(0, 1) - v*R.At(0, 2)),
		d * (R.At(1, 1) - v*R.At(1, 2)),
		d * (R.At(2, 1) - v*R.At(2, 2)),
	})
}

// CalibratedCamera is a camera with known, fixed calibration: only the pose
// is unknown, and measurements are expressed in normalized image coordinates.
type CalibratedCamera struct {
	pose Pose3
}

// NewCalibratedCamera creates a camera at the given pose.
func NewCalibratedCamera(pose Pose3) CalibratedCamera {
	return CalibratedCamera{pose}
}

// LevelCamera creates a level calibrated camera from a ground pose and
// height.
func LevelCamera(pose2 Pose2, height float64) CalibratedCamera {
	return CalibratedCamera{LevelPose(pose2, height)}
}

// LookatCamera creates a calibrated camera at eye looking at target.
func LookatCamera(eye, target, up Point3) CalibratedCamera {
	return CalibratedCamera{LookatPose(eye, target, up)}
}

// Pose implements the Camera interface.
func (c CalibratedCamera) Pose() Pose3 { return c.pose }

// Project implements the Camera interface: the point is transformed to
// camera coordinates and projected by perspective division. A point with
// non-positive depth yields a CheiralityError.
func (c CalibratedCamera) Project(p Point3, jac *ProjectionJacobians) (Point2, error) {
	q := c.pose.TransformTo(p, nil, nil)
	pn, err := ProjectToCamera(q, nil)
	if err != nil {
		return Point2{}, err
	}
	if jac != nil {
		d := 1 / q.Z
		if jac.Pose != nil {
			calculateDpose(pn, d, jac.Pose)
		}
		if jac.Point != nil {
			calculateDpoint(pn, d, c.pose.R, jac.Point)
		}
	}
	return pn, nil
}

// Backproject implements the Camera interface: the exact inverse of Project
// given the depth along the optical axis.
func (c CalibratedCamera) Backproject(p Point2, depth float64) Point3 {
	return c.pose.TransformFrom(BackprojectFromCamera(p, depth))
}

// Range implements the Camera interface, delegating to the pose.
func (c CalibratedCamera) Range(p Point3, jac *RangeJacobians) float64 {
	return c.pose.Range(p, jac)
}

// RangeToCamera returns the distance to another camera, delegating to the
// poses.
func (c CalibratedCamera) RangeToCamera(other CalibratedCamera, jac *RangeJacobians) float64 {
	return c.pose.RangeToPose(other.pose, jac)
}

// Dim implements the Value interface.
func (c CalibratedCamera) Dim() int { return 6 }

// Retract implements the Value interface by moving the camera pose.
func (c CalibratedCamera) Retract(δ []float64) Value {
	return CalibratedCamera{c.pose.Retract(δ).(Pose3)}
}

// LocalCoordinates implements the Value interface.
func (c CalibratedCamera) LocalCoordinates(other Value) []float64 {
	return c.pose.LocalCoordinates(other.(CalibratedCamera).pose)
}

// Equals returns whether both cameras match within tol.
func (c CalibratedCamera) Equals(other Value, tol float64) bool {
	o, ok := other.(CalibratedCamera)
	return ok && c.pose.Equals(o.pose, tol)
}

func (c CalibratedCamera) String() string {
	return fmt.Sprintf("CalibratedCamera{%s}", c.pose)
}

// Cal3 holds pinhole intrinsics: focal lengths and principal point.
type Cal3 struct {
	Fx, Fy, U0, V0 float64
}

// Uncalibrate maps normalized image coordinates to pixels.
func (k Cal3) Uncalibrate(pn Point2) Point2 {
	return Point2{k.Fx*pn.X + k.U0, k.Fy*pn.Y + k.V0}
}

// Calibrate maps pixels to normalized image coordinates.
func (k Cal3) Calibrate(pix Point2) Point2 {
	return Point2{(pix.X - k.U0) / k.Fx, (pix.Y - k.V0) / k.Fy}
}

// Vector returns the intrinsics as (fx, fy, u0, v0).
func (k Cal3) Vector() []float64 { return []float64{k.Fx, k.Fy, k.U0, k.V0} }

// PinholeCamera is a camera whose intrinsics are unknown as well: the
// calibration parameters are appended to the pose tangent space, giving a
// 10-dimensional manifold value. Projections are in pixels.
type PinholeCamera struct {
	pose Pose3
	cal  Cal3
}

// NewPinholeCamera creates a camera at the given pose with the given
// intrinsics.
func NewPinholeCamera(pose Pose3, cal Cal3) PinholeCamera {
	return PinholeCamera{pose, cal}
}

// Pose implements the Camera interface.
func (c PinholeCamera) Pose() Pose3 { return c.pose }

// Calibration returns the intrinsics.
func (c PinholeCamera) Calibration() Cal3 { return c.cal }

// Project implements the Camera interface: project to normalized coordinates
// then through the calibration. The pose and point Jacobians are the
// calibrated ones with rows scaled by the focal lengths; the calibration
// Jacobian is closed form in the normalized projection.
func (c PinholeCamera) Project(p Point3, jac *ProjectionJacobians) (Point2, error) {
	base := CalibratedCamera{c.pose}
	pn, err := base.Project(p, jac)
	if err != nil {
		return Point2{}, err
	}
	if jac != nil {
		for _, D := range []*mat.Dense{jac.Pose, jac.Point} {
			if D == nil {
				continue
			}
			_, cols := D.Dims()
			for j := 0; j < cols; j++ {
				D.Set(0, j, c.cal.Fx*D.At(0, j))
				D.Set(1, j, c.cal.Fy*D.At(1, j))
			}
		}
		if jac.Calibration != nil {
			jac.Calibration.SetRow(0, []float64{pn.X, 0, 1, 0})
			jac.Calibration.SetRow(1, []float64{0, pn.Y, 0, 1})
		}
	}
	return c.cal.Uncalibrate(pn), nil
}

// Backproject implements the Camera interface.
func (c PinholeCamera) Backproject(pix Point2, depth float64) Point3 {
	return c.pose.TransformFrom(BackprojectFromCamera(c.cal.Calibrate(pix), depth))
}

// Range implements the Camera interface, delegating to the pose.
func (c PinholeCamera) Range(p Point3, jac *RangeJacobians) float64 {
	return c.pose.Range(p, jac)
}

// Dim implements the Value interface.
func (c PinholeCamera) Dim() int { return 10 }

// Retract implements the Value interface: the first six entries move the
// pose, the last four the intrinsics.
func (c PinholeCamera) Retract(δ []float64) Value {
	pose := c.pose.Retract(δ[:6]).(Pose3)
	cal := Cal3{c.cal.Fx + δ[6], c.cal.Fy + δ[7], c.cal.U0 + δ[8], c.cal.V0 + δ[9]}
	return PinholeCamera{pose, cal}
}

// LocalCoordinates implements the Value interface.
func (c PinholeCamera) LocalCoordinates(other Value) []float64 {
	o := other.(PinholeCamera)
	δ := c.pose.LocalCoordinates(o.pose)
	return append(δ, o.cal.Fx-c.cal.Fx, o.cal.Fy-c.cal.Fy, o.cal.U0-c.cal.U0, o.cal.V0-c.cal.V0)
}

// Equals returns whether both cameras match within tol.
func (c PinholeCamera) Equals(other Value, tol float64) bool {
	o, ok := other.(PinholeCamera)
	if !ok || !c.pose.Equals(o.pose, tol) {
		return false
	}
	for i, x := range c.cal.Vector() {
		if y := o.cal.Vector()[i]; x-y > tol || y-x > tol {
			return false
		}
	}
	return true
}

func (c PinholeCamera) String() string {
	return fmt.Sprintf("PinholeCamera{%s, K=%v}", c.pose, c.cal.Vector())
}

// ProjectionFactor measures the projection of a 3D point in a camera whose
// pose is a variable. With a nil calibration the measurement is in normalized
// coordinates (CalibratedCamera); otherwise in pixels through the fixed
// calibration. A CheiralityError during evaluation propagates to the caller:
// it signals an invalid linearization point, never a bad measurement.
type ProjectionFactor struct {
	poseKey, pointKey Key
	measured          Point2
	cal               *Cal3
	noise             NoiseModel
}

// NewProjectionFactor creates a projection factor with a 2-dimensional noise
// model. cal may be nil for normalized-coordinate measurements.
func NewProjectionFactor(poseKey, pointKey Key, measured Point2, cal *Cal3, noise NoiseModel) (*ProjectionFactor, error) {
	if noise.Dim() != 2 {
		return nil, fmt.Errorf("%sprojection(2) noise(%d)", dimErrMsg, noise.Dim())
	}
	return &ProjectionFactor{poseKey, pointKey, measured, cal, noise}, nil
}

// Keys implements the Factor interface.
func (f *ProjectionFactor) Keys() []Key { return []Key{f.poseKey, f.pointKey} }

// Dim implements the Factor interface.
func (f *ProjectionFactor) Dim() int { return 2 }

// Noise implements the Factor interface.
func (f *ProjectionFactor) Noise() NoiseModel { return f.noise }

// Measured returns the measured projection.
func (f *ProjectionFactor) Measured() Point2 { return f.measured }

func (f *ProjectionFactor) camera(v Values) (Camera, Point3, error) {
	pose, err := v.AtPose3(f.poseKey)
	if err != nil {
		return nil, Point3{}, err
	}
	point, err := v.AtPoint3(f.pointKey)
	if err != nil {
		return nil, Point3{}, err
	}
	if f.cal != nil {
		return PinholeCamera{pose, *f.cal}, point, nil
	}
	return CalibratedCamera{pose}, point, nil
}

// UnwhitenedError implements the Factor interface.
func (f *ProjectionFactor) UnwhitenedError(v Values) ([]float64, error) {
	cam, point, err := f.camera(v)
	if err != nil {
		return nil, err
	}
	z, err := cam.Project(point, nil)
	if err != nil {
		return nil, err
	}
	return []float64{z.X - f.measured.X, z.Y - f.measured.Y}, nil
}

// Error implements the Factor interface.
func (f *ProjectionFactor) Error(v Values) (float64, error) { return factorError(f, v) }

// Linearize implements the Factor interface.
func (f *ProjectionFactor) Linearize(v Values) (*JacobianFactor, error) {
	cam, point, err := f.camera(v)
	if err != nil {
		return nil, err
	}
	jac := NewProjectionJacobians(false)
	z, err := cam.Project(point, jac)
	if err != nil {
		return nil, err
	}
	e := []float64{z.X - f.measured.X, z.Y - f.measured.Y}
	return linearizeFactor([]Key{f.poseKey, f.pointKey}, []*mat.Dense{jac.Pose, jac.Point}, e, f.noise)
}
