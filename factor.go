package gosam

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Factor is a single residual term over a fixed tuple of variables, paired
// with a noise model of matching dimension. Factors are immutable once
// constructed.
type Factor interface {
	Keys() []Key
	Dim() int
	Noise() NoiseModel
	// UnwhitenedError evaluates the raw residual at the given values.
	UnwhitenedError(v Values) ([]float64, error)
	// Error evaluates 0.5 * ||whitened residual||².
	Error(v Values) (float64, error)
	// Linearize evaluates the residual and its Jacobians at the given values
	// and returns the whitened linear factor.
	Linearize(v Values) (*JacobianFactor, error)
}

// factorError implements the shared Error computation from an unwhitened
// residual and a noise model.
func factorError(f Factor, v Values) (float64, error) {
	e, err := f.UnwhitenedError(v)
	if err != nil {
		return 0, err
	}
	w := f.Noise().Whiten(e)
	var sum float64
	for _, x := range w {
		sum += x * x
	}
	return 0.5 * sum, nil
}

// linearizeFactor whitens the Jacobian blocks and residual of a factor and
// assembles the JacobianFactor. The right-hand side is the negated whitened
// residual, so the solved correction is a Gauss-Newton step.
func linearizeFactor(keys []Key, blocks []*mat.Dense, e []float64, noise NoiseModel) (*JacobianFactor, error) {
	if len(e) != noise.Dim() {
		return nil, fmt.Errorf("%sresidual(%d) noise(%d)", dimErrMsg, len(e), noise.Dim())
	}
	neg := make([]float64, len(e))
	for i := range e {
		neg[i] = -e[i]
	}
	b := noise.Whiten(neg)
	for _, A := range blocks {
		if err := noise.WhitenSystem(A, make([]float64, len(b))); err != nil {
			return nil, err
		}
	}
	return NewJacobianFactor(keys, blocks, b)
}

// PriorFactor anchors a single variable to a fixed prior value. The residual
// is the tangent vector from the prior to the current value.
type PriorFactor struct {
	key   Key
	prior Value
	noise NoiseModel
}

// NewPriorFactor creates a prior factor. The noise dimension must match the
// variable dimension.
func NewPriorFactor(key Key, prior Value, noise NoiseModel) (*PriorFactor, error) {
	if noise.Dim() != prior.Dim() {
		return nil, fmt.Errorf("%sprior(%d) noise(%d)", dimErrMsg, prior.Dim(), noise.Dim())
	}
	return &PriorFactor{key, prior, noise}, nil
}

// Keys implements the Factor interface.
func (f *PriorFactor) Keys() []Key { return []Key{f.key} }

// Dim implements the Factor interface.
func (f *PriorFactor) Dim() int { return f.noise.Dim() }

// Noise implements the Factor interface.
func (f *PriorFactor) Noise() NoiseModel { return f.noise }

// UnwhitenedError implements the Factor interface.
func (f *PriorFactor) UnwhitenedError(v Values) ([]float64, error) {
	x, err := v.At(f.key)
	if err != nil {
		return nil, err
	}
	if x.Dim() != f.prior.Dim() {
		return nil, TypeMismatchError{f.key, fmt.Sprintf("%T", f.prior), fmt.Sprintf("%T", x)}
	}
	return f.prior.LocalCoordinates(x), nil
}

// Error implements the Factor interface.
func (f *PriorFactor) Error(v Values) (float64, error) { return factorError(f, v) }

// Linearize implements the Factor interface. The Jacobian is the identity to
// first order around the linearization point.
func (f *PriorFactor) Linearize(v Values) (*JacobianFactor, error) {
	e, err := f.UnwhitenedError(v)
	if err != nil {
		return nil, err
	}
	return linearizeFactor([]Key{f.key}, []*mat.Dense{Identity(f.prior.Dim())}, e, f.noise)
}

// BetweenFactorPose2 measures the relative transform between two planar
// poses, as produced by odometry or loop closures.
type BetweenFactorPose2 struct {
	key1, key2 Key
	measured   Pose2
	noise      NoiseModel
}

// NewBetweenFactorPose2 creates a between factor with a 3-dimensional noise
// model.
func NewBetweenFactorPose2(key1, key2 Key, measured Pose2, noise NoiseModel) (*BetweenFactorPose2, error) {
	if noise.Dim() != 3 {
		return nil, fmt.Errorf("%sPose2(3) noise(%d)", dimErrMsg, noise.Dim())
	}
	return &BetweenFactorPose2{key1, key2, measured, noise}, nil
}

// Keys implements the Factor interface.
func (f *BetweenFactorPose2) Keys() []Key { return []Key{f.key1, f.key2} }

// Dim implements the Factor interface.
func (f *BetweenFactorPose2) Dim() int { return 3 }

// Noise implements the Factor interface.
func (f *BetweenFactorPose2) Noise() NoiseModel { return f.noise }

// Measured returns the measured relative pose.
func (f *BetweenFactorPose2) Measured() Pose2 { return f.measured }

func (f *BetweenFactorPose2) between(v Values) (Pose2, error) {
	x1, err := v.AtPose2(f.key1)
	if err != nil {
		return Pose2{}, err
	}
	x2, err := v.AtPose2(f.key2)
	if err != nil {
		return Pose2{}, err
	}
	return x1.Between(x2), nil
}

// UnwhitenedError implements the Factor interface.
func (f *BetweenFactorPose2) UnwhitenedError(v Values) ([]float64, error) {
	h, err := f.between(v)
	if err != nil {
		return nil, err
	}
	return LogmapPose2(f.measured.Between(h)), nil
}

// Error implements the Factor interface.
func (f *BetweenFactorPose2) Error(v Values) (float64, error) { return factorError(f, v) }

// Linearize implements the Factor interface. With right-composition
// retractions the Jacobians are H1 = -Ad(h⁻¹) and H2 = I, for h the
// predicted relative pose.
func (f *BetweenFactorPose2) Linearize(v Values) (*JacobianFactor, error) {
	h, err := f.between(v)
	if err != nil {
		return nil, err
	}
	e := LogmapPose2(f.measured.Between(h))
	H1 := h.Inverse().AdjointMap()
	H1.Scale(-1, H1)
	return linearizeFactor([]Key{f.key1, f.key2}, []*mat.Dense{H1, Identity(3)}, e, f.noise)
}

// BetweenFactorPose3 measures the relative transform between two 3D poses.
type BetweenFactorPose3 struct {
	key1, key2 Key
	measured   Pose3
	noise      NoiseModel
}

// NewBetweenFactorPose3 creates a between factor with a 6-dimensional noise
// model.
func NewBetweenFactorPose3(key1, key2 Key, measured Pose3, noise NoiseModel) (*BetweenFactorPose3, error) {
	if noise.Dim() != 6 {
		return nil, fmt.Errorf("%sPose3(6) noise(%d)", dimErrMsg, noise.Dim())
	}
	return &BetweenFactorPose3{key1, key2, measured, noise}, nil
}

// Keys implements the Factor interface.
func (f *BetweenFactorPose3) Keys() []Key { return []Key{f.key1, f.key2} }

// Dim implements the Factor interface.
func (f *BetweenFactorPose3) Dim() int { return 6 }

// Noise implements the Factor interface.
func (f *BetweenFactorPose3) Noise() NoiseModel { return f.noise }

// Measured returns the measured relative pose.
func (f *BetweenFactorPose3) Measured() Pose3 { return f.measured }

func (f *BetweenFactorPose3) between(v Values) (Pose3, error) {
	x1, err := v.AtPose3(f.key1)
	if err != nil {
		return Pose3{}, err
	}
	x2, err := v.AtPose3(f.key2)
	if err != nil {
		return Pose3{}, err
	}
	return x1.Between(x2), nil
}

// UnwhitenedError implements the Factor interface.
func (f *BetweenFactorPose3) UnwhitenedError(v Values) ([]float64, error) {
	h, err := f.between(v)
	if err != nil {
		return nil, err
	}
	return LogmapPose3(f.measured.Between(h)), nil
}

// Error implements the Factor interface.
func (f *BetweenFactorPose3) Error(v Values) (float64, error) { return factorError(f, v) }

// Linearize implements the Factor interface.
func (f *BetweenFactorPose3) Linearize(v Values) (*JacobianFactor, error) {
	h, err := f.between(v)
	if err != nil {
		return nil, err
	}
	e := LogmapPose3(f.measured.Between(h))
	H1 := h.Inverse().AdjointMap()
	H1.Scale(-1, H1)
	return linearizeFactor([]Key{f.key1, f.key2}, []*mat.Dense{H1, Identity(6)}, e, f.noise)
}
