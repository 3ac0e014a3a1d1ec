package gosam

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestPriorFactorZeroAtPrior(t *testing.T) {
	prior := NewPose2(1, 2, 0.3)
	noise, _ := NewIsotropicNoise(3, 0.1)
	f, err := NewPriorFactor(Symbol('x', 0), prior, noise)
	if err != nil {
		t.Fatal(err)
	}

	v := NewValues()
	v.Insert(Symbol('x', 0), prior)
	c, err := f.Error(v)
	if err != nil {
		t.Fatal(err)
	}
	if c != 0 {
		t.Fatalf("prior error at the prior must be zero, got %g", c)
	}
}

func TestPriorFactorWhitening(t *testing.T) {
	noise, _ := NewDiagonalNoise(0.5, 0.5, 0.5)
	f, _ := NewPriorFactor(Symbol('x', 0), NewPose2(0, 0, 0), noise)

	v := NewValues()
	v.Insert(Symbol('x', 0), NewPose2(0.1, 0, 0))
	e, err := f.UnwhitenedError(v)
	if err != nil {
		t.Fatal(err)
	}
	// 0.5 * (0.1/0.5)² = 0.02
	c, _ := f.Error(v)
	if math.Abs(c-0.02) > 1e-12 {
		t.Fatalf("unexpected whitened cost %g for residual %v", c, e)
	}

	jf, err := f.Linearize(v)
	if err != nil {
		t.Fatal(err)
	}
	// b is the negated whitened residual.
	want := noise.Whiten([]float64{-e[0], -e[1], -e[2]})
	if !floats.EqualApprox(jf.B(), want, 1e-12) {
		t.Fatalf("b = %v, want %v", jf.B(), want)
	}
	// The whitened identity Jacobian is diag(1/σ).
	if jf.Block(Symbol('x', 0)).At(0, 0) != 2 {
		t.Fatal("prior Jacobian must be whitened by the noise model")
	}
}

func TestPriorFactorDimMismatch(t *testing.T) {
	noise := NewUnitNoise(2)
	if _, err := NewPriorFactor(Symbol('x', 0), NewPose2(0, 0, 0), noise); err == nil {
		t.Fatal("noise of the wrong dimension must be rejected")
	}
}

func TestBetweenFactorPose2ZeroAtTruth(t *testing.T) {
	x0 := NewPose2(0, 0, 0)
	x1 := NewPose2(1, 0.5, 0.2)
	noise := NewUnitNoise(3)
	f, err := NewBetweenFactorPose2(Symbol('x', 0), Symbol('x', 1), x0.Between(x1), noise)
	if err != nil {
		t.Fatal(err)
	}

	v := NewValues()
	v.Insert(Symbol('x', 0), x0)
	v.Insert(Symbol('x', 1), x1)
	c, err := f.Error(v)
	if err != nil {
		t.Fatal(err)
	}
	if c > 1e-18 {
		t.Fatalf("between error at the true relative pose must be zero, got %g", c)
	}
}

func TestBetweenFactorMissingVariable(t *testing.T) {
	noise := NewUnitNoise(3)
	f, _ := NewBetweenFactorPose2(Symbol('x', 0), Symbol('x', 1), NewPose2(1, 0, 0), noise)
	v := NewValues()
	v.Insert(Symbol('x', 0), NewPose2(0, 0, 0))
	if _, err := f.Error(v); err == nil {
		t.Fatal("a missing variable must surface as an error")
	}
	if _, err := f.Linearize(v); err == nil {
		t.Fatal("linearizing with a missing variable must fail")
	}
}

// The analytic between Jacobians must match central differences of the
// residual with respect to each variable. The closed forms are evaluated at
// zero residual, where they are exact.
func TestBetweenFactorPose2Jacobians(t *testing.T) {
	x0 := NewPose2(0.5, -0.2, 0.4)
	x1 := NewPose2(1.3, 0.6, -0.1)
	noise := NewUnitNoise(3)
	f, _ := NewBetweenFactorPose2(Symbol('x', 0), Symbol('x', 1), x0.Between(x1), noise)

	v := NewValues()
	v.Insert(Symbol('x', 0), x0)
	v.Insert(Symbol('x', 1), x1)
	jf, err := f.Linearize(v)
	if err != nil {
		t.Fatal(err)
	}

	residual := func(a, b Pose2) []float64 {
		w := NewValues()
		w.Insert(Symbol('x', 0), a)
		w.Insert(Symbol('x', 1), b)
		e, err := f.UnwhitenedError(w)
		if err != nil {
			t.Fatal(err)
		}
		return e
	}
	numH1 := numericalJacobian(3, func(δ []float64) []float64 {
		return residual(x0.Retract(δ).(Pose2), x1)
	}, make([]float64, 3))
	checkJacobian(t, "between/H1", jf.Block(Symbol('x', 0)), numH1, 1e-6)

	numH2 := numericalJacobian(3, func(δ []float64) []float64 {
		return residual(x0, x1.Retract(δ).(Pose2))
	}, make([]float64, 3))
	checkJacobian(t, "between/H2", jf.Block(Symbol('x', 1)), numH2, 1e-6)
}

func TestBetweenFactorPose3Jacobians(t *testing.T) {
	x0 := samplePose3()
	x1 := NewPose3(ExpmapRot3([]float64{-0.1, 0.3, 0.2}), Point3{2, 0, -1})
	noise := NewUnitNoise(6)
	f, _ := NewBetweenFactorPose3(Symbol('x', 0), Symbol('x', 1), x0.Between(x1), noise)

	v := NewValues()
	v.Insert(Symbol('x', 0), x0)
	v.Insert(Symbol('x', 1), x1)
	jf, err := f.Linearize(v)
	if err != nil {
		t.Fatal(err)
	}

	residual := func(a, b Pose3) []float64 {
		w := NewValues()
		w.Insert(Symbol('x', 0), a)
		w.Insert(Symbol('x', 1), b)
		e, err := f.UnwhitenedError(w)
		if err != nil {
			t.Fatal(err)
		}
		return e
	}
	numH1 := numericalJacobian(6, func(δ []float64) []float64 {
		return residual(x0.Retract(δ).(Pose3), x1)
	}, make([]float64, 6))
	checkJacobian(t, "between3/H1", jf.Block(Symbol('x', 0)), numH1, 1e-5)

	numH2 := numericalJacobian(6, func(δ []float64) []float64 {
		return residual(x0, x1.Retract(δ).(Pose3))
	}, make([]float64, 6))
	checkJacobian(t, "between3/H2", jf.Block(Symbol('x', 1)), numH2, 1e-5)
}
