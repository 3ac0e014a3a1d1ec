package gosam

import (
	"strings"
	"testing"
)

func TestFactorGraphKeysAndError(t *testing.T) {
	g := NewFactorGraph()
	noise := NewUnitNoise(3)
	f01, _ := NewBetweenFactorPose2(Symbol('x', 0), Symbol('x', 1), NewPose2(1, 0, 0), noise)
	f12, _ := NewBetweenFactorPose2(Symbol('x', 1), Symbol('x', 2), NewPose2(1, 0, 0), noise)
	g.Add(f01)
	g.Add(f12)
	if err := g.AddPrior(Symbol('x', 0), NewPose2(0, 0, 0), noise); err != nil {
		t.Fatal(err)
	}

	keys := g.Keys()
	if len(keys) != 3 || keys[0] != Symbol('x', 0) || keys[2] != Symbol('x', 2) {
		t.Fatalf("unexpected keys %v", keys)
	}

	v := NewValues()
	v.Insert(Symbol('x', 0), NewPose2(0, 0, 0))
	v.Insert(Symbol('x', 1), NewPose2(1, 0, 0))
	v.Insert(Symbol('x', 2), NewPose2(2, 0, 0))
	c, err := g.Error(v)
	if err != nil {
		t.Fatal(err)
	}
	if c > 1e-18 {
		t.Fatalf("error at the exact solution must be zero, got %g", c)
	}
}

func TestFactorGraphErrorNamesFactor(t *testing.T) {
	g := NewFactorGraph()
	noise := NewUnitNoise(3)
	f, _ := NewBetweenFactorPose2(Symbol('x', 0), Symbol('x', 1), NewPose2(1, 0, 0), noise)
	g.Add(f)

	_, err := g.Error(NewValues())
	if err == nil || !strings.Contains(err.Error(), "factor 0") {
		t.Fatalf("the failing factor index must appear in the error, got %v", err)
	}
	_, err = g.Linearize(NewValues())
	if err == nil || !strings.Contains(err.Error(), "factor 0") {
		t.Fatalf("the failing factor index must appear in the error, got %v", err)
	}
}

// One linearize-solve-retract pass on a linear chain reaches the exact
// solution from any starting point.
func TestFactorGraphLinearizeSolveRetract(t *testing.T) {
	g := NewFactorGraph()
	noise, _ := NewIsotropicNoise(3, 0.2)
	f01, _ := NewBetweenFactorPose2(Symbol('x', 0), Symbol('x', 1), NewPose2(2, 0, 0), noise)
	g.Add(f01)
	if err := g.AddPrior(Symbol('x', 0), NewPose2(0, 0, 0), noise); err != nil {
		t.Fatal(err)
	}

	v := NewValues()
	v.Insert(Symbol('x', 0), NewPose2(0, 0, 0))
	v.Insert(Symbol('x', 1), NewPose2(1.5, 0, 0))

	lin, err := g.Linearize(v)
	if err != nil {
		t.Fatal(err)
	}
	delta, err := lin.Solve()
	if err != nil {
		t.Fatal(err)
	}
	out, err := v.Retract(delta)
	if err != nil {
		t.Fatal(err)
	}
	x1, _ := out.AtPose2(Symbol('x', 1))
	if !x1.Equals(NewPose2(2, 0, 0), 1e-9) {
		t.Fatalf("x1 after one step is %v, want (2, 0, 0)", x1)
	}
	c, err := g.Error(out)
	if err != nil {
		t.Fatal(err)
	}
	if c > 1e-15 {
		t.Fatalf("residual after the step must vanish, got %g", c)
	}
}
