package gosam

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func TestJacobianFactorConstruction(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	if _, err := NewJacobianFactor([]Key{Symbol('x', 0)}, []*mat.Dense{A}, []float64{1}); err == nil {
		t.Fatal("row count mismatch must be rejected")
	}
	if _, err := NewJacobianFactor([]Key{Symbol('x', 0), Symbol('x', 0)}, []*mat.Dense{A, A}, []float64{1, 2}); err == nil {
		t.Fatal("duplicate keys must be rejected")
	}
	if _, err := NewJacobianFactor([]Key{Symbol('x', 0)}, nil, []float64{1, 2}); err == nil {
		t.Fatal("key and block counts must agree")
	}
}

func TestJacobianFactorErrorVector(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	jf, err := NewJacobianFactor([]Key{Symbol('x', 0)}, []*mat.Dense{A}, []float64{1, 1})
	if err != nil {
		t.Fatal(err)
	}
	x := NewVectorValues()
	x.Insert(Symbol('x', 0), []float64{1, -1})
	e, err := jf.ErrorVector(x)
	if err != nil {
		t.Fatal(err)
	}
	if !floats.EqualApprox(e, []float64{-2, -2}, 1e-12) {
		t.Fatalf("unexpected error vector %v", e)
	}

	if _, err := jf.ErrorVector(NewVectorValues()); err == nil {
		t.Fatal("a missing key must surface as an error")
	}
}

// A two-variable chain with a prior on the first variable: the assembled
// system has a unique solution we can verify by hand.
//
//	x0 = 1        (prior)
//	x1 - x0 = 2   (odometry)
func chainGraph() *GaussianFactorGraph {
	g := NewGaussianFactorGraph()
	prior, _ := NewJacobianFactor(
		[]Key{Symbol('x', 0)},
		[]*mat.Dense{mat.NewDense(1, 1, []float64{1})},
		[]float64{1})
	odo, _ := NewJacobianFactor(
		[]Key{Symbol('x', 0), Symbol('x', 1)},
		[]*mat.Dense{mat.NewDense(1, 1, []float64{-1}), mat.NewDense(1, 1, []float64{1})},
		[]float64{2})
	g.Add(prior)
	g.Add(odo)
	return g
}

func TestGaussianFactorGraphDense(t *testing.T) {
	g := chainGraph()
	A, b, ordering, err := g.Dense()
	if err != nil {
		t.Fatal(err)
	}
	if len(ordering) != 2 || ordering[0] != Symbol('x', 0) || ordering[1] != Symbol('x', 1) {
		t.Fatalf("unexpected ordering %v", ordering)
	}
	r, c := A.Dims()
	if r != 2 || c != 2 {
		t.Fatalf("unexpected system shape %dx%d", r, c)
	}
	want := mat.NewDense(2, 2, []float64{1, 0, -1, 1})
	if !mat.EqualApprox(A, want, 1e-12) {
		t.Fatalf("unexpected A:\n%v", mat.Formatted(A))
	}
	if b.AtVec(0) != 1 || b.AtVec(1) != 2 {
		t.Fatalf("unexpected b: %v", mat.Formatted(b))
	}
}

func TestGaussianFactorGraphSolve(t *testing.T) {
	g := chainGraph()
	x, err := g.Solve()
	if err != nil {
		t.Fatal(err)
	}
	x0, _ := x.At(Symbol('x', 0))
	x1, _ := x.At(Symbol('x', 1))
	if math.Abs(x0[0]-1) > 1e-12 || math.Abs(x1[0]-3) > 1e-12 {
		t.Fatalf("unexpected solution x0=%v x1=%v", x0, x1)
	}

	// The residual at the solution vanishes for this exactly determined system.
	c, err := g.Error(x)
	if err != nil {
		t.Fatal(err)
	}
	if c > 1e-18 {
		t.Fatalf("residual at the solution must vanish, got %g", c)
	}
}

func TestGaussianFactorGraphEmptySolve(t *testing.T) {
	if _, err := NewGaussianFactorGraph().Solve(); err == nil {
		t.Fatal("solving an empty system must fail")
	}
}

func TestGaussianFactorGraphColumnDimMismatch(t *testing.T) {
	g := NewGaussianFactorGraph()
	a, _ := NewJacobianFactor([]Key{Symbol('x', 0)}, []*mat.Dense{mat.NewDense(1, 2, nil)}, []float64{0})
	b, _ := NewJacobianFactor([]Key{Symbol('x', 0)}, []*mat.Dense{mat.NewDense(1, 3, nil)}, []float64{0})
	g.Add(a)
	g.Add(b)
	if _, _, _, err := g.Dense(); err == nil {
		t.Fatal("disagreeing column dimensions must be rejected")
	}
}

func TestDenseSolverInitialize(t *testing.T) {
	graph := NewFactorGraph()
	noise := NewUnitNoise(3)
	f, _ := NewBetweenFactorPose2(Symbol('x', 0), Symbol('x', 1), NewPose2(1, 0, 0), noise)
	graph.Add(f)

	v := NewValues()
	v.Insert(Symbol('x', 0), NewPose2(0, 0, 0))
	var solver DenseSolver
	if err := solver.Initialize(graph, v); err == nil {
		t.Fatal("initialization with a missing variable must fail")
	}
	v.Insert(Symbol('x', 1), NewPose2(1, 0, 0))
	if err := solver.Initialize(graph, v); err != nil {
		t.Fatal(err)
	}
}

func TestScalingPreconditioner(t *testing.T) {
	p, err := NewScalingPreconditioner(
		[]Key{Symbol('x', 0), Symbol('x', 1)},
		[]int{2, 1},
		[]float64{2, 3, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	out, err := p.Unprecondition([]float64{1, 1, 4})
	if err != nil {
		t.Fatal(err)
	}
	v0, _ := out.At(Symbol('x', 0))
	v1, _ := out.At(Symbol('x', 1))
	if !floats.EqualApprox(v0, []float64{2, 3}, 1e-12) || !floats.EqualApprox(v1, []float64{2}, 1e-12) {
		t.Fatalf("unexpected unpreconditioned correction %v %v", v0, v1)
	}

	if _, err := p.Unprecondition([]float64{1}); err == nil {
		t.Fatal("length mismatch must be rejected")
	}
	if _, err := NewScalingPreconditioner([]Key{Symbol('x', 0)}, []int{2}, []float64{1}); err == nil {
		t.Fatal("scales shorter than the total dimension must be rejected")
	}
}
