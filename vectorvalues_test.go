package gosam

import (
	"math"
	"testing"
)

func TestVectorValuesOps(t *testing.T) {
	a := NewVectorValues()
	a.Insert(Symbol('x', 0), []float64{1, 2})
	a.Insert(Symbol('x', 1), []float64{3})

	b := NewVectorValues()
	b.Insert(Symbol('x', 0), []float64{-1, 1})
	b.Insert(Symbol('x', 1), []float64{2})

	sum, err := a.Add(b)
	if err != nil {
		t.Fatal(err)
	}
	if vec, _ := sum.At(Symbol('x', 0)); vec[0] != 0 || vec[1] != 3 {
		t.Fatalf("unexpected sum: %v", vec)
	}

	scaled := a.Scale(2)
	if vec, _ := scaled.At(Symbol('x', 1)); vec[0] != 6 {
		t.Fatalf("unexpected scale: %v", vec)
	}
	// Scaling copies; the original is untouched.
	if vec, _ := a.At(Symbol('x', 1)); vec[0] != 3 {
		t.Fatal("scale must not mutate the receiver")
	}

	if n := a.Norm(); math.Abs(n-math.Sqrt(14)) > 1e-12 {
		t.Fatalf("unexpected norm %g", n)
	}
	if d := a.TotalDim(); d != 3 {
		t.Fatalf("unexpected total dimension %d", d)
	}
}

func TestVectorValuesAddMismatch(t *testing.T) {
	a := NewVectorValues()
	a.Insert(Symbol('x', 0), []float64{1, 2})
	if _, err := a.Add(NewVectorValues()); err == nil {
		t.Fatal("adding containers with different keys must fail")
	}
	b := NewVectorValues()
	b.Insert(Symbol('x', 0), []float64{1})
	if _, err := a.Add(b); err == nil {
		t.Fatal("adding vectors of different dimensions must fail")
	}
}
