package gosam

import (
	"math"
	"testing"
)

func TestSyntheticDatasetTruthIsExact(t *testing.T) {
	d := NewSyntheticPose2Dataset([]float64{0.1, 0.1, 0.05}, nil)
	graph, initial, noise, err := d.Load("circle8")
	if err != nil {
		t.Fatal(err)
	}
	if noise == nil || noise.Dim() != 3 {
		t.Fatal("the dataset must report its odometry noise model")
	}
	// Without a sampler the initial guess is the ground truth, so the graph
	// error vanishes.
	c, err := graph.Error(initial)
	if err != nil {
		t.Fatal(err)
	}
	if c > 1e-18 {
		t.Fatalf("graph error at the ground truth must be zero, got %g", c)
	}
	// n odometry factors: n-1 along the chain plus the loop closure.
	if graph.Size() != 8 {
		t.Fatalf("unexpected factor count %d", graph.Size())
	}
}

func TestSyntheticDatasetGroundTruth(t *testing.T) {
	d := NewSyntheticPose2Dataset([]float64{0.1, 0.1, 0.05}, nil)
	truth := d.GroundTruth(4)
	for _, k := range truth.Keys() {
		p, err := truth.AtPose2(k)
		if err != nil {
			t.Fatal(err)
		}
		if r := math.Hypot(p.X, p.Y); math.Abs(r-1) > 1e-12 {
			t.Fatalf("pose %s is off the unit circle: radius %g", k, r)
		}
	}
}

func TestSyntheticDatasetPerturbsInitial(t *testing.T) {
	sampler, err := NewGaussianSampler([]float64{0.05, 0.05, 0.02}, 7)
	if err != nil {
		t.Fatal(err)
	}
	d := NewSyntheticPose2Dataset([]float64{0.1, 0.1, 0.05}, sampler)
	_, initial, _, err := d.Load("circle6")
	if err != nil {
		t.Fatal(err)
	}
	truth := d.GroundTruth(6)

	// The anchor pose stays exact, the rest is corrupted.
	p0, _ := initial.AtPose2(Symbol('x', 0))
	t0, _ := truth.AtPose2(Symbol('x', 0))
	if !p0.Equals(t0, 1e-12) {
		t.Fatal("the first pose must not be perturbed")
	}
	if initial.Equals(truth, 1e-12) {
		t.Fatal("the remaining poses must be perturbed")
	}
}

func TestSyntheticDatasetUnknownName(t *testing.T) {
	d := NewSyntheticPose2Dataset([]float64{0.1, 0.1, 0.05}, nil)
	for _, name := range []string{"sphere2500", "circle1", "circle"} {
		if _, _, _, err := d.Load(name); err == nil {
			t.Fatalf("dataset %q must be rejected", name)
		}
	}
}
