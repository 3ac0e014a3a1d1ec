package gosam

import (
	"fmt"
	"math"
)

// DatasetLoader is the external-collaborator contract for dataset access:
// given a name it returns a factor graph, an initial variable assignment and
// the dataset's default noise model. File formats are the loader's business,
// not this package's.
type DatasetLoader interface {
	Load(name string) (*FactorGraph, Values, NoiseModel, error)
}

// SyntheticPose2Dataset generates planar pose-graph problems in memory: a
// circular trajectory of poses linked by odometry factors. The initial guess
// is the ground truth corrupted by the configured sampler, so the known truth
// doubles as the convergence reference in tests.
type SyntheticPose2Dataset struct {
	Sigmas  []float64        // Odometry noise sigmas (dx, dy, dθ)
	Sampler *GaussianSampler // Optional; corrupts the initial guess when set
}

// NewSyntheticPose2Dataset returns a generator with the given odometry
// sigmas.
func NewSyntheticPose2Dataset(sigmas []float64, sampler *GaussianSampler) *SyntheticPose2Dataset {
	return &SyntheticPose2Dataset{Sigmas: sigmas, Sampler: sampler}
}

// GroundTruth returns the exact circular trajectory with n poses.
func (d *SyntheticPose2Dataset) GroundTruth(n int) Values {
	truth := NewValues()
	for i := 0; i < n; i++ {
		θ := 2 * math.Pi * float64(i) / float64(n)
		truth.Insert(Symbol('x', uint64(i)), NewPose2(math.Cos(θ), math.Sin(θ), θ+math.Pi/2))
	}
	return truth
}

// Load implements the DatasetLoader interface. Recognized names have the
// form "circleN" for N >= 2 poses.
func (d *SyntheticPose2Dataset) Load(name string) (*FactorGraph, Values, NoiseModel, error) {
	var n int
	if _, err := fmt.Sscanf(name, "circle%d", &n); err != nil || n < 2 {
		return nil, Values{}, nil, fmt.Errorf("unknown dataset %q", name)
	}
	noise, err := NewDiagonalNoise(d.Sigmas...)
	if err != nil {
		return nil, Values{}, nil, err
	}

	truth := d.GroundTruth(n)
	graph := NewFactorGraph()
	for i := 0; i < n-1; i++ {
		k1, k2 := Symbol('x', uint64(i)), Symbol('x', uint64(i+1))
		p1, _ := truth.AtPose2(k1)
		p2, _ := truth.AtPose2(k2)
		f, err := NewBetweenFactorPose2(k1, k2, p1.Between(p2), noise)
		if err != nil {
			return nil, Values{}, nil, err
		}
		graph.Add(f)
	}
	// Loop closure back to the first pose.
	last, _ := truth.AtPose2(Symbol('x', uint64(n-1)))
	first, _ := truth.AtPose2(Symbol('x', 0))
	closure, err := NewBetweenFactorPose2(Symbol('x', uint64(n-1)), Symbol('x', 0), last.Between(first), noise)
	if err != nil {
		return nil, Values{}, nil, err
	}
	graph.Add(closure)

	initial := NewValues()
	for _, k := range truth.Keys() {
		p, _ := truth.AtPose2(k)
		if d.Sampler != nil && k != Symbol('x', 0) {
			δ := d.Sampler.Sample()
			if len(δ) != 3 {
				return nil, Values{}, nil, fmt.Errorf("sampler must produce 3-vectors, got %d", len(δ))
			}
			p = p.Retract(δ).(Pose2)
		}
		initial.Insert(k, p)
	}
	return graph, initial, noise, nil
}
