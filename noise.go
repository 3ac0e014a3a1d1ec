package gosam

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// NoiseModel whitens residuals and Jacobians: rows are scaled by the inverse
// noise standard deviations so the whitened system is unit-variance.
type NoiseModel interface {
	Dim() int                            // Residual dimension the model applies to
	Whiten(e []float64) []float64        // Returns e scaled by 1/σ per row
	WhitenSystem(A *mat.Dense, b []float64) error // Scales the rows of A and b in place
	Sigmas() []float64                   // Per-row standard deviations
	String() string                      // Stringer interface implementation
}

// diagonal is a noise model with independent per-row standard deviations.
type diagonal struct {
	sigmas []float64
	invs   []float64
}

// NewDiagonalNoise creates a noise model from per-row standard deviations.
func NewDiagonalNoise(sigmas ...float64) (NoiseModel, error) {
	invs := make([]float64, len(sigmas))
	for i, σ := range sigmas {
		if σ <= 0 {
			return nil, fmt.Errorf("noise sigma %d must be positive, got %g", i, σ)
		}
		invs[i] = 1 / σ
	}
	return &diagonal{sigmas, invs}, nil
}

// NewIsotropicNoise creates a noise model with the same standard deviation on
// every row.
func NewIsotropicNoise(dim int, σ float64) (NoiseModel, error) {
	sigmas := make([]float64, dim)
	for i := range sigmas {
		sigmas[i] = σ
	}
	return NewDiagonalNoise(sigmas...)
}

// NewUnitNoise creates a unit-variance noise model: whitening is the
// identity. Used for gauge-fixing priors.
func NewUnitNoise(dim int) NoiseModel {
	n, _ := NewIsotropicNoise(dim, 1)
	return n
}

// Dim implements the NoiseModel interface.
func (d *diagonal) Dim() int { return len(d.sigmas) }

// Whiten implements the NoiseModel interface.
func (d *diagonal) Whiten(e []float64) []float64 {
	out := make([]float64, len(e))
	for i := range e {
		out[i] = e[i] * d.invs[i]
	}
	return out
}

// WhitenSystem implements the NoiseModel interface.
func (d *diagonal) WhitenSystem(A *mat.Dense, b []float64) error {
	rows, cols := A.Dims()
	if rows != len(d.sigmas) {
		return checkMatDims(A, mat.NewDense(len(d.sigmas), cols, nil), "A", "noise", rows2rows)
	}
	if len(b) != len(d.sigmas) {
		return fmt.Errorf("%sb(%d) noise(%d)", dimErrMsg, len(b), len(d.sigmas))
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			A.Set(i, j, A.At(i, j)*d.invs[i])
		}
		b[i] *= d.invs[i]
	}
	return nil
}

// Sigmas implements the NoiseModel interface.
func (d *diagonal) Sigmas() []float64 {
	out := make([]float64, len(d.sigmas))
	copy(out, d.sigmas)
	return out
}

// String implements the Stringer interface.
func (d *diagonal) String() string {
	return fmt.Sprintf("Diagonal{σ=%v}", d.sigmas)
}

// GaussianSampler draws zero-mean Gaussian vectors with the provided per-axis
// standard deviations. Used to corrupt synthetic measurements.
type GaussianSampler struct {
	dist *distmv.Normal
}

// NewGaussianSampler creates a sampler for the given sigmas and seed.
func NewGaussianSampler(sigmas []float64, seed uint64) (*GaussianSampler, error) {
	n := len(sigmas)
	cov := mat.NewSymDense(n, nil)
	for i, σ := range sigmas {
		if σ <= 0 {
			return nil, fmt.Errorf("sampler sigma %d must be positive, got %g", i, σ)
		}
		cov.SetSym(i, i, σ*σ)
	}
	dist, ok := distmv.NewNormal(make([]float64, n), cov, rand.NewSource(seed))
	if !ok {
		return nil, fmt.Errorf("sampler covariance is not positive definite")
	}
	return &GaussianSampler{dist}, nil
}

// Sample returns one noise vector.
func (g *GaussianSampler) Sample() []float64 {
	return g.dist.Rand(nil)
}
