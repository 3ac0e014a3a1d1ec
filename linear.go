package gosam

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// JacobianFactor is the linearization of a factor at a point: one whitened
// Jacobian block per key plus the whitened right-hand side. It is produced
// fresh at every linearization and never mutated afterwards.
type JacobianFactor struct {
	keys   []Key
	blocks map[Key]*mat.Dense
	b      []float64
}

// NewJacobianFactor creates a linear factor from per-key blocks, aligned with
// keys, and the right-hand side b. Every block must have len(b) rows.
func NewJacobianFactor(keys []Key, blocks []*mat.Dense, b []float64) (*JacobianFactor, error) {
	if len(keys) != len(blocks) {
		return nil, fmt.Errorf("%d keys for %d blocks", len(keys), len(blocks))
	}
	bm := make(map[Key]*mat.Dense, len(keys))
	for i, A := range blocks {
		if r, _ := A.Dims(); r != len(b) {
			return nil, fmt.Errorf("%sblock %s(%dx...) b(%d)", dimErrMsg, keys[i], r, len(b))
		}
		if _, ok := bm[keys[i]]; ok {
			return nil, DuplicateKeyError{keys[i]}
		}
		bm[keys[i]] = A
	}
	return &JacobianFactor{append([]Key(nil), keys...), bm, b}, nil
}

// Keys returns the factor keys in construction order.
func (jf *JacobianFactor) Keys() []Key { return jf.keys }

// Rows returns the residual dimension.
func (jf *JacobianFactor) Rows() int { return len(jf.b) }

// Block returns the Jacobian block for the given key, or nil.
func (jf *JacobianFactor) Block(key Key) *mat.Dense { return jf.blocks[key] }

// B returns the right-hand side.
func (jf *JacobianFactor) B() []float64 { return jf.b }

// ErrorVector returns A*x - b for the given tangent assignment.
func (jf *JacobianFactor) ErrorVector(x VectorValues) ([]float64, error) {
	e := make([]float64, len(jf.b))
	for i := range e {
		e[i] = -jf.b[i]
	}
	for _, k := range jf.keys {
		xk, ok := x.At(k)
		if !ok {
			return nil, MissingKeyError{k}
		}
		A := jf.blocks[k]
		r, c := A.Dims()
		if c != len(xk) {
			return nil, fmt.Errorf("%sblock %s(...x%d) x(%d)", dimErrMsg, k, c, len(xk))
		}
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				e[i] += A.At(i, j) * xk[j]
			}
		}
	}
	return e, nil
}

// GaussianFactorGraph is a collection of JacobianFactors forming one sparse
// linear least-squares problem over the tangent spaces of the nonlinear
// variables.
type GaussianFactorGraph struct {
	factors []*JacobianFactor
}

// NewGaussianFactorGraph returns an empty linear graph.
func NewGaussianFactorGraph() *GaussianFactorGraph {
	return &GaussianFactorGraph{}
}

// Add appends a linear factor.
func (g *GaussianFactorGraph) Add(jf *JacobianFactor) {
	g.factors = append(g.factors, jf)
}

// Size returns the number of linear factors.
func (g *GaussianFactorGraph) Size() int { return len(g.factors) }

// Factor returns the i-th linear factor.
func (g *GaussianFactorGraph) Factor(i int) *JacobianFactor { return g.factors[i] }

// Keys returns the sorted union of all factor keys.
func (g *GaussianFactorGraph) Keys() []Key {
	seen := make(map[Key]bool)
	var keys []Key
	for _, jf := range g.factors {
		for _, k := range jf.keys {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return sortKeys(keys)
}

// columnDims returns the tangent dimension of every key, checking that all
// blocks for a key agree.
func (g *GaussianFactorGraph) columnDims() (map[Key]int, error) {
	dims := make(map[Key]int)
	for _, jf := range g.factors {
		for k, A := range jf.blocks {
			_, c := A.Dims()
			if prev, ok := dims[k]; ok && prev != c {
				return nil, fmt.Errorf("%sblocks for %s(...x%d) and (...x%d)", dimErrMsg, k, prev, c)
			}
			dims[k] = c
		}
	}
	return dims, nil
}

// Dense assembles the full system as a dense matrix A and right-hand side b,
// with columns ordered by ascending key. Returns the column ordering as well.
func (g *GaussianFactorGraph) Dense() (*mat.Dense, *mat.VecDense, []Key, error) {
	dims, err := g.columnDims()
	if err != nil {
		return nil, nil, nil, err
	}
	ordering := g.Keys()
	offsets := make(map[Key]int, len(ordering))
	var n int
	for _, k := range ordering {
		offsets[k] = n
		n += dims[k]
	}
	var m int
	for _, jf := range g.factors {
		m += jf.Rows()
	}
	if m == 0 || n == 0 {
		return nil, nil, nil, fmt.Errorf("cannot assemble an empty linear system")
	}
	A := mat.NewDense(m, n, nil)
	b := mat.NewVecDense(m, nil)
	row := 0
	for _, jf := range g.factors {
		for k, blk := range jf.blocks {
			r, c := blk.Dims()
			A.Slice(row, row+r, offsets[k], offsets[k]+c).(*mat.Dense).Copy(blk)
		}
		for i, bi := range jf.b {
			b.SetVec(row+i, bi)
		}
		row += jf.Rows()
	}
	return A, b, ordering, nil
}

// Solve computes the least-squares solution of the assembled system by QR
// factorization and splits it back into per-key tangent vectors. This is the
// reference implementation of the LinearSolver contract; iterative or sparse
// solvers plug in through the same interface.
func (g *GaussianFactorGraph) Solve() (VectorValues, error) {
	A, b, ordering, err := g.Dense()
	if err != nil {
		return VectorValues{}, err
	}
	var qr mat.QR
	qr.Factorize(A)
	_, n := A.Dims()
	x := mat.NewVecDense(n, nil)
	if err := qr.SolveVecTo(x, false, b); err != nil {
		return VectorValues{}, fmt.Errorf("linear solve: %w", err)
	}
	dims, _ := g.columnDims()
	out := NewVectorValues()
	offset := 0
	for _, k := range ordering {
		d := dims[k]
		vec := make([]float64, d)
		for i := 0; i < d; i++ {
			vec[i] = x.AtVec(offset + i)
		}
		out.Insert(k, vec)
		offset += d
	}
	return out, nil
}

// Error returns 0.5 * ||A*x - b||² over all factors.
func (g *GaussianFactorGraph) Error(x VectorValues) (float64, error) {
	var sum float64
	for _, jf := range g.factors {
		e, err := jf.ErrorVector(x)
		if err != nil {
			return 0, err
		}
		for _, ei := range e {
			sum += ei * ei
		}
	}
	return 0.5 * sum, nil
}

// LinearSolver is the contract the optimization loop expects from a
// linear-solve service: a pure function from a linearized system to a
// tangent-space correction. Initialize lets iterative implementations build
// preconditioners from the graph structure before the first solve.
type LinearSolver interface {
	Initialize(graph *FactorGraph, initial Values) error
	Solve(lin *GaussianFactorGraph) (VectorValues, error)
}

// DenseSolver is the built-in LinearSolver backed by dense QR factorization.
type DenseSolver struct{}

// Initialize implements the LinearSolver interface. It verifies that every
// key referenced by the graph is present in the initial values.
func (DenseSolver) Initialize(graph *FactorGraph, initial Values) error {
	for _, k := range graph.Keys() {
		if !initial.Exists(k) {
			return MissingKeyError{k}
		}
	}
	return nil
}

// Solve implements the LinearSolver interface.
func (DenseSolver) Solve(lin *GaussianFactorGraph) (VectorValues, error) {
	return lin.Solve()
}

// Preconditioner maps correction vectors expressed in a preconditioned
// coordinate system back into the graph's native tangent coordinates.
type Preconditioner interface {
	Unprecondition(y []float64) (VectorValues, error)
}

// ScalingPreconditioner is a diagonal preconditioner over a fixed key
// ordering: native coordinates are the preconditioned ones scaled per entry.
type ScalingPreconditioner struct {
	ordering []Key
	dims     []int
	scales   []float64
}

// NewScalingPreconditioner creates a preconditioner for the given ordering,
// per-key tangent dimensions and per-entry scales. The scales length must
// equal the summed dimensions.
func NewScalingPreconditioner(ordering []Key, dims []int, scales []float64) (*ScalingPreconditioner, error) {
	if len(ordering) != len(dims) {
		return nil, fmt.Errorf("%d keys for %d dimensions", len(ordering), len(dims))
	}
	var n int
	for _, d := range dims {
		n += d
	}
	if n != len(scales) {
		return nil, fmt.Errorf("%sscales(%d) total dims(%d)", dimErrMsg, len(scales), n)
	}
	return &ScalingPreconditioner{append([]Key(nil), ordering...), append([]int(nil), dims...), append([]float64(nil), scales...)}, nil
}

// Unprecondition implements the Preconditioner interface.
func (p *ScalingPreconditioner) Unprecondition(y []float64) (VectorValues, error) {
	if len(y) != len(p.scales) {
		return VectorValues{}, fmt.Errorf("%sy(%d) scales(%d)", dimErrMsg, len(y), len(p.scales))
	}
	out := NewVectorValues()
	offset := 0
	for i, k := range p.ordering {
		d := p.dims[i]
		vec := make([]float64, d)
		for j := 0; j < d; j++ {
			vec[j] = y[offset+j] * p.scales[offset+j]
		}
		out.Insert(k, vec)
		offset += d
	}
	return out, nil
}
