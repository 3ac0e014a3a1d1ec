package gosam

import (
	"fmt"
	"strings"
)

// FactorGraph is an ordered collection of factors over a shared set of
// variables. Order affects the structure of the assembled linear system but
// not its solution.
type FactorGraph struct {
	factors []Factor
}

// NewFactorGraph returns an empty graph.
func NewFactorGraph() *FactorGraph {
	return &FactorGraph{}
}

// Add appends a factor to the graph.
func (g *FactorGraph) Add(f Factor) {
	g.factors = append(g.factors, f)
}

// AddPrior appends a prior factor anchoring the given variable. Anchoring one
// variable fixes the gauge freedom of an otherwise purely relative graph.
func (g *FactorGraph) AddPrior(key Key, prior Value, noise NoiseModel) error {
	f, err := NewPriorFactor(key, prior, noise)
	if err != nil {
		return err
	}
	g.Add(f)
	return nil
}

// Size returns the number of factors.
func (g *FactorGraph) Size() int { return len(g.factors) }

// Factor returns the i-th factor.
func (g *FactorGraph) Factor(i int) Factor { return g.factors[i] }

// Keys returns the sorted union of all factor keys.
func (g *FactorGraph) Keys() []Key {
	seen := make(map[Key]bool)
	var keys []Key
	for _, f := range g.factors {
		for _, k := range f.Keys() {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return sortKeys(keys)
}

// Error returns the summed factor error at the given values.
func (g *FactorGraph) Error(v Values) (float64, error) {
	var total float64
	for i, f := range g.factors {
		e, err := f.Error(v)
		if err != nil {
			return 0, fmt.Errorf("factor %d: %w", i, err)
		}
		total += e
	}
	return total, nil
}

// Linearize evaluates every factor's residual and Jacobians at the given
// values, whitens them by the factor noise models and returns the resulting
// Gaussian factor graph. The linear system's variables are the tangent spaces
// of the original variables. Every key referenced by a factor must exist in
// the values.
func (g *FactorGraph) Linearize(v Values) (*GaussianFactorGraph, error) {
	lin := NewGaussianFactorGraph()
	for i, f := range g.factors {
		jf, err := f.Linearize(v)
		if err != nil {
			return nil, fmt.Errorf("factor %d: %w", i, err)
		}
		lin.Add(jf)
	}
	return lin, nil
}

func (g *FactorGraph) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "FactorGraph with %d factors:\n", len(g.factors))
	for i, f := range g.factors {
		fmt.Fprintf(&sb, "  %d: %v over %v\n", i, f.Noise(), f.Keys())
	}
	return sb.String()
}
