package gosam

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// InequalityConstraint is a scalar factor interpreted as the constraint
// error(x) <= 0, carrying the key of its dual variable (Lagrange
// multiplier). The dual appears in a dual assignment only while the
// constraint is active.
type InequalityConstraint interface {
	Factor
	DualKey() Key
}

// LinearInequality is the linearization of an inequality constraint: a
// Jacobian factor interpreted as A*x <= b, tagged with the dual key of its
// nonlinear source.
type LinearInequality struct {
	Jacobian *JacobianFactor
	Dual     Key
}

// InequalityFactorGraph collects inequality constraints over a shared set of
// variables.
type InequalityFactorGraph struct {
	factors []Factor
}

// NewInequalityFactorGraph returns an empty graph.
func NewInequalityFactorGraph() *InequalityFactorGraph {
	return &InequalityFactorGraph{}
}

// Add appends a factor. The factor must implement InequalityConstraint;
// anything else is reported at linearization and checking time, never
// silently treated as unconstrained.
func (g *InequalityFactorGraph) Add(f Factor) {
	g.factors = append(g.factors, f)
}

// Size returns the number of constraints.
func (g *InequalityFactorGraph) Size() int { return len(g.factors) }

// constraint asserts the i-th factor is an inequality constraint.
func (g *InequalityFactorGraph) constraint(i int) (InequalityConstraint, error) {
	c, ok := g.factors[i].(InequalityConstraint)
	if !ok {
		return nil, TypeMismatchError{
			Key:      g.factors[i].Keys()[0],
			Expected: "InequalityConstraint",
			Got:      fmt.Sprintf("%T", g.factors[i]),
		}
	}
	return c, nil
}

// Linearize linearizes every constraint at the given values into a linear
// inequality system carrying the same dual keys.
func (g *InequalityFactorGraph) Linearize(v Values) ([]LinearInequality, error) {
	out := make([]LinearInequality, 0, len(g.factors))
	for i := range g.factors {
		c, err := g.constraint(i)
		if err != nil {
			return nil, err
		}
		jf, err := c.Linearize(v)
		if err != nil {
			return nil, fmt.Errorf("constraint %d: %w", i, err)
		}
		out = append(out, LinearInequality{jf, c.DualKey()})
	}
	return out, nil
}

// CheckFeasibilityAndComplementarity verifies the KKT conditions of a
// candidate primal/dual solution within tol:
//
//  1. Primal feasibility: every constraint error must be <= tol.
//  2. Complementary slackness: a constraint whose dual key is present in
//     duals is active and must be binding, |error| <= tol. A constraint whose
//     dual key is absent is inactive and trivially satisfies complementarity.
//
// The result is a single boolean; callers needing to know which constraint
// failed must re-scan. Errors are reserved for structural problems such as a
// missing variable.
func (g *InequalityFactorGraph) CheckFeasibilityAndComplementarity(v Values, duals VectorValues, tol float64) (bool, error) {
	for i := range g.factors {
		c, err := g.constraint(i)
		if err != nil {
			return false, err
		}
		e, err := c.UnwhitenedError(v)
		if err != nil {
			return false, err
		}
		if e[0] > tol {
			return false, nil
		}
		if !duals.Exists(c.DualKey()) {
			// Inactive constraint.
			continue
		}
		if math.Abs(e[0]) > tol {
			return false, nil
		}
	}
	return true, nil
}

// LinearBoundConstraint is the inequality a·ξ - c <= 0 on the tangent-space
// coordinates ξ of a single Euclidean variable (a point), measured from the
// origin of its type.
type LinearBoundConstraint struct {
	key     Key
	a       []float64
	c       float64
	dualKey Key
	noise   NoiseModel
}

// NewLinearBoundConstraint creates the constraint a·x <= c on the variable
// stored under key, with the given dual key.
func NewLinearBoundConstraint(key Key, a []float64, c float64, dualKey Key) *LinearBoundConstraint {
	return &LinearBoundConstraint{key, append([]float64(nil), a...), c, dualKey, NewUnitNoise(1)}
}

// Keys implements the Factor interface.
func (f *LinearBoundConstraint) Keys() []Key { return []Key{f.key} }

// Dim implements the Factor interface.
func (f *LinearBoundConstraint) Dim() int { return 1 }

// Noise implements the Factor interface.
func (f *LinearBoundConstraint) Noise() NoiseModel { return f.noise }

// DualKey implements the InequalityConstraint interface.
func (f *LinearBoundConstraint) DualKey() Key { return f.dualKey }

// coordinates extracts the Euclidean coordinates of the constrained variable.
func (f *LinearBoundConstraint) coordinates(v Values) ([]float64, error) {
	val, err := v.At(f.key)
	if err != nil {
		return nil, err
	}
	var x []float64
	switch p := val.(type) {
	case Point2:
		x = p.Vector()
	case Point3:
		x = p.Vector()
	default:
		return nil, TypeMismatchError{f.key, "Point2 or Point3", fmt.Sprintf("%T", val)}
	}
	if len(x) != len(f.a) {
		return nil, fmt.Errorf("%sconstraint(%d) variable(%d)", dimErrMsg, len(f.a), len(x))
	}
	return x, nil
}

// UnwhitenedError implements the Factor interface: a·x - c.
func (f *LinearBoundConstraint) UnwhitenedError(v Values) ([]float64, error) {
	x, err := f.coordinates(v)
	if err != nil {
		return nil, err
	}
	var dot float64
	for i := range x {
		dot += f.a[i] * x[i]
	}
	return []float64{dot - f.c}, nil
}

// Error implements the Factor interface.
func (f *LinearBoundConstraint) Error(v Values) (float64, error) { return factorError(f, v) }

// Linearize implements the Factor interface. The constraint is already
// linear, so the Jacobian is the constant row a.
func (f *LinearBoundConstraint) Linearize(v Values) (*JacobianFactor, error) {
	e, err := f.UnwhitenedError(v)
	if err != nil {
		return nil, err
	}
	A := mat.NewDense(1, len(f.a), append([]float64(nil), f.a...))
	return linearizeFactor([]Key{f.key}, []*mat.Dense{A}, e, f.noise)
}
