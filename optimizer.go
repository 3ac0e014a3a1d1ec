package gosam

import (
	"fmt"
	"math"
)

// OptimizerState tracks the lifecycle of an optimization driver.
type OptimizerState uint8

const (
	// StateConstructed means the graph and initial values are loaded.
	StateConstructed OptimizerState = iota + 1
	// StateInitialized means the linear solver has performed its setup.
	StateInitialized
	// StateIterating means at least one correction has been applied.
	StateIterating
	// StateConverged means the stopping criterion has been met.
	StateConverged
)

// PoseSLAMOptimizer owns the current estimate of a pose-graph problem and
// applies tangent-space corrections produced by an external linear solver.
// Construction loads the problem from a dataset, anchors the gauge freedom
// with a unit-noise prior on the first variable and hands the graph to the
// solver for its own setup. Termination is driven by the solver's convergence
// criterion: this driver's contract is solely "accept a correction, apply it,
// return the new state".
type PoseSLAMOptimizer struct {
	graph   *FactorGraph
	theta   Values
	noise   NoiseModel
	solver  LinearSolver
	precond Preconditioner
	state   OptimizerState
}

// NewPoseSLAMOptimizer loads the named dataset, anchors the first variable
// and initializes the solver.
func NewPoseSLAMOptimizer(loader DatasetLoader, name string, solver LinearSolver) (*PoseSLAMOptimizer, error) {
	graph, θ, noise, err := loader.Load(name)
	if err != nil {
		return nil, fmt.Errorf("load dataset %q: %w", name, err)
	}
	keys := θ.Keys()
	if len(keys) == 0 {
		return nil, fmt.Errorf("dataset %q has no variables", name)
	}
	anchor := keys[0]
	prior, err := θ.At(anchor)
	if err != nil {
		return nil, err
	}
	if err := graph.AddPrior(anchor, prior, NewUnitNoise(prior.Dim())); err != nil {
		return nil, err
	}
	o := &PoseSLAMOptimizer{graph: graph, theta: θ, noise: noise, solver: solver, state: StateConstructed}
	if err := solver.Initialize(graph, θ); err != nil {
		return nil, fmt.Errorf("initialize solver: %w", err)
	}
	o.state = StateInitialized
	return o, nil
}

// Graph returns the factor graph, including the anchoring prior.
func (o *PoseSLAMOptimizer) Graph() *FactorGraph { return o.graph }

// Values returns the current estimate.
func (o *PoseSLAMOptimizer) Values() Values { return o.theta }

// DefaultNoise returns the dataset's default noise model, if any.
func (o *PoseSLAMOptimizer) DefaultNoise() NoiseModel { return o.noise }

// State returns the current lifecycle state.
func (o *PoseSLAMOptimizer) State() OptimizerState { return o.state }

// SetPreconditioner installs the coordinate mapping used by
// UpdatePreconditioned.
func (o *PoseSLAMOptimizer) SetPreconditioner(p Preconditioner) { o.precond = p }

// Error returns the graph error at the current estimate.
func (o *PoseSLAMOptimizer) Error() (float64, error) {
	return o.graph.Error(o.theta)
}

// Linearize produces the linear system at the current estimate for the
// external solver.
func (o *PoseSLAMOptimizer) Linearize() (*GaussianFactorGraph, error) {
	return o.graph.Linearize(o.theta)
}

// Update applies a correction expressed in the graph's native tangent
// coordinates, retracting every affected variable.
func (o *PoseSLAMOptimizer) Update(delta VectorValues) error {
	θ, err := o.theta.Retract(delta)
	if err != nil {
		return err
	}
	o.theta = θ
	o.state = StateIterating
	return nil
}

// UpdatePreconditioned applies a correction expressed in the preconditioner's
// coordinate system, mapping it back to native coordinates first. This is a
// distinct entry point because the preconditioned coordinates are not the
// graph's tangent coordinates.
func (o *PoseSLAMOptimizer) UpdatePreconditioned(y []float64) error {
	if o.precond == nil {
		return fmt.Errorf("no preconditioner installed")
	}
	delta, err := o.precond.Unprecondition(y)
	if err != nil {
		return err
	}
	return o.Update(delta)
}

// Iterate runs one full linearize-solve-retract cycle and returns the error
// before the update and the norm of the applied correction.
func (o *PoseSLAMOptimizer) Iterate() (errBefore, deltaNorm float64, err error) {
	errBefore, err = o.Error()
	if err != nil {
		return 0, 0, err
	}
	lin, err := o.Linearize()
	if err != nil {
		return 0, 0, err
	}
	delta, err := o.solver.Solve(lin)
	if err != nil {
		return 0, 0, err
	}
	if err = o.Update(delta); err != nil {
		return 0, 0, err
	}
	return errBefore, delta.Norm(), nil
}

// IterationEstimate is the per-iteration output of an optimization run.
type IterationEstimate struct {
	Iteration int
	Error     float64 // Graph error after the update
	DeltaNorm float64 // Norm of the applied correction
}

// GaussNewtonParams bound an optimization run. Long-running optimization is
// always bounded externally, by iteration count or error thresholds.
type GaussNewtonParams struct {
	MaxIterations    int
	RelativeErrorTol float64
	AbsoluteErrorTol float64
}

// DefaultGaussNewtonParams returns the usual stopping thresholds.
func DefaultGaussNewtonParams() GaussNewtonParams {
	return GaussNewtonParams{MaxIterations: 100, RelativeErrorTol: 1e-5, AbsoluteErrorTol: 1e-9}
}

// GaussNewtonOptimizer iterates linearize-solve-retract on a factor graph
// until the error decrease falls below the configured thresholds.
type GaussNewtonOptimizer struct {
	graph    *FactorGraph
	values   Values
	solver   LinearSolver
	params   GaussNewtonParams
	exporter Exporter
}

// NewGaussNewtonOptimizer creates an optimizer over the given graph and
// initial values.
func NewGaussNewtonOptimizer(graph *FactorGraph, initial Values, solver LinearSolver, params GaussNewtonParams) (*GaussNewtonOptimizer, error) {
	if err := solver.Initialize(graph, initial); err != nil {
		return nil, fmt.Errorf("initialize solver: %w", err)
	}
	return &GaussNewtonOptimizer{graph: graph, values: initial, solver: solver, params: params}, nil
}

// SetExporter installs a per-iteration trace writer.
func (o *GaussNewtonOptimizer) SetExporter(e Exporter) { o.exporter = e }

// Values returns the current estimate.
func (o *GaussNewtonOptimizer) Values() Values { return o.values }

// checkConvergence mirrors the usual absolute/relative error-decrease test.
func (p GaussNewtonParams) checkConvergence(errBefore, errAfter float64) bool {
	decrease := errBefore - errAfter
	if decrease < 0 {
		decrease = -decrease
	}
	return decrease <= p.AbsoluteErrorTol || decrease <= p.RelativeErrorTol*errBefore
}

// Optimize runs the loop and returns the final estimate with the recorded
// per-iteration trace. Failing to converge within MaxIterations is not an
// error: the caller inspects the trace and decides.
func (o *GaussNewtonOptimizer) Optimize() (Values, []IterationEstimate, error) {
	trace := make([]IterationEstimate, 0, o.params.MaxIterations)
	errBefore, err := o.graph.Error(o.values)
	if err != nil {
		return Values{}, nil, err
	}
	for k := 1; k <= o.params.MaxIterations; k++ {
		lin, err := o.graph.Linearize(o.values)
		if err != nil {
			return Values{}, nil, err
		}
		delta, err := o.solver.Solve(lin)
		if err != nil {
			return Values{}, nil, err
		}
		θ, err := o.values.Retract(delta)
		if err != nil {
			return Values{}, nil, err
		}
		o.values = θ
		errAfter, err := o.graph.Error(o.values)
		if err != nil {
			return Values{}, nil, err
		}
		est := IterationEstimate{Iteration: k, Error: errAfter, DeltaNorm: delta.Norm()}
		trace = append(trace, est)
		if o.exporter != nil {
			if err := o.exporter.Write(est); err != nil {
				return Values{}, nil, err
			}
		}
		if o.params.checkConvergence(errBefore, errAfter) || math.IsNaN(errAfter) {
			break
		}
		errBefore = errAfter
	}
	return o.values, trace, nil
}
