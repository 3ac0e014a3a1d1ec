package gosam

import (
	"testing"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// numericalJacobian approximates the m x len(x) Jacobian of f at x by central
// differences.
func numericalJacobian(m int, f func(x []float64) []float64, x []float64) *mat.Dense {
	dst := mat.NewDense(m, len(x), nil)
	fd.Jacobian(dst, func(y, x []float64) {
		copy(y, f(x))
	}, x, &fd.JacobianSettings{Formula: fd.Central})
	return dst
}

// checkJacobian fails the test if analytic and numerical disagree beyond tol.
func checkJacobian(t *testing.T, name string, analytic mat.Matrix, numerical mat.Matrix, tol float64) {
	t.Helper()
	if !mat.EqualApprox(analytic, numerical, tol) {
		t.Fatalf("%s: analytic Jacobian\n%v\ndoes not match numerical\n%v",
			name, mat.Formatted(analytic), mat.Formatted(numerical))
	}
}
