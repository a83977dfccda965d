// Package quadratic solves and grades quadratic equations.
//
// Everything here is pure; the package holds no state and is safe to call from
// any goroutine. It is the code quadd treats as untrusted and runs only inside
// worker processes.
package quadratic

import (
	"math"

	"github.com/cruciblehq/quadd/internal/protocol"
)

const (

	// Magnitude below which a coefficient or discriminant counts as zero.
	Epsilon = 1e-9

	// Tolerance used when comparing a computed root with an expected one.
	Tolerance = 1e-6
)

// Solves a·x² + b·x + c = 0.
//
// a == 0 degrades to the linear equation b·x + c = 0, which has one root, no
// roots, or (when b == c == 0) infinitely many. Two roots are returned in
// ascending order. Non-finite coefficients yield no roots.
func Solve(c protocol.Coefficients) protocol.Solution {
	a, b, k := c.A, c.B, c.C

	if !finite(a) || !finite(b) || !finite(k) {
		return protocol.Solution{Count: protocol.NoRoots}
	}

	if isZero(a) {
		return solveLinear(b, k)
	}

	d := b*b - 4*a*k
	switch {
	case isZero(d):
		return protocol.Solution{Count: protocol.OneRoot, X1: -b / (2 * a)}
	case d < 0:
		return protocol.Solution{Count: protocol.NoRoots}
	}

	// Avoids cancellation between -b and sqrt(d) when |b| is close to sqrt(d).
	q := -0.5 * (b + math.Copysign(math.Sqrt(d), b))
	x1, x2 := q/a, k/q
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	return protocol.Solution{Count: protocol.TwoRoots, X1: x1, X2: x2}
}

func solveLinear(b, c float64) protocol.Solution {
	if isZero(b) {
		if isZero(c) {
			return protocol.Solution{Count: protocol.InfiniteRoots}
		}
		return protocol.Solution{Count: protocol.NoRoots}
	}
	return protocol.Solution{Count: protocol.OneRoot, X1: -c / b}
}

// Solves the test case's equation and compares the result with the expected
// solution.
func Grade(tc protocol.TestCase) protocol.Feedback {
	actual := Solve(tc.Coefficients)
	fb := protocol.Feedback{
		Verdict:  protocol.Passed,
		Expected: tc.Expected,
		Actual:   actual,
	}

	if actual.Count != tc.Expected.Count {
		fb.Verdict = protocol.WrongRootCount
		return fb
	}

	want, got := tc.Expected.Roots(), actual.Roots()
	for i := range want {
		if !Close(want[i], got[i]) {
			fb.Verdict = protocol.WrongRoots
			break
		}
	}
	return fb
}

// Returns true if x and y agree within [Tolerance], absolutely or relative to
// the larger magnitude.
func Close(x, y float64) bool {
	diff := math.Abs(x - y)
	if diff <= Tolerance {
		return true
	}
	return diff <= Tolerance*math.Max(math.Abs(x), math.Abs(y))
}

// Evaluates a·x² + b·x + c.
func Eval(c protocol.Coefficients, x float64) float64 {
	return (c.A*x+c.B)*x + c.C
}

func isZero(x float64) bool {
	return math.Abs(x) < Epsilon
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
