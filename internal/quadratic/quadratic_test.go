package quadratic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cruciblehq/quadd/internal/protocol"
)

func TestSolve(t *testing.T) {
	tests := []struct {
		name  string
		c     protocol.Coefficients
		count protocol.RootCount
		roots []float64
	}{
		{"two roots", protocol.Coefficients{A: 1, B: -3, C: 2}, protocol.TwoRoots, []float64{1, 2}},
		{"two roots negative a", protocol.Coefficients{A: -1, B: 3, C: -2}, protocol.TwoRoots, []float64{1, 2}},
		{"double root", protocol.Coefficients{A: 1, B: -2, C: 1}, protocol.OneRoot, []float64{1}},
		{"no real roots", protocol.Coefficients{A: 1, B: 0, C: 1}, protocol.NoRoots, nil},
		{"zero c", protocol.Coefficients{A: 2, B: 4, C: 0}, protocol.TwoRoots, []float64{-2, 0}},
		{"linear", protocol.Coefficients{A: 0, B: 2, C: -4}, protocol.OneRoot, []float64{2}},
		{"constant", protocol.Coefficients{A: 0, B: 0, C: 5}, protocol.NoRoots, nil},
		{"identity", protocol.Coefficients{}, protocol.InfiniteRoots, nil},
		{"nan", protocol.Coefficients{A: math.NaN(), B: 1, C: 1}, protocol.NoRoots, nil},
		{"inf", protocol.Coefficients{A: 1, B: math.Inf(1), C: 1}, protocol.NoRoots, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Solve(tt.c)
			require.Equal(t, tt.count, got.Count)

			roots := got.Roots()
			require.Len(t, roots, len(tt.roots))
			for i := range roots {
				assert.InDelta(t, tt.roots[i], roots[i], 1e-12)
			}
		})
	}
}

func TestSolveRootsSatisfyEquation(t *testing.T) {
	inputs := []protocol.Coefficients{
		{A: 1, B: -3, C: 2},
		{A: 1, B: 1e8, C: 1},
		{A: 3.5, B: -7.25, C: 1.125},
		{A: -0.001, B: 10, C: 3},
		{A: 0, B: 7, C: 3},
	}

	for _, c := range inputs {
		sol := Solve(c)
		for _, x := range sol.Roots() {
			residual := Eval(c, x)
			scale := math.Max(1, math.Abs(c.B*x))
			assert.LessOrEqual(t, math.Abs(residual)/scale, 1e-9, "c=%+v x=%g", c, x)
		}
	}
}

func TestSolveOrdersRoots(t *testing.T) {
	sol := Solve(protocol.Coefficients{A: 1, B: 1, C: -6})
	require.Equal(t, protocol.TwoRoots, sol.Count)
	assert.Less(t, sol.X1, sol.X2)
}

func TestGrade(t *testing.T) {
	tests := []struct {
		name     string
		tc       protocol.TestCase
		expected protocol.Verdict
	}{
		{
			name: "passed",
			tc: protocol.TestCase{
				Coefficients: protocol.Coefficients{A: 1, B: -3, C: 2},
				Expected:     protocol.Solution{Count: protocol.TwoRoots, X1: 1, X2: 2},
			},
			expected: protocol.Passed,
		},
		{
			name: "passed within tolerance",
			tc: protocol.TestCase{
				Coefficients: protocol.Coefficients{A: 1, B: -2, C: 1},
				Expected:     protocol.Solution{Count: protocol.OneRoot, X1: 1.0000001},
			},
			expected: protocol.Passed,
		},
		{
			name: "wrong count",
			tc: protocol.TestCase{
				Coefficients: protocol.Coefficients{A: 1, B: 0, C: 1},
				Expected:     protocol.Solution{Count: protocol.TwoRoots, X1: -1, X2: 1},
			},
			expected: protocol.WrongRootCount,
		},
		{
			name: "wrong roots",
			tc: protocol.TestCase{
				Coefficients: protocol.Coefficients{A: 1, B: -3, C: 2},
				Expected:     protocol.Solution{Count: protocol.TwoRoots, X1: 1, X2: 3},
			},
			expected: protocol.WrongRoots,
		},
		{
			name: "infinite",
			tc: protocol.TestCase{
				Expected: protocol.Solution{Count: protocol.InfiniteRoots},
			},
			expected: protocol.Passed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := Grade(tt.tc)
			assert.Equal(t, tt.expected, fb.Verdict)
			assert.Equal(t, tt.tc.Expected, fb.Expected)
			assert.Equal(t, Solve(tt.tc.Coefficients), fb.Actual)
		})
	}
}

func TestClose(t *testing.T) {
	assert.True(t, Close(0, 1e-7))
	assert.True(t, Close(1e9, 1e9+1))
	assert.False(t, Close(1, 1.01))
}
