package numeric

import (
	"errors"
	"fmt"
	"math"
)

// PivotEpsilon is the threshold below which a pivot is treated as zero
// and the system reported singular.
const PivotEpsilon = 1e-12

// ErrSingularSystem indicates the assembled linear system has no unique
// solution (disconnected circuit or unconstrained mesh, typically).
var ErrSingularSystem = errors.New("numeric: singular system")

// Dense is a square row-major matrix used for MNA and global stiffness
// assembly. Entries accumulate via Add, matching the stamp pattern of
// circuit and element assembly.
type Dense struct {
	n    int
	data []float64
}

func NewDense(n int) *Dense {
	return &Dense{n: n, data: make([]float64, n*n)}
}

func (m *Dense) Size() int { return m.n }

func (m *Dense) At(i, j int) float64 {
	return m.data[i*m.n+j]
}

func (m *Dense) Set(i, j int, v float64) {
	m.data[i*m.n+j] = v
}

// Add accumulates v into entry (i, j). Out-of-range indices are ignored
// so ground-node stamps can be dropped without branching at every call
// site.
func (m *Dense) Add(i, j int, v float64) {
	if i < 0 || j < 0 || i >= m.n || j >= m.n {
		return
	}
	m.data[i*m.n+j] += v
}

// ZeroRowCol clears row and column i and places 1 on the diagonal.
// Used for eliminating constrained degrees of freedom.
func (m *Dense) ZeroRowCol(i int) {
	for j := 0; j < m.n; j++ {
		m.Set(i, j, 0)
		m.Set(j, i, 0)
	}
	m.Set(i, i, 1)
}

func (m *Dense) Clone() *Dense {
	c := NewDense(m.n)
	copy(c.data, m.data)
	return c
}

// Solve solves A·x = b in place by Gaussian elimination with partial
// pivoting. A and b are consumed; the solution is returned in a fresh
// slice. A pivot below the scaled PivotEpsilon returns
// ErrSingularSystem wrapped with the offending column.
func Solve(a *Dense, b []float64) ([]float64, error) {
	n := a.n
	if len(b) != n {
		return nil, fmt.Errorf("numeric: rhs length %d does not match system size %d", len(b), n)
	}

	// Scale the zero-pivot threshold to the matrix magnitude so
	// stiffness-scale systems (entries ~1e9) and admittance-scale
	// systems (entries ~1e-3) are judged alike.
	maxAbs := 0.0
	for _, v := range a.data {
		if mag := math.Abs(v); mag > maxAbs {
			maxAbs = mag
		}
	}
	threshold := PivotEpsilon * math.Max(1, maxAbs)

	for col := 0; col < n; col++ {
		// Partial pivot: largest magnitude in the column at or below
		// the diagonal.
		pivotRow := col
		pivotMag := math.Abs(a.At(col, col))
		for r := col + 1; r < n; r++ {
			if mag := math.Abs(a.At(r, col)); mag > pivotMag {
				pivotMag = mag
				pivotRow = r
			}
		}
		if pivotMag < threshold {
			return nil, fmt.Errorf("numeric: zero pivot in column %d: %w", col, ErrSingularSystem)
		}
		if pivotRow != col {
			for j := 0; j < n; j++ {
				a.data[col*n+j], a.data[pivotRow*n+j] = a.data[pivotRow*n+j], a.data[col*n+j]
			}
			b[col], b[pivotRow] = b[pivotRow], b[col]
		}

		pivot := a.At(col, col)
		for r := col + 1; r < n; r++ {
			factor := a.At(r, col) / pivot
			if factor == 0 {
				continue
			}
			for j := col; j < n; j++ {
				a.data[r*n+j] -= factor * a.data[col*n+j]
			}
			b[r] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= a.At(i, j) * x[j]
		}
		x[i] = sum / a.At(i, i)
	}
	return x, nil
}
