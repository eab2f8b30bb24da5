package forecast

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math"
)

const defaultRidgeLambda = 0.1

// Ridge is a least-squares linear regressor with a small L2 penalty for
// numerical stability. Inference is a single dot product, so repeated
// predictions on the same row are identical.
type Ridge struct {
	Lambda  float64
	Weights []float64 // one per feature, intercept last
}

func NewRidge() *Ridge {
	return &Ridge{Lambda: defaultRidgeLambda}
}

// Fit solves the regularized normal equations over the given rows. The
// intercept column is not penalized.
func (r *Ridge) Fit(rows [][]float64, targets []float64) error {
	if len(rows) == 0 {
		return fmt.Errorf("fit: no training rows")
	}
	if len(rows) != len(targets) {
		return fmt.Errorf("fit: %d rows but %d targets", len(rows), len(targets))
	}

	// Augment with an intercept column of ones.
	dim := len(rows[0]) + 1
	a := make([][]float64, dim)
	for i := range a {
		a[i] = make([]float64, dim)
	}
	b := make([]float64, dim)

	for n, row := range rows {
		if len(row) != dim-1 {
			return fmt.Errorf("fit: row %d has %d features, want %d", n, len(row), dim-1)
		}
		aug := append(append(make([]float64, 0, dim), row...), 1.0)
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				a[i][j] += aug[i] * aug[j]
			}
			b[i] += aug[i] * targets[n]
		}
	}
	for i := 0; i < dim-1; i++ {
		a[i][i] += r.Lambda
	}

	weights, err := solve(a, b)
	if err != nil {
		return fmt.Errorf("fit: %w", err)
	}
	r.Weights = weights
	return nil
}

// Predict returns the fitted estimate for one feature row.
func (r *Ridge) Predict(row []float64) float64 {
	var sum float64
	for i, v := range row {
		sum += r.Weights[i] * v
	}
	return sum + r.Weights[len(r.Weights)-1]
}

// Encode serializes the regressor to an opaque blob. The format is
// implementation-defined and not portable across versions.
func (r *Ridge) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(r); err != nil {
		return nil, fmt.Errorf("encode regressor: %w", err)
	}
	return buf.Bytes(), nil
}

func DecodeRidge(blob []byte) (*Ridge, error) {
	var r Ridge
	if err := gob.NewDecoder(bytes.NewReader(blob)).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode regressor: %w", err)
	}
	return &r, nil
}

// solve performs Gaussian elimination with partial pivoting on ax = b.
// The inputs are modified in place.
func solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	for col := 0; col < n; col++ {
		pivot := col
		for row := col + 1; row < n; row++ {
			if math.Abs(a[row][col]) > math.Abs(a[pivot][col]) {
				pivot = row
			}
		}
		if math.Abs(a[pivot][col]) < 1e-12 {
			return nil, fmt.Errorf("singular design matrix at column %d", col)
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for row := col + 1; row < n; row++ {
			factor := a[row][col] / a[col][col]
			for k := col; k < n; k++ {
				a[row][k] -= factor * a[col][k]
			}
			b[row] -= factor * b[col]
		}
	}

	x := make([]float64, n)
	for row := n - 1; row >= 0; row-- {
		sum := b[row]
		for k := row + 1; k < n; k++ {
			sum -= a[row][k] * x[k]
		}
		x[row] = sum / a[row][row]
	}
	return x, nil
}
