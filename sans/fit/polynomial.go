package fit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Polynomial is a weighted least-squares polynomial fit.
type Polynomial struct {
	Order int
}

// Linear returns a first-order polynomial fit.
func Linear() Polynomial { return Polynomial{Order: 1} }

// Name implements Fitter.
func (p Polynomial) Name() string {
	if p.Order == 1 {
		return "linear"
	}

	return fmt.Sprintf("polynomial(%d)", p.Order)
}

// Fit implements Fitter.
func (p Polynomial) Fit(x, y, variances []float64) (Result, error) {
	if p.Order < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrInvalidOrder, p.Order)
	}

	if err := checkInput(x, y, variances, p.Order+1); err != nil {
		return Result{}, err
	}

	return leastSquares(x, y, variances, p.Order)
}

// leastSquares fits a polynomial of the given order. Abscissae are mapped to
// [-1, 1] to keep the design matrix well conditioned. When every variance is
// positive the rows are weighted by 1/sigma and the covariance is taken as
// is; otherwise the fit is unweighted and the covariance is scaled by the
// residual variance.
func leastSquares(x, y, variances []float64, order int) (Result, error) {
	n := len(x)
	cols := order + 1

	lo, hi := x[0], x[0]
	for _, v := range x {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	mid, half := 0.5*(lo+hi), 0.5*(hi-lo)
	if half == 0 {
		if order > 0 {
			return Result{}, fmt.Errorf("%w: all abscissae equal", ErrDegenerate)
		}
		half = 1
	}

	weighted := true
	for _, v := range variances {
		if !(v > 0) {
			weighted = false
			break
		}
	}

	design := mat.NewDense(n, cols, nil)
	A := mat.NewDense(n, cols, nil)
	b := mat.NewVecDense(n, nil)

	for i := 0; i < n; i++ {
		w := 1.0
		if weighted {
			w = 1 / math.Sqrt(variances[i])
		}

		t := (x[i] - mid) / half
		pow := 1.0
		for j := 0; j < cols; j++ {
			design.Set(i, j, pow)
			A.Set(i, j, w*pow)
			pow *= t
		}

		b.SetVec(i, w*y[i])
	}

	var qr mat.QR
	qr.Factorize(A)

	var params mat.VecDense
	if err := qr.SolveVecTo(&params, false, b); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var normal mat.Dense
	normal.Mul(A.T(), A)

	var cov mat.Dense
	if err := cov.Inverse(&normal); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSingular, err)
	}

	var fitted mat.VecDense
	fitted.MulVec(design, &params)

	values := make([]float64, n)
	for i := range values {
		values[i] = fitted.AtVec(i)
	}

	scale := 1.0
	if !weighted {
		scale = 0
		if dof := n - cols; dof > 0 {
			var ssr float64
			for i := range values {
				r := y[i] - values[i]
				ssr += r * r
			}
			scale = ssr / float64(dof)
		}
	}

	out := make([]float64, n)
	row := mat.NewVecDense(cols, nil)
	var tmp mat.VecDense
	for i := 0; i < n; i++ {
		for j := 0; j < cols; j++ {
			row.SetVec(j, design.At(i, j))
		}
		tmp.MulVec(&cov, row)
		out[i] = scale * mat.Dot(row, &tmp)
	}

	return Result{Values: values, Variances: out}, nil
}
