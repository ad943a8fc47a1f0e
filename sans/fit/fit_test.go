package fit

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-sans/internal/registry"
	"github.com/cwbudde/algo-sans/internal/testutil"
	"github.com/cwbudde/algo-sans/sans/reduction"
)

func grid(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func apply(x []float64, f func(float64) float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = f(v)
	}
	return out
}

func TestPolynomialRecoversExactData(t *testing.T) {
	x := grid(12, 2, 0.5)

	tests := []struct {
		name  string
		order int
		f     func(float64) float64
		vars  func(float64) float64
	}{
		{"constant", 0, func(float64) float64 { return 0.7 }, func(float64) float64 { return 0.01 }},
		{"line", 1, func(x float64) float64 { return 0.9 - 0.05*x }, func(float64) float64 { return 0.01 }},
		{"quadratic", 2, func(x float64) float64 { return 1 + 2*x + 3*x*x }, func(x float64) float64 { return x }},
		{"unweighted", 2, func(x float64) float64 { return 1 - x*x }, func(float64) float64 { return 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := apply(x, tt.f)
			res, err := Polynomial{Order: tt.order}.Fit(x, y, apply(x, tt.vars))
			if err != nil {
				t.Fatalf("Fit: %v", err)
			}

			testutil.RequireSliceNearlyEqual(t, res.Values, y, 1e-9)
			testutil.RequireFinite(t, res.Variances)
			for i, v := range res.Variances {
				if v < 0 {
					t.Fatalf("variance[%d]=%g < 0", i, v)
				}
			}
		})
	}
}

func TestPolynomialWeightedVarianceShrinksWithMorePoints(t *testing.T) {
	few := grid(5, 0, 1)
	many := grid(50, 0, 4.0/49)

	fit := func(x []float64) float64 {
		y := apply(x, func(x float64) float64 { return 1 + x })
		v := apply(x, func(float64) float64 { return 0.04 })
		res, err := Linear().Fit(x, y, v)
		if err != nil {
			t.Fatalf("Fit: %v", err)
		}
		return res.Variances[0]
	}

	if a, b := fit(few), fit(many); !(b < a) {
		t.Fatalf("variance with 50 points (%g) should be below variance with 5 points (%g)", b, a)
	}
}

func TestPolynomialErrors(t *testing.T) {
	if _, err := (Polynomial{Order: 3}).Fit([]float64{1, 2, 3}, []float64{1, 2, 3}, []float64{1, 1, 1}); !errors.Is(err, ErrDegenerate) {
		t.Fatalf("too few points: got %v, want ErrDegenerate", err)
	}

	if _, err := (Polynomial{Order: 1}).Fit([]float64{2, 2, 2}, []float64{1, 2, 3}, []float64{1, 1, 1}); !errors.Is(err, ErrDegenerate) {
		t.Fatalf("equal abscissae: got %v, want ErrDegenerate", err)
	}

	if _, err := (Polynomial{Order: -1}).Fit([]float64{1}, []float64{1}, []float64{1}); !errors.Is(err, ErrInvalidOrder) {
		t.Fatalf("negative order: got %v, want ErrInvalidOrder", err)
	}

	if _, err := Linear().Fit([]float64{1, 2}, []float64{1}, []float64{1, 1}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("length mismatch: got %v, want ErrInvalidInput", err)
	}
}

func TestLogRecoversExponential(t *testing.T) {
	x := grid(20, 2.5, 0.25)
	y := apply(x, func(x float64) float64 { return math.Exp(0.2 - 0.1*x) })
	v := apply(y, func(y float64) float64 { return 1e-4 * y })

	res, err := Log{}.Fit(x, y, v)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, res.Values, y, 1e-9)
	testutil.RequireFinite(t, res.Variances)
}

func TestLogRejectsNonPositive(t *testing.T) {
	_, err := Log{}.Fit([]float64{1, 2, 3}, []float64{0.5, 0, 0.4}, []float64{1, 1, 1})
	if !errors.Is(err, ErrDegenerate) {
		t.Fatalf("got %v, want ErrDegenerate", err)
	}
}

func TestSpectral(t *testing.T) {
	x := grid(32, 1, 0.25)

	t.Run("ramp", func(t *testing.T) {
		y := apply(x, func(x float64) float64 { return 0.8 - 0.02*x })
		res, err := Spectral{Cutoff: 0.1}.Fit(x, y, make([]float64, len(x)))
		if err != nil {
			t.Fatalf("Fit: %v", err)
		}
		testutil.RequireSliceNearlyEqual(t, res.Values, y, 1e-9)
		testutil.RequireAllNearly(t, res.Variances, 0, 1e-12)
	})

	t.Run("full band is identity", func(t *testing.T) {
		y := apply(x, func(x float64) float64 { return 0.5 + 0.1*math.Sin(3*x) })
		res, err := Spectral{Cutoff: 1}.Fit(x, y, make([]float64, len(x)))
		if err != nil {
			t.Fatalf("Fit: %v", err)
		}
		testutil.RequireSliceNearlyEqual(t, res.Values, y, 1e-9)
	})

	t.Run("removes alternation", func(t *testing.T) {
		y := make([]float64, len(x))
		for i := range y {
			y[i] = 0.5
			if i%2 == 1 {
				y[i] += 0.01
			} else {
				y[i] -= 0.01
			}
		}
		y[0], y[len(y)-1] = 0.5, 0.5

		res, err := Spectral{Cutoff: 0.1}.Fit(x, y, make([]float64, len(x)))
		if err != nil {
			t.Fatalf("Fit: %v", err)
		}
		for i := 4; i < len(y)-4; i++ {
			if d := math.Abs(res.Values[i] - 0.5); d > 0.005 {
				t.Fatalf("value[%d]=%g not smoothed towards 0.5", i, res.Values[i])
			}
		}
		if !(res.Variances[0] > 0) {
			t.Fatalf("residual variance = %g, want > 0", res.Variances[0])
		}

		var mean, sq float64
		for i := range y {
			mean += y[i] - res.Values[i]
		}
		mean /= float64(len(y))
		for i := range y {
			d := y[i] - res.Values[i] - mean
			sq += d * d
		}
		testutil.RequireAllNearly(t, res.Variances, sq/float64(len(y)), 1e-12)
	})
}

func TestNewSpectralValidatesCutoff(t *testing.T) {
	for _, c := range []float64{0, -0.5, 1.5, math.NaN()} {
		if _, err := NewSpectral(c); !errors.Is(err, ErrInvalidCutoff) {
			t.Fatalf("NewSpectral(%g) succeeded", c)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]any
		want  string
		err   error
	}{
		{name: "default", want: "log"},
		{name: "linear", props: map[string]any{reduction.KeyFitMethod: "linear"}, want: "linear"},
		{
			name:  "polynomial order",
			props: map[string]any{reduction.KeyFitMethod: "polynomial", reduction.KeyPolynomialOrder: 3},
			want:  "polynomial(3)",
		},
		{name: "polynomial default", props: map[string]any{reduction.KeyFitMethod: "polynomial"}, want: "polynomial(2)"},
		{
			name:  "spectral",
			props: map[string]any{reduction.KeyFitMethod: "spectral", reduction.KeySmoothingCutoff: 0.25},
			want:  "spectral(0.25)",
		},
		{name: "unknown", props: map[string]any{reduction.KeyFitMethod: "spline"}, err: registry.ErrUnknown},
		{name: "wrong type", props: map[string]any{reduction.KeyPolynomialOrder: true}, err: reduction.ErrKeyType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := reduction.NewConfig()
			for k, v := range tt.props {
				if err := cfg.Set(k, v); err != nil {
					t.Fatalf("Set(%s): %v", k, err)
				}
			}

			f, err := Resolve(cfg, Methods())
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("got %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if f.Name() != tt.want {
				t.Fatalf("Name()=%q, want %q", f.Name(), tt.want)
			}
		})
	}
}
