package binning

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-sans/internal/numeric"
)

// Errors returned by binning functions.
var (
	ErrTooFewEdges    = errors.New("binning: at least two edges required")
	ErrNotIncreasing  = errors.New("binning: edges must be strictly increasing")
	ErrInvalidStep    = errors.New("binning: step must be positive")
	ErrInvalidRange   = errors.New("binning: min must be less than max")
	ErrNotCovered     = errors.New("binning: source range does not cover target range")
	ErrOverlap        = errors.New("binning: domains overlap")
	ErrLengthMismatch = errors.New("binning: value length does not match bin count")
)

// edgeTolerance is the relative tolerance used when comparing range endpoints.
const edgeTolerance = 1e-9

// Binning is an immutable, strictly increasing sequence of bin edges.
type Binning struct {
	edges []float64
}

// New validates edges and returns a Binning holding a private copy.
func New(edges []float64) (Binning, error) {
	if len(edges) < 2 {
		return Binning{}, ErrTooFewEdges
	}

	for i := 1; i < len(edges); i++ {
		if !(edges[i] > edges[i-1]) {
			return Binning{}, fmt.Errorf("%w: edge %d (%g) after %g", ErrNotIncreasing, i, edges[i], edges[i-1])
		}
	}

	cp := make([]float64, len(edges))
	copy(cp, edges)

	return Binning{edges: cp}, nil
}

// MustNew is like New but panics on invalid edges. Intended for fixtures.
func MustNew(edges ...float64) Binning {
	b, err := New(edges)
	if err != nil {
		panic(err)
	}

	return b
}

// Regular builds edges min, min+step, ..., max. The final bin is narrower
// than step when (max-min) is not a multiple of step.
func Regular(min, step, max float64) (Binning, error) {
	if step <= 0 {
		return Binning{}, ErrInvalidStep
	}

	if !(min < max) {
		return Binning{}, fmt.Errorf("%w: [%g, %g]", ErrInvalidRange, min, max)
	}

	n := int(math.Ceil((max-min)/step - edgeTolerance))
	if n < 1 {
		n = 1
	}

	edges := make([]float64, 0, n+1)
	for i := 0; i < n; i++ {
		edges = append(edges, min+float64(i)*step)
	}
	edges = append(edges, max)

	return New(edges)
}

// Len returns the number of bins.
func (b Binning) Len() int {
	if len(b.edges) == 0 {
		return 0
	}

	return len(b.edges) - 1
}

// IsZero reports whether b is the zero value.
func (b Binning) IsZero() bool { return len(b.edges) == 0 }

// Edges returns a copy of the bin edges.
func (b Binning) Edges() []float64 {
	cp := make([]float64, len(b.edges))
	copy(cp, b.edges)

	return cp
}

// Edge returns edge i.
func (b Binning) Edge(i int) float64 { return b.edges[i] }

// Min returns the lowest edge.
func (b Binning) Min() float64 { return b.edges[0] }

// Max returns the highest edge.
func (b Binning) Max() float64 { return b.edges[len(b.edges)-1] }

// Width returns the width of bin i.
func (b Binning) Width(i int) float64 { return b.edges[i+1] - b.edges[i] }

// Centers returns the bin midpoints.
func (b Binning) Centers() []float64 {
	out := make([]float64, b.Len())
	for i := range out {
		out[i] = 0.5 * (b.edges[i] + b.edges[i+1])
	}

	return out
}

// Equal reports exact edge equality. Only equal binnings are compatible
// for bin-by-bin arithmetic.
func (b Binning) Equal(o Binning) bool {
	if len(b.edges) != len(o.edges) {
		return false
	}

	for i := range b.edges {
		if b.edges[i] != o.edges[i] {
			return false
		}
	}

	return true
}

// Covers reports whether b spans the full range of o.
func (b Binning) Covers(o Binning) bool {
	if b.IsZero() || o.IsZero() {
		return false
	}

	lo := b.Min() <= o.Min() || numeric.NearlyEqual(b.Min(), o.Min(), edgeTolerance)
	hi := b.Max() >= o.Max() || numeric.NearlyEqual(b.Max(), o.Max(), edgeTolerance)

	return lo && hi
}

// String formats the range and bin count.
func (b Binning) String() string {
	if b.IsZero() {
		return "binning[]"
	}

	return fmt.Sprintf("binning[%g, %g] (%d bins)", b.Min(), b.Max(), b.Len())
}

// Concat joins two binnings with disjoint domains, a before b. Contiguous
// domains share the boundary edge so the result has a.Len()+b.Len() bins.
// A gap adds one bridge bin; bridged reports that case.
func Concat(a, b Binning) (out Binning, bridged bool, err error) {
	if a.IsZero() || b.IsZero() {
		return Binning{}, false, ErrTooFewEdges
	}

	switch {
	case numeric.NearlyEqual(a.Max(), b.Min(), edgeTolerance):
		edges := make([]float64, 0, len(a.edges)+len(b.edges)-1)
		edges = append(edges, a.edges...)
		edges = append(edges, b.edges[1:]...)
		out, err = New(edges)

		return out, false, err
	case a.Max() < b.Min():
		edges := make([]float64, 0, len(a.edges)+len(b.edges))
		edges = append(edges, a.edges...)
		edges = append(edges, b.edges...)
		out, err = New(edges)

		return out, true, err
	default:
		return Binning{}, false, fmt.Errorf("%w: [%g, %g] and [%g, %g]", ErrOverlap, a.Min(), a.Max(), b.Min(), b.Max())
	}
}
