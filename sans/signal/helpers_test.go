package signal

import (
	"testing"

	"github.com/cwbudde/algo-sans/sans/binning"
)

func mustEdges(t *testing.T, edges ...float64) binning.Binning {
	t.Helper()
	b, err := binning.New(edges)
	if err != nil {
		t.Fatal(err)
	}
	return b
}
