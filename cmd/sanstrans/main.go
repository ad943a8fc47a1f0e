// Command sanstrans computes zero-angle transmission corrections for SANS
// frames stored as parquet pixel tables.
//
// Usage:
//
//	sanstrans correct --input run.parquet --sample trans.parquet --empty empty.parquet --output out.parquet
//	sanstrans inspect run.parquet
//
// The reduction configuration is read from --config or SANS_REDUCTION_CONFIG;
// a .env file in the working directory is loaded first.
package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

const version = "0.1.0"

func main() {
	root := newRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, os.Kill),
	); err != nil {
		os.Exit(1)
	}
}
