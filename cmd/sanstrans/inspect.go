package main

import (
	"fmt"
	"io"
	"math"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/frameio"
)

func newInspectCmd() *cobra.Command {
	var curve bool

	cmd := &cobra.Command{
		Use:   "inspect FILE",
		Short: "Summarise a frame or transmission file",
		Example: `  # Show pixel counts, binning and run properties of a frame
  sanstrans inspect EQSANS_1001.parquet

  # List the bins of a transmission curve
  sanstrans inspect --curve trans.parquet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if curve {
				c, err := frameio.ReadCurve(args[0])
				if err != nil {
					return err
				}

				return printCurve(cmd.OutOrStdout(), c)
			}

			f, center, err := frameio.ReadFrame(args[0])
			if err != nil {
				return err
			}

			return printFrame(cmd.OutOrStdout(), f, center)
		},
	}

	cmd.Flags().BoolVar(&curve, "curve", false, "Read FILE as a transmission curve")

	return cmd
}

func printFrame(w io.Writer, f *frame.Frame, center *frameio.Point) error {
	var monitors, masked int
	for _, p := range f.Pixels {
		switch {
		case p.Monitor:
			monitors++
		case p.Masked:
			masked++
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "instrument\t%s\n", f.Instrument.Name)
	fmt.Fprintf(tw, "pixels\t%d (%d monitors, %d masked)\n", f.Len(), monitors, masked)
	fmt.Fprintf(tw, "binning\t%d bins [%g, %g]\n", f.Binning.Len(), f.Binning.Min(), f.Binning.Max())
	fmt.Fprintf(tw, "distribution\t%t\n", f.Distribution)
	if center != nil {
		fmt.Fprintf(tw, "beam center\t(%g, %g)\n", center.X, center.Y)
	}

	for _, section := range []struct {
		title  string
		values map[string]float64
	}{
		{"run", f.Run},
		{"parameter", f.Instrument.Parameters},
	} {
		keys := make([]string, 0, len(section.values))
		for k := range section.values {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			fmt.Fprintf(tw, "%s\t%s = %g\n", section.title, k, section.values[k])
		}
	}

	return tw.Flush()
}

func printCurve(w io.Writer, c *frame.Curve) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "low\thigh\tT\tsigma\t")

	for i, v := range c.Values {
		sigma := math.Sqrt(math.Max(c.Variances[i], 0))
		fmt.Fprintf(tw, "%.3f\t%.3f\t%.5f\t%.5f\t\n", c.Binning.Edge(i), c.Binning.Edge(i+1), v, sigma)
	}

	return tw.Flush()
}
