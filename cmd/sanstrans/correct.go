package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-sans/sans/frame"
	"github.com/cwbudde/algo-sans/sans/frameio"
	"github.com/cwbudde/algo-sans/sans/reduction"
	"github.com/cwbudde/algo-sans/sans/signal"
	"github.com/cwbudde/algo-sans/sans/transmission"
	"github.com/cwbudde/algo-sans/sans/workspace"
)

type correctOptions struct {
	config            string
	dataDir           string
	input             string
	output            string
	sample            string
	empty             string
	radius            float64
	theta             bool
	dark              string
	useSampleDark     bool
	frameSkipping     bool
	fitFramesTogether bool
	beamX, beamY      float64
	normalisation     string
	fitMethod         string
	transmissionOut   string
	saveConfig        bool
}

func newCorrectCmd() *cobra.Command {
	opts := &correctOptions{}

	cmd := &cobra.Command{
		Use:   "correct",
		Short: "Compute the transmission and apply it to a frame",
		Long: `Computes the zero-angle transmission from a direct-beam run (--sample) and an
empty-beam run (--empty), divides it out of the frame given by --input and
writes the corrected frame to --output.

Settings not given as flags come from the reduction configuration file.`,
		Example: `  # Correct a single-frame run
  sanstrans correct --input EQSANS_1000 --sample EQSANS_1001 --empty EQSANS_1002 \
    --data-dir ./data --output corrected.parquet --normalisation Monitor

  # Frame skipping with theta dependence, bands from the run properties
  sanstrans correct --config reduction.yaml --input EQSANS_1000 \
    --sample EQSANS_1001 --empty EQSANS_1002 --frame-skipping --theta \
    --output corrected.parquet --transmission-out trans.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCorrect(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.config, "config", "", "Reduction configuration YAML (default $"+configEnv+")")
	f.StringVar(&opts.dataDir, "data-dir", "", "Directory for relative run names")
	f.StringVar(&opts.input, "input", "", "Frame to correct (required)")
	f.StringVar(&opts.output, "output", "", "Where to write the corrected frame (required)")
	f.StringVar(&opts.sample, "sample", "", "Direct-beam run with sample (required)")
	f.StringVar(&opts.empty, "empty", "", "Direct-beam run without sample (required)")
	f.Float64Var(&opts.radius, "radius", 3, "Direct-beam radius in pixels")
	f.BoolVar(&opts.theta, "theta", false, "Apply the theta-dependent correction")
	f.StringVar(&opts.dark, "dark", "", "Dark-current run")
	f.BoolVar(&opts.useSampleDark, "use-sample-dark", false, "Use the sample dark-current algorithm")
	f.BoolVar(&opts.frameSkipping, "frame-skipping", false, "Process the two frame-skipping bands separately (default from the run's "+transmission.FrameSkippingProperty+")")
	f.BoolVar(&opts.fitFramesTogether, "fit-frames-together", false, "Fit both bands as one curve")
	f.Float64Var(&opts.beamX, "beam-center-x", 0, "Beam centre x in metres (used when x and y > 0)")
	f.Float64Var(&opts.beamY, "beam-center-y", 0, "Beam centre y in metres (used when x and y > 0)")
	f.StringVar(&opts.normalisation, "normalisation", "", "Override "+reduction.KeyTransmissionNormalisation)
	f.StringVar(&opts.fitMethod, "fit", "", "Override "+reduction.KeyFitMethod)
	f.StringVar(&opts.transmissionOut, "transmission-out", "", "Write the fitted transmission curve here")
	f.BoolVar(&opts.saveConfig, "save-config", false, "Write the updated transmission cache back to the config file")

	for _, name := range []string{"input", "output", "sample", "empty"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func runCorrect(cmd *cobra.Command, opts *correctOptions) error {
	path := configPath(opts.config)

	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	overrides := map[string]string{
		reduction.KeyTransmissionNormalisation: opts.normalisation,
		reduction.KeyFitMethod:                 opts.fitMethod,
	}
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := cfg.Set(key, v); err != nil {
			return err
		}
	}

	store := workspace.NewMemoryStore()
	loaders := frameio.Loaders(opts.dataDir)

	p, err := transmission.NewPipeline(cfg, store, nil, loaders, transmission.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	var loadOpts frame.LoadOptions
	center := frame.Point{X: opts.beamX, Y: opts.beamY}
	if center.X > 0 && center.Y > 0 {
		loadOpts.BeamCenter = &center
	}

	loader := frameio.Loader{Dir: opts.dataDir}
	sample, msg, err := loader.Load(opts.input, loadOpts)
	if err != nil {
		return err
	}
	slog.Info("Loaded input frame", "detail", msg)

	if !cmd.Flags().Changed("frame-skipping") {
		if skipping, known := transmission.FrameSkipping(sample); known {
			opts.frameSkipping = skipping
			slog.Debug("Frame skipping from run", "property", transmission.FrameSkippingProperty, "value", skipping)
		}
	}

	res, err := p.ComputeAndApply(transmission.Request{
		Sample:     sample,
		SampleFile: loader.Path(opts.sample),
		EmptyFile:  loader.Path(opts.empty),
		BeamRadius: opts.radius,

		ThetaDependent: opts.theta,
		DarkCurrent: signal.DarkCurrent{
			Filename:             opts.dark,
			UseSampleDarkCurrent: opts.useSampleDark,
		},
		FrameSkipping:     opts.frameSkipping,
		FitFramesTogether: opts.fitFramesTogether,
		BeamCenter:        center,
	})
	if err != nil {
		return err
	}

	if err := frameio.WriteFrame(opts.output, res.Frame); err != nil {
		return err
	}
	slog.Info("Wrote corrected frame", "path", opts.output)

	if opts.transmissionOut != "" {
		c, err := workspace.Curve(store, res.TransmissionName)
		if err != nil {
			return err
		}

		if err := frameio.WriteCurve(opts.transmissionOut, c); err != nil {
			return err
		}
		slog.Info("Wrote transmission", "path", opts.transmissionOut, "bins", c.Binning.Len())
	}

	if opts.saveConfig {
		if path == "" {
			return fmt.Errorf("--save-config needs --config or $%s", configEnv)
		}

		if err := cfg.Save(path); err != nil {
			return err
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), res.Message)

	return nil
}
