package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-sans/sans/reduction"
)

// configEnv names the environment variable holding the default config path.
const configEnv = "SANS_REDUCTION_CONFIG"

type rootOptions struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sanstrans",
		Short: "Zero-angle transmission correction for time-of-flight SANS data",
		Long: `sanstrans computes the wavelength-dependent zero-angle transmission of a
sample from a direct-beam run and an empty-beam run, and divides it out of
the sample's scattering data.

Frame-skipping acquisitions are processed per wavelength band and merged.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			slog.SetDefault(newLogger(cmd.ErrOrStderr(), opts.verbose))
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(newCorrectCmd())
	cmd.AddCommand(newInspectCmd())

	return cmd
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// configPath returns flag, or the environment default when flag is empty.
func configPath(flag string) string {
	if flag != "" {
		return flag
	}

	return os.Getenv(configEnv)
}

// loadConfig reads the reduction configuration at path, or returns an empty
// configuration when path is empty.
func loadConfig(path string) (*reduction.Config, error) {
	if path == "" {
		slog.Debug("No reduction configuration given, using defaults")
		return reduction.NewConfig(), nil
	}

	slog.Debug("Loading reduction configuration", "path", path)

	return reduction.Load(path)
}
