package main

import (
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"ngrev/internal/slogutil"
	"ngrev/internal/version"
)

var (
	// verbosity is the count of -v flags
	verbosity int
	quiet     bool
	envFile   string
)

var rootCmd = &cobra.Command{
	Use:   "ngrev",
	Short: "ngrev - navigate the structure of a component application",
	Long: `ngrev loads a component application (modules, components, directives,
pipes and providers) and lets you walk its graphs: the module tree, a single
module, a directive's dependencies, a component template, a provider chain.`,
	Version: version.Info(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// a missing .env is ignored
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				slogutil.NewLogger(cmd.ErrOrStderr(), slog.LevelWarn).Warn("Failed to load env file", "path", envFile, "error", err.Error())
			}
			return
		}
		_ = godotenv.Load()
	},
}

func init() {
	rootCmd.SetVersionTemplate("ngrev version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Silence subsystem logs")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Load environment overrides from this file instead of .env")
}

// cliLogLevel returns the level requested on the command line, or 0 when no
// flag was given so that config levels apply.
// Precedence: CLI flag > subsystem config > global config > info
func cliLogLevel() slog.Level {
	if verbosity == 0 && !quiet {
		return 0
	}
	return slogutil.LevelFromVerbosity(verbosity, quiet)
}
