package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"ngrev/internal/config"
	"ngrev/internal/paths"
)

var (
	configForce  bool
	configFormat string
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage ngrev configuration",
	Long:  "View and manage ngrev configuration stored in .ngrev/config.{toml,yaml,json}",
}

var configInitCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default configuration",
	Long: `Write the default configuration to <dir>/.ngrev/config.toml.

Examples:
  ngrev config init
  ngrev config init ./demo --force`,
	Args: cobra.MaximumNArgs(1),
	Run:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show [dir]",
	Short: "Show the effective configuration",
	Long: `Display the configuration ngrev uses for a project directory, after
defaults and NGREV_* environment overrides are applied.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing configuration")
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (json, human)")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func dirArg(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return "."
}

func runConfigInit(cmd *cobra.Command, args []string) {
	root := dirArg(args)
	existing := filepath.Join(paths.ProjectSettingsDir(root), "config.toml")
	if _, err := os.Stat(existing); err == nil && !configForce {
		fmt.Fprintf(os.Stderr, "Configuration already exists at %s (use --force to overwrite)\n", existing)
		os.Exit(1)
	}

	path, err := config.DefaultConfig().Save(root)
	exitOnError("writing config", err)
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig(dirArg(args))
	exitOnError("loading config", err)

	if OutputFormat(configFormat) == FormatJSON {
		output, err := FormatResponse(cfg, FormatJSON)
		exitOnError("formatting output", err)
		fmt.Fprintln(cmd.OutOrStdout(), output)
		return
	}

	var buf bytes.Buffer
	exitOnError("formatting output", toml.NewEncoder(&buf).Encode(cfg))
	fmt.Fprint(cmd.OutOrStdout(), buf.String())
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "\n! %v\n", err)
	}
}
