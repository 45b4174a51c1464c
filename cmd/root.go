// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repolens/internal/config"
)

// v holds the merged settings of config file, environment and flags.
var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "repolens",
	Short: "A CLI tool to analyze GitHub repositories for code quality issues.",
	Long: `repolens crawls a GitHub repository through the GitHub API and scans its
source files for lint, security and type-safety issues, then prints a
summary per file, rule and severity.

No clone is needed; a GitHub token is read from --token, GITHUB_TOKEN or
github.token in .repolens.yaml.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		return config.ReadFile(v, path)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if errors.Is(err, config.ErrMissingToken) {
			fmt.Fprintln(os.Stderr, "Create a token at https://github.com/settings/tokens with read access to repository contents.")
		}
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default is ./.repolens.yaml)")
	rootCmd.PersistentFlags().String("rules", "", "YAML file that disables rules or overrides their severity")
	_ = v.BindPFlag("rules_file", rootCmd.PersistentFlags().Lookup("rules"))
}

// newLogger discards everything unless --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags) // Default: discard all logs.
	if verbose {
		logger.SetOutput(os.Stderr) // If verbose, log to standard error.
	}
	return logger
}
