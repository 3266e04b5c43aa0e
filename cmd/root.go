package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/teemow/calimport/internal/logging"
)

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
}

// newRootCmd builds the command tree. Each call returns fresh commands so
// tests can execute them independently.
func newRootCmd() *cobra.Command {
	var (
		envFile   string
		logLevel  string
		logFormat string
	)

	cmd := &cobra.Command{
		Use:   "calimport",
		Short: "Imports class schedules from CSV into Google Calendar",
		Long: `calimport turns CSV schedule exports into Google Calendar events.

It can run as:
  - A web application where users sign in with Google and pick a bundled
    schedule or upload their own CSV (serve)
  - A command-line importer using an existing Google token (import)`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadEnvFile(envFile); err != nil {
				return err
			}
			logging.Setup(
				stringFlagOrEnv(cmd, "log-level", "LOG_LEVEL", logLevel),
				stringFlagOrEnv(cmd, "log-format", "LOG_FORMAT", logFormat),
				os.Stderr,
			)
			return nil
		},
	}
	cmd.SetVersionTemplate(`{{printf "calimport version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file loaded at startup when it exists")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error. Can also use LOG_LEVEL env var.")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json. Can also use LOG_FORMAT env var.")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newImportCmd())
	cmd.AddCommand(newSchedulesCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// Execute is the main entry point for the CLI application
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// loadEnvFile loads path into the environment. Variables that are already
// set win over the file. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "calimport version %s\n", version)
		},
	}
}
