// ABOUTME: cobra root command for the infparquet binary
// ABOUTME: Persistent flags feed the viper config and the global logger

package cli

import (
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/infparquet/infparquet/internal/logger"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	cfgFile   string
	logLevel  string
	logPretty bool

	cfg *Config
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "infparquet",
		Short: "Metadata generation and compression for columnar files",
		Long: `InfParquet turns columnar files into compact, queryable metadata.

It extracts per-column statistics into a three-level tree (column,
row group, file), compresses column chunks into verifiable archives,
and answers row group pruning queries from the metadata sidecar alone.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := LoadConfig(cfgFile)
			if err != nil {
				return err
			}
			cfg = loaded

			// Flags beat file and environment
			if cmd.Flags().Changed("log-level") {
				cfg.Log.Level = logLevel
			}
			if cmd.Flags().Changed("log-pretty") {
				cfg.Log.Pretty = logPretty
			}

			logger.InitGlobalLogger(logger.Config{
				Level:  cfg.Log.Level,
				Pretty: cfg.Log.Pretty,
			})

			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file (default ./infparquet.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&logPretty, "log-pretty", false, "Human-readable console logging")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewCompressCommand())
	rootCmd.AddCommand(NewInspectCommand())
	rootCmd.AddCommand(NewQueryCommand())
	rootCmd.AddCommand(NewVerifyCommand())
	rootCmd.AddCommand(NewServeCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)

			titleColor.Fprint(out, "InfParquet version: ")
			color.New(color.FgWhite).Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			color.New(color.FgWhite).Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			color.New(color.FgWhite).Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			color.New(color.FgWhite).Fprintln(out, runtime.Version())
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}
