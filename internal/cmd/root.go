package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	outputFormat string
	configPath   string
	verbose      bool
	quiet        bool
	logLevel     string
	logFile      string
)

func Execute(version, commit, date string) error {
	rootCmd := &cobra.Command{
		Use:   "fota",
		Short: "Firmware over-the-air update client",
		Long: `fota keeps device firmware current from a manifest server.

Poll the server with 'fota check', apply pending updates with 'fota update',
or leave the polling loop running with 'fota watch'.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config and --verbose/--quiet)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log to a rotated file instead of stderr")

	// Add subcommands
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newForceCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newCompletionCmd())

	// Register completion function for output flag
	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd.Execute()
}
