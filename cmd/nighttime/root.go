package main

import (
	"fmt"
	"os"

	"github.com/goodtune/nighttime/internal/config"
	"github.com/spf13/cobra"
)

var (
	version    = "dev"
	configPath string
	debugMode  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nighttime",
	Short: "nighttime - force grayscale night mode on a daily schedule",
	Long: `nighttime switches the display into night mode (grayscale) when a daily
window starts and back out when it ends. Between boundaries it leaves the
display alone, so a manual toggle holds until the next boundary.`,
	Version: version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configPath == "" {
			configPath = config.DefaultPath(debugMode)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to the run command when no subcommand is provided
		return runDaemon(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default "+config.DefaultPath(false)+")")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Use the debug configuration file and report debug in status")
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
