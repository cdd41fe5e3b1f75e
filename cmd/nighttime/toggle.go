package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/nighttime/internal/config"
	"github.com/goodtune/nighttime/internal/control"
	"github.com/spf13/cobra"
)

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle night mode on the running daemon",
	Long: `Flip night mode on the running daemon. The new mode holds until the next
window boundary and is what the daemon restores when it exits.`,
	Args: cobra.NoArgs,
	RunE: runToggle,
}

func init() {
	rootCmd.AddCommand(toggleCmd)
}

func runToggle(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
	defer cancel()

	mode, err := control.NewClient(clientAddr(cfg.Control)).Toggle(ctx)
	if err != nil {
		return fmt.Errorf("toggle failed: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Night mode is now %s\n", modeLabel(mode))
	return nil
}

// clientAddr returns the address a local client should dial for cfg.
func clientAddr(cfg config.ControlConfig) string {
	host := cfg.BindAddress
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
}

func modeLabel(on bool) string {
	if on {
		return color.New(color.FgMagenta, color.Bold).Sprint("on")
	}
	return color.New(color.FgYellow, color.Bold).Sprint("off")
}
