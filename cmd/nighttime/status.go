package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/nighttime/internal/config"
	"github.com/goodtune/nighttime/internal/control"
	"github.com/spf13/cobra"
)

var statusOffline bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the night mode status",
	Long: `Show the running daemon's view of the window, the display mode and the next
boundary. With --offline the window is evaluated from the configuration alone.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusOffline, "offline", false, "Compute the status from the configuration without contacting the daemon")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg.Debug = debugMode

	var status *control.StatusResponse
	if statusOffline {
		status, err = offlineStatus(cfg, time.Now())
	} else {
		ctx, cancel := context.WithTimeout(cmd.Context(), 20*time.Second)
		defer cancel()
		status, err = control.NewClient(clientAddr(cfg.Control)).Status(ctx)
	}
	if err != nil {
		return err
	}

	printStatus(cmd.OutOrStdout(), status, statusOffline)
	return nil
}

// offlineStatus evaluates the configured window at now. The display mode is
// unknown without the daemon.
func offlineStatus(cfg *config.Config, now time.Time) (*control.StatusResponse, error) {
	window, err := cfg.Window()
	if err != nil {
		return nil, err
	}
	next := window.NextBoundaryAfter(now)
	return &control.StatusResponse{
		Title:                cfg.Title,
		Window:               window.String(),
		Night:                window.Contains(now),
		NextBoundary:         next,
		UntilBoundarySeconds: int64(next.Sub(now) / time.Second),
		Debug:                cfg.Debug,
	}, nil
}

func printStatus(w io.Writer, status *control.StatusResponse, offline bool) {
	cyan := color.New(color.FgCyan, color.Bold)
	red := color.New(color.FgRed)

	_, _ = cyan.Fprintf(w, "%s nighttime\n", status.Title)
	fmt.Fprintf(w, "  window:        %s\n", status.Window)
	if status.Night {
		fmt.Fprintf(w, "  schedule:      %s\n", color.MagentaString("night"))
	} else {
		fmt.Fprintf(w, "  schedule:      %s\n", color.YellowString("day"))
	}

	switch {
	case offline:
	case status.Mode != nil:
		fmt.Fprintf(w, "  display:       %s\n", modeLabel(*status.Mode))
		fmt.Fprintf(w, "  restore mode:  %s\n", modeLabel(status.RestoreMode))
	default:
		_, _ = red.Fprintf(w, "  display:       unreadable (%s)\n", status.Error)
	}

	until := time.Duration(status.UntilBoundarySeconds) * time.Second
	fmt.Fprintf(w, "  next boundary: %s (in %s)\n", status.NextBoundary.Local().Format("Mon 15:04"), until)
	if status.Debug {
		fmt.Fprintln(w, "  debug:         true")
	}
}
