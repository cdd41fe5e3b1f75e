package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/nighttime/internal/config"
	"github.com/goodtune/nighttime/internal/control"
	"github.com/goodtune/nighttime/internal/storage"
	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historySource string
	historySince  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List journalled night mode transitions",
	Long: `List the transitions nighttime has journalled, newest first. Each entry is a
scheduled boundary, a manual toggle or the restore performed on exit.`,
	Example: `  nighttime history --limit 10
  nighttime history --source manual --since 72h`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of transitions to show (0 for all)")
	historyCmd.Flags().StringVar(&historySource, "source", "", "Only show transitions from this source (schedule, manual, restore)")
	historyCmd.Flags().StringVar(&historySince, "since", "", "Only show transitions newer than this duration (e.g. 48h)")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	filter, err := historyFilter(historySource, historySince, historyLimit, time.Now())
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Storage.Type == "none" {
		return fmt.Errorf("journaling is disabled (storage.type is none)")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	// A running daemon holds the bolt file lock, so ask it first
	var transitions []storage.Transition
	if cfg.Control.Enabled {
		transitions, err = control.NewClient(clientAddr(cfg.Control)).History(ctx, filter)
		if err == nil {
			printHistory(cmd.OutOrStdout(), transitions)
			return nil
		}
		if !errors.Is(err, control.ErrUnavailable) {
			return fmt.Errorf("failed to list transitions: %w", err)
		}
	}

	transitions, err = listStoredTransitions(ctx, cfg.Storage, filter)
	if err != nil {
		return err
	}

	printHistory(cmd.OutOrStdout(), transitions)
	return nil
}

func listStoredTransitions(ctx context.Context, cfg config.StorageConfig, filter storage.TransitionFilter) ([]storage.Transition, error) {
	store, err := openStorage(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	if store == nil {
		return nil, nil
	}
	defer func() { _ = store.Close() }()

	transitions, err := store.Transitions().List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	return transitions, nil
}

func historyFilter(source, since string, limit int, now time.Time) (storage.TransitionFilter, error) {
	filter := storage.TransitionFilter{Limit: limit}
	if source != "" {
		s, err := storage.ParseSource(source)
		if err != nil {
			return filter, err
		}
		filter.Source = s
	}
	if since != "" {
		d, err := time.ParseDuration(since)
		if err != nil {
			return filter, fmt.Errorf("invalid --since %q: %w", since, err)
		}
		cutoff := now.Add(-d)
		filter.Since = &cutoff
	}
	return filter, nil
}

func printHistory(w io.Writer, transitions []storage.Transition) {
	if len(transitions) == 0 {
		fmt.Fprintln(w, "No transitions recorded")
		return
	}

	sourceColor := map[storage.Source]*color.Color{
		storage.SourceSchedule: color.New(color.FgCyan),
		storage.SourceManual:   color.New(color.FgYellow),
		storage.SourceRestore:  color.New(color.FgGreen),
	}

	for _, t := range transitions {
		c, ok := sourceColor[t.Source]
		if !ok {
			c = color.New(color.Reset)
		}
		fmt.Fprintf(w, "%s  %s  %s -> %s\n",
			t.Timestamp.Local().Format("2006-01-02 15:04:05"),
			c.Sprintf("%-8s", t.Source),
			modeLabel(t.From),
			modeLabel(t.To),
		)
	}
}
