package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/nighttime/internal/config"
	"github.com/spf13/cobra"
)

var editCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open the configuration file in an editor",
	Long: `Open the configuration file in $VISUAL or $EDITOR, falling back to the
desktop's default handler. The file is created with defaults first if needed.
The running daemon must be restarted to pick up changes.`,
	Args: cobra.NoArgs,
	RunE: runEdit,
}

func init() {
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	written, err := config.WriteDefault(configPath)
	if err != nil {
		return err
	}
	if written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", configPath)
	}

	name, editorArgs := editorCommand(os.Getenv("VISUAL"), os.Getenv("EDITOR"), runtime.GOOS)
	editor := exec.CommandContext(cmd.Context(), name, append(editorArgs, configPath)...)
	editor.Stdin = os.Stdin
	editor.Stdout = os.Stdout
	editor.Stderr = os.Stderr
	if err := editor.Run(); err != nil {
		return fmt.Errorf("failed to run %s: %w", name, err)
	}

	if _, err := config.Load(configPath); err != nil {
		_, _ = color.New(color.FgRed, color.Bold).Fprintf(cmd.ErrOrStderr(), "❌ Configuration is invalid: %v\n", err)
		return err
	}

	_, _ = color.New(color.FgYellow).Fprintln(cmd.OutOrStdout(), "Restart nighttime for the changes to take effect.")
	return nil
}

// editorCommand picks the program used to open the config file. VISUAL wins
// over EDITOR; either may carry arguments.
func editorCommand(visual, editor, goos string) (string, []string) {
	for _, candidate := range []string{visual, editor} {
		if fields := strings.Fields(candidate); len(fields) > 0 {
			return fields[0], fields[1:]
		}
	}
	if goos == "darwin" {
		return "open", []string{"-t", "-W"}
	}
	return "xdg-open", nil
}
