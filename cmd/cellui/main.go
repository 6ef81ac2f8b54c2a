package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/cellui/internal/config"
	"github.com/vango-dev/cellui/internal/errors"
	"github.com/vango-dev/cellui/pkg/reactive"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cellui",
		Short: "Fine-grained reactive UI runtime",
		Long: `cellui mounts components whose callbacks re-run only when the cells
they read change, and serves them live over WebSocket.

Commands serve and render run the bundled demo dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("dir", "C", ".", "Directory containing cellui.yaml")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug output")

	cmd.AddCommand(
		serveCmd(),
		renderCmd(),
		initCmd(),
		versionCmd(),
	)
	return cmd
}

// loadConfig reads cellui.yaml from the --dir flag, falling back to the
// defaults, and applies environment overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("dir")
	cfg, err := config.LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns a text logger on stderr. Development mode and
// --verbose enable debug output.
func newLogger(cmd *cobra.Command, mode reactive.Mode) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	level := slog.LevelInfo
	if verbose || mode == reactive.Development {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}

// success prints a success message.
func success(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", fmt.Sprintf(format, args...))
}
