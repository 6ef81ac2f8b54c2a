package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vango-dev/cellui/internal/demo"
	"github.com/vango-dev/cellui/pkg/live"
	"github.com/vango-dev/cellui/pkg/reactive"
)

func renderCmd() *cobra.Command {
	var (
		out     string
		timeout time.Duration
		delay   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the demo dashboard to HTML",
		Long: `Mount the demo dashboard into a detached document, wait for its
async tasks and print the resulting HTML.

Examples:
  cellui render
  cellui render --out=dashboard.html --timeout=5s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			html, err := live.Render(ctx, demo.App(demo.SlowQuotes(delay)), cfg.App.MountID,
				reactive.WithMode(cfg.Mode()),
				reactive.WithLogger(newLogger(cmd, cfg.Mode())),
			)
			if err != nil {
				if html == "" {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
			}

			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), html)
				return nil
			}
			if err := os.WriteFile(out, []byte(html+"\n"), 0644); err != nil {
				return err
			}
			success(cmd, "Wrote %s", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to file instead of stdout")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "Maximum time to wait for async tasks")
	cmd.Flags().DurationVar(&delay, "quote-delay", demo.DefaultQuoteDelay, "Latency of the demo quote source")

	return cmd
}
