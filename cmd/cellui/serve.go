package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/vango-dev/cellui/internal/config"
	"github.com/vango-dev/cellui/internal/demo"
	"github.com/vango-dev/cellui/internal/errors"
	"github.com/vango-dev/cellui/pkg/live"
	"github.com/vango-dev/cellui/pkg/middleware"
)

func serveCmd() *cobra.Command {
	var (
		addr  string
		mode  string
		trace bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the demo dashboard live",
		Long: `Serve the demo dashboard over HTTP and WebSocket.

Every browser connection gets its own runtime. Settings come from
cellui.yaml, then CELLUI_* environment variables, then flags.

Examples:
  cellui serve
  cellui serve --addr=0.0.0.0:8080 --mode=development
  CELLUI_METRICS=false cellui serve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if mode != "" {
				cfg.Runtime.Mode = mode
			}
			if err := cfg.Validate(); err != nil {
				for _, e := range multierr.Errors(err) {
					errors.Print(cmd.ErrOrStderr(), e)
				}
				return fmt.Errorf("invalid configuration")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, cfg, trace)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default from cellui.yaml)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Runtime mode: development or release")
	cmd.Flags().BoolVar(&trace, "trace", false, "Record an OpenTelemetry span per turn")

	return cmd
}

// liveConfig maps the project configuration onto the server configuration.
func liveConfig(cfg *config.Config) *live.Config {
	return &live.Config{
		Addr:           cfg.Server.Addr,
		Title:          cfg.App.Name,
		MountID:        cfg.App.MountID,
		Mode:           cfg.Mode(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxMessageSize: cfg.Server.MaxMessageSize,
		InboxSize:      cfg.Server.InboxSize,
		MetricsPath:    cfg.Metrics.Path,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, cfg *config.Config, trace bool) error {
	logger := newLogger(cmd, cfg.Mode())
	opts := []live.Option{live.WithLogger(logger)}

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		m := middleware.NewMetrics(
			middleware.WithRegistry(reg),
			middleware.WithNamespace(cfg.Metrics.Namespace),
		)
		opts = append(opts, live.WithMetrics(m, reg))
	}
	if trace {
		opts = append(opts, live.WithTracing(middleware.WithTracerName("cellui")))
	}

	srv := live.New(demo.App(nil), liveConfig(cfg), opts...)

	success(cmd, "Serving %s on http://%s (%s mode)", cfg.App.Name, cfg.Server.Addr, cfg.Mode())
	if cfg.Metrics.Enabled {
		info(cmd, "Metrics at http://%s%s", cfg.Server.Addr, cfg.Metrics.Path)
	}
	return srv.Run(ctx)
}
