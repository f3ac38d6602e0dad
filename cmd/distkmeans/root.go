package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/hupe1980/distkmeans"
	promcollector "github.com/hupe1980/distkmeans/metrics/prometheus"
)

type rootCommand struct {
	cmd *cobra.Command

	logLevel    string
	logFormat   string
	metricsAddr string
	timeout     time.Duration

	level    slog.Level
	logger   *distkmeans.Logger
	metrics  distkmeans.MetricsCollector
	registry *prometheus.Registry
	server   *http.Server
	store    storeFlags
}

func newRootCommand() *cobra.Command {
	root := &rootCommand{}
	root.cmd = &cobra.Command{
		Use:           "distkmeans",
		Short:         "Distributed k-means over a fixed group of processes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return root.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return root.teardown(cmd.Context())
		},
	}

	flags := root.cmd.PersistentFlags()
	flags.StringVar(&root.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	flags.StringVar(&root.logFormat, "log-format", "text", "log format: text or json")
	flags.StringVar(&root.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
	flags.DurationVar(&root.timeout, "timeout", 0, "abandon the command after this long (0 = no limit)")
	root.store.register(flags)

	root.cmd.AddCommand(
		localCommand(root),
		workerCommand(root),
		genCommand(root),
	)
	return root.cmd
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

func (r *rootCommand) setup(ctx context.Context) error {
	level, err := parseLevel(r.logLevel)
	if err != nil {
		return err
	}
	r.level = level
	switch r.logFormat {
	case "text":
		r.logger = distkmeans.NewTextLogger(level)
	case "json":
		r.logger = distkmeans.NewJSONLogger(level)
	default:
		return fmt.Errorf("invalid log format %q", r.logFormat)
	}

	r.metrics = distkmeans.NoopMetricsCollector{}
	if r.metricsAddr != "" {
		r.registry = prometheus.NewRegistry()
		r.metrics = promcollector.NewCollector(r.registry)
		r.server = &http.Server{
			Addr:              r.metricsAddr,
			Handler:           promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				r.logger.ErrorContext(ctx, "metrics server failed", "addr", r.metricsAddr, "error", err)
			}
		}()
	}
	return nil
}

func (r *rootCommand) teardown(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	return r.server.Shutdown(ctx)
}

// logOption configures run logging to match the command's logger.
func (r *rootCommand) logOption() distkmeans.Option {
	if r.logFormat == "text" {
		return distkmeans.WithLogLevel(r.level)
	}
	return distkmeans.WithLogger(r.logger)
}

// context returns the command context bounded by --timeout.
func (r *rootCommand) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if r.timeout > 0 {
		return context.WithTimeout(ctx, r.timeout)
	}
	return context.WithCancel(ctx)
}
