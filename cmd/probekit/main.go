package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/go-co-op/gocron/v2"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/probekit/internal/agent"
	"git.home.luguber.info/inful/probekit/internal/config"
	"git.home.luguber.info/inful/probekit/internal/probe"
	"git.home.luguber.info/inful/probekit/internal/version"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"probekit.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Run struct {
		Orders int `short:"n" help:"Orders to simulate (overrides config)" default:"0"`
	} `cmd:"" help:"Run the instrumented demo workload once"`

	Daemon struct {
	} `cmd:"" help:"Run the workload on a schedule with live config reload"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`

	Version struct {
	} `cmd:"" help:"Print version information"`
}

func main() {
	ctx := kong.Parse(&CLI)

	switch ctx.Command() {
	case "run":
		cfg := mustLoadConfig()
		setupLogging(cfg)
		if err := runOnce(cfg, CLI.Run.Orders); err != nil {
			slog.Error("Run failed", "error", err)
			os.Exit(1)
		}
	case "daemon":
		cfg := mustLoadConfig()
		setupLogging(cfg)
		if err := runDaemon(cfg); err != nil {
			slog.Error("Daemon failed", "error", err)
			os.Exit(1)
		}
	case "init":
		if err := config.Write(config.Default(), CLI.Config, CLI.Init.Force); err != nil {
			slog.Error("Init failed", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %s\n", CLI.Config)
	case "version":
		fmt.Printf("probekit %s (commit %s, built %s)\n",
			version.Version, version.GitCommit, version.BuildTime)
	}
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

func setupLogging(cfg *config.Config) {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case config.LogLevelDebug:
		level = slog.LevelDebug
	case config.LogLevelWarn:
		level = slog.LevelWarn
	case config.LogLevelError:
		level = slog.LevelError
	}
	if CLI.Verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == config.LogFormatJSON {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// sinkSet bundles the agent backends built from configuration plus their
// teardown.
type sinkSet struct {
	logs    agent.LogSink
	metrics agent.MetricSink
	promReg *prom.Registry
	closers []func() error
}

func (s *sinkSet) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			slog.Warn("Sink close failed", "error", err)
		}
	}
}

func buildSinks(cfg *config.Config) (*sinkSet, error) {
	set := &sinkSet{}
	var logs agent.MultiLog
	var metrics agent.MultiMetric

	if cfg.Sinks.Slog {
		logs = append(logs, agent.NewSlogSink(slog.Default()))
	}

	if cfg.Sinks.Prometheus.Enabled {
		set.promReg = prom.NewRegistry()
		metrics = append(metrics, agent.NewPromSink(set.promReg))
	}

	if cfg.Sinks.Store.Enabled {
		store, err := agent.NewStoreSink(cfg.Sinks.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		logs = append(logs, store)
		metrics = append(metrics, store)
		set.closers = append(set.closers, store.Close)
	}

	if cfg.Sinks.NATS.Enabled {
		nc, err := agent.NewNATSSink(cfg.Sinks.NATS.URL, cfg.Sinks.NATS.SubjectPrefix)
		if err != nil {
			return nil, fmt.Errorf("failed to connect NATS sink: %w", err)
		}
		logs = append(logs, nc)
		metrics = append(metrics, nc)
		set.closers = append(set.closers, nc.Close)
	}

	if len(logs) == 0 {
		set.logs = agent.NoopLog{}
	} else {
		set.logs = logs
	}
	if len(metrics) == 0 {
		set.metrics = agent.NoopMetric{}
	} else {
		set.metrics = metrics
	}
	return set, nil
}

func runOnce(cfg *config.Config, ordersOverride int) error {
	probe.SetEnabled(cfg.Enabled)
	probe.SetDiagnostic(func(err error) {
		slog.Warn("Instrumentation sink failure", "error", err)
	})

	sinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	defer sinks.Close()

	orders := cfg.Workload.Orders
	if ordersOverride > 0 {
		orders = ordersOverride
	}

	processor := NewOrderProcessor(sinks.logs, sinks.metrics)
	processor.ProcessBatch(context.Background(), orders)
	return nil
}

func runDaemon(cfg *config.Config) error {
	probe.SetEnabled(cfg.Enabled)
	probe.SetDiagnostic(func(err error) {
		slog.Warn("Instrumentation sink failure", "error", err)
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sinks, err := buildSinks(cfg)
	if err != nil {
		return err
	}
	defer sinks.Close()

	// Metrics endpoint.
	var metricsServer *http.Server
	if sinks.promReg != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", agent.HTTPHandler(sinks.promReg))
		metricsServer = &http.Server{
			Addr:              cfg.Sinks.Prometheus.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Metrics endpoint listening", "addr", cfg.Sinks.Prometheus.Listen)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Live reload flips the instrumentation switch without a restart.
	watcher, err := config.NewWatcher(CLI.Config, func(updated *config.Config) {
		if updated.Enabled != probe.Enabled() {
			slog.Info("Instrumentation toggled", "enabled", updated.Enabled)
		}
		probe.SetEnabled(updated.Enabled)
	})
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Start(ctx); err != nil {
		return err
	}

	processor := NewOrderProcessor(sinks.logs, sinks.metrics)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	interval := time.Duration(cfg.Workload.IntervalSeconds) * time.Second
	_, err = scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			processor.ProcessBatch(ctx, cfg.Workload.Orders)
		}),
		gocron.WithName("order-workload"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule workload: %w", err)
	}

	slog.Info("Daemon started", "interval", interval, "orders", cfg.Workload.Orders)
	scheduler.Start()

	<-ctx.Done()
	slog.Info("Shutdown signal received, stopping...")

	if err := scheduler.Shutdown(); err != nil {
		slog.Warn("Scheduler shutdown failed", "error", err)
	}
	if metricsServer != nil {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := metricsServer.Shutdown(stopCtx); err != nil {
			slog.Warn("Metrics server shutdown failed", "error", err)
		}
	}

	slog.Info("Daemon stopped")
	return nil
}
