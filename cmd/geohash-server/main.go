package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mohammed-shakir/geohash-polyfill/internal/core/config"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/health"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/observability"
	"github.com/mohammed-shakir/geohash-polyfill/internal/core/server"
	"github.com/mohammed-shakir/geohash-polyfill/internal/logger"
	"github.com/mohammed-shakir/geohash-polyfill/internal/scenarios"
	_ "github.com/mohammed-shakir/geohash-polyfill/internal/scenarios/cache"
	_ "github.com/mohammed-shakir/geohash-polyfill/internal/scenarios/direct"
	jobskafka "github.com/mohammed-shakir/geohash-polyfill/pkg/jobs/kafka"
)

var (
	Version   = "dev"
	Revision  = ""
	BuildDate = ""
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "optional YAML config file")
	scenarioFlag := flag.String("scenario", "", "scenario name (direct|cache)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}
	if *scenarioFlag != "" {
		cfg.Scenario = strings.TrimSpace(*scenarioFlag)
	}

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Scenario:  cfg.Scenario,
		Component: "geohash-server",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.SetScenario(cfg.Scenario)
	metrics := observability.Init(observability.Config{
		Build: observability.BuildInfo{Version: Version, Revision: Revision, BuildDate: BuildDate},
	})

	appLog.Info("starting geohash server",
		"addr", cfg.Addr,
		"version", Version,
		"scenario", cfg.Scenario,
		"precision", cfg.Precision,
		"max_precision", cfg.MaxPrecision)

	handler, err := scenarios.New(cfg.Scenario, cfg, appLog)
	if err != nil {
		appLog.Error("scenario setup failed", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var ready health.ReadinessReporter = health.AlwaysReady{}
	if cfg.Jobs.Enabled {
		runner := jobskafka.New(jobskafka.FromConfig(cfg.Jobs), handler, jobskafka.Options{
			Logger:   appLog.With("component", "jobs"),
			Register: metrics.Registerer(),
		})
		if err := runner.Start(ctx); err != nil {
			appLog.Error("job runner start failed", "err", err)
			return 1
		}
		defer runner.Stop()
		ready = runner
	}

	if err := server.Run(ctx, cfg, server.Deps{
		Logger:  appLog,
		Handler: handler,
		Metrics: metrics,
		Ready:   ready,
	}); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
