package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/Swind/go-uthreads/core"
	"github.com/Swind/go-uthreads/internal/scenario"
	obs "github.com/Swind/go-uthreads/observability/prometheus"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
)

func RunCommand() *cli.Command {
	flags := append(schedulerFlags(),
		&cli.StringFlag{
			Name:  "log-level",
			Value: "warn",
			Usage: "Minimum log level: debug, info, warn or error",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "Disable coloured output",
		},
		&cli.StringFlag{
			Name:  "metrics-addr",
			Usage: "Serve Prometheus metrics on this address (e.g. :2112)",
		},
		&cli.DurationFlag{
			Name:  "linger",
			Usage: "Keep the metrics endpoint up for this long after the script ends",
		},
	)

	return &cli.Command{
		Name:      "run",
		Usage:     "Run a scenario script",
		ArgsUsage: "SCRIPT",
		Description: `Runs SCRIPT ("-" for stdin) on a fresh scheduler. The command's own
goroutine becomes thread 0 and executes the script line by line.`,
		Flags:  flags,
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("Usage: uthreads run [options] SCRIPT", 1)
	}

	cmds, err := readScript(c.Args().First(), c.App.Reader)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to read script: %v", err), 1)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid configuration: %v", err), 1)
	}
	level, err := core.ParseLogLevel(c.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	logger := core.NewDefaultLoggerTo(c.App.ErrWriter, level)
	cfg.Logger = logger

	// The scheduler must not end the process; the exit code is reported
	// once the script is done.
	var exitCode atomic.Int32
	exitCode.Store(-1)
	cfg.ExitFunc = func(code int) { exitCode.Store(int32(code)) }

	var (
		reg    *prom.Registry
		poller *obs.SnapshotPoller
	)
	if addr := c.String("metrics-addr"); addr != "" {
		reg = prom.NewRegistry()
		exporter, err := obs.NewMetricsExporter("uthreads", reg, obs.ExporterOptions{})
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to register metrics: %v", err), 1)
		}
		cfg.Metrics = exporter

		if poller, err = obs.NewSnapshotPoller(reg, time.Second); err != nil {
			return cli.Exit(fmt.Sprintf("Failed to register metrics: %v", err), 1)
		}

		stop := serveMetrics(addr, reg, logger)
		defer stop()
	}

	s, err := core.NewSchedulerWithConfig(cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to start scheduler: %v", err), 1)
	}
	if poller != nil {
		poller.AddScheduler("cli", s)
		poller.Start(c.Context)
		defer poller.Stop()
	}

	p := newPrinter(c.App.Writer, c.Bool("no-color"))
	sum := scenario.NewRunner(s, logger).Run(cmds, p.result)

	if !s.Closed() {
		p.stats(s.Stats())
		_ = s.Terminate(core.MainThreadID)
	}
	if poller != nil {
		poller.CollectOnce()
	}
	p.summary(sum)

	if d := c.Duration("linger"); d > 0 && reg != nil {
		logger.Info("Keeping metrics endpoint up", core.F("duration", d))
		time.Sleep(d)
	}

	if code := exitCode.Load(); code > 0 {
		return cli.Exit(fmt.Sprintf("Scheduler stopped with exit code %d", code), int(code))
	}
	if sum.Failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d steps failed", sum.Failed, sum.Passed+sum.Failed), 1)
	}
	return nil
}

func readScript(path string, stdin io.Reader) ([]scenario.Command, error) {
	if path == "-" {
		return scenario.Parse(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scenario.Parse(f)
}

// serveMetrics starts a promhttp endpoint and returns its shutdown func.
func serveMetrics(addr string, reg *prom.Registry, logger core.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics endpoint failed", core.F("addr", addr), core.F("error", err))
		}
	}()
	logger.Info("Serving metrics", core.F("addr", addr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
}
