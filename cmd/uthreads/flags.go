package main

import (
	"github.com/Swind/go-uthreads/core"
	"github.com/urfave/cli/v2"
)

const defaultQuantumUsecs = 10000

// schedulerFlags are shared by every command that builds a scheduler config.
func schedulerFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "YAML config file",
			EnvVars: []string{"UTHREADS_CONFIG"},
		},
		&cli.IntFlag{
			Name:    "quantum",
			Aliases: []string{"q"},
			Value:   defaultQuantumUsecs,
			Usage:   "Quantum length in microseconds",
		},
		&cli.IntFlag{
			Name:  "max-threads",
			Value: core.DefaultMaxThreads,
			Usage: "Maximum number of live threads, main included",
		},
		&cli.StringFlag{
			Name:  "stack-size",
			Value: "4KB",
			Usage: "Per-thread stack size (bytes or a size such as 8KB)",
		},
		&cli.StringFlag{
			Name:  "timer",
			Value: string(core.TimerTicker),
			Usage: "Preemption timer: ticker, itimer or manual",
		},
		&cli.IntFlag{
			Name:  "history",
			Usage: "Number of context switches kept in the history",
		},
	}
}

// loadConfig builds the scheduler config: file values first, then flags
// that were set explicitly.
func loadConfig(c *cli.Context) (*core.SchedulerConfig, error) {
	cfg := core.DefaultSchedulerConfig(defaultQuantumUsecs)
	if path := c.String("config"); path != "" {
		var err error
		if cfg, err = core.LoadConfigFile(path); err != nil {
			return nil, err
		}
	}

	if c.IsSet("quantum") {
		cfg.QuantumUsecs = c.Int("quantum")
	}
	if c.IsSet("max-threads") {
		cfg.MaxThreads = c.Int("max-threads")
	}
	if c.IsSet("stack-size") {
		size, err := core.ParseStackSize(c.String("stack-size"))
		if err != nil {
			return nil, err
		}
		cfg.StackSize = size
	}
	if c.IsSet("timer") {
		cfg.TimerKind = core.TimerKind(c.String("timer"))
		if err := cfg.TimerKind.Validate(); err != nil {
			return nil, err
		}
	}
	if c.IsSet("history") {
		cfg.HistoryCapacity = c.Int("history")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
