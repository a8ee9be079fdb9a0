package main

import (
	"fmt"

	"github.com/Swind/go-uthreads/core"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v2"
)

func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:   "config",
		Usage:  "Print the effective scheduler configuration as YAML",
		Flags:  schedulerFlags(),
		Action: configAction,
	}
}

func configAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Invalid configuration: %v", err), 1)
	}

	fc := core.FileConfig{
		QuantumUsecs:    cfg.QuantumUsecs,
		MaxThreads:      cfg.MaxThreads,
		StackSize:       core.FormatStackSize(cfg.StackSize),
		Timer:           string(cfg.TimerKind),
		HistoryCapacity: cfg.HistoryCapacity,
	}
	out, err := yaml.Marshal(fc)
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed: %v", err), 1)
	}
	_, err = c.App.Writer.Write(out)
	return err
}
