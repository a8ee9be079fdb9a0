// Command uthreads runs scripted user-level thread scenarios.
//
//	uthreads run --quantum 5000 scenario.uts
//	uthreads run --metrics-addr :9090 --linger 30s scenario.uts
//	uthreads config --config uthreads.yaml --max-threads 16
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func newApp() *cli.App {
	return &cli.App{
		Name:  "uthreads",
		Usage: "Run user-level thread scenarios",
		Commands: []*cli.Command{
			RunCommand(),
			ConfigCommand(),
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
