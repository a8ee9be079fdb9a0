package main

import (
	"fmt"
	"io"
	"os"

	"github.com/Swind/go-uthreads/core"
	"github.com/Swind/go-uthreads/internal/scenario"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
	ansiDim   = "\x1b[2m"
)

type printer struct {
	w     io.Writer
	color bool
}

// newPrinter colours output only when w is a terminal.
func newPrinter(w io.Writer, noColor bool) *printer {
	f, ok := w.(*os.File)
	if !ok || noColor || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return &printer{w: w}
	}
	return &printer{w: colorable.NewColorable(f), color: true}
}

func (p *printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

func (p *printer) result(res scenario.Result) {
	mark := p.paint(ansiGreen, "ok  ")
	if !res.OK {
		mark = p.paint(ansiRed, "FAIL")
	}
	line := fmt.Sprintf("%s %3d  %s", mark, res.Command.Line, res.Command)
	if res.Detail != "" {
		line += "  " + p.paint(ansiDim, res.Detail)
	}
	fmt.Fprintln(p.w, line)
}

func (p *printer) stats(st core.SchedulerStats) {
	fmt.Fprintf(p.w, "running=%d live=%d ready=%d blocked=%d total_quanta=%d\n",
		st.Running, st.Live, st.Ready, st.Blocked, st.TotalQuanta)
}

func (p *printer) summary(sum scenario.Summary) {
	status := p.paint(ansiGreen, "PASS")
	if sum.Failed > 0 {
		status = p.paint(ansiRed, "FAIL")
	}
	fmt.Fprintf(p.w, "%s  %d passed, %d failed\n", status, sum.Passed, sum.Failed)
}
