package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	ct "github.com/daviddengcn/go-colortext"
	"github.com/mattn/go-isatty"

	"github.com/cognicore/licmatch/pkg/licmatch"
	"github.com/cognicore/licmatch/pkg/licmatch/diff"
)

// printer writes lines, colouring them through go-colortext when enabled.
// go-colortext drives the terminal directly, so colour is only used for
// the process's stdout.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer, color bool) *printer {
	return &printer{w: w, color: color && isTerminalStdout(w)}
}

func (p *printer) line(c ct.Color, bright bool, format string, args ...any) {
	if p.color && c != ct.None {
		ct.ChangeColor(c, bright, ct.None, false)
		defer ct.ResetColor()
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

// diffColor picks the colour of one unified diff line.
func diffColor(line string) ct.Color {
	switch {
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return ct.None
	case strings.HasPrefix(line, "+"):
		return ct.Green
	case strings.HasPrefix(line, "-"):
		return ct.Red
	case strings.HasPrefix(line, "@@"):
		return ct.White
	default:
		return ct.None
	}
}

func printReport(p *printer, r diff.Report) {
	p.line(ct.Green, true, "Similarity with %s: %.2f%%", r.LicenseID, r.SimilarityPercent)
	p.line(ct.None, false, "Report %s", r.ID)
	for _, l := range r.DiffLines {
		p.line(diffColor(l), false, "%s", l)
	}
}

func printOutcome(p *printer, out licmatch.Outcome, scores bool) {
	p.line(ct.Green, true, "STATUS")
	p.line(ct.None, false, "%s", out.Message())
	if scores {
		m := out.Result.Matches()
		for _, id := range out.Result.Ranked() {
			p.line(ct.None, false, "  %-24s %.4f", id, m[id])
		}
	}
	if out.Report != nil {
		printReport(p, *out.Report)
	}
}

func isTerminalStdout(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f != os.Stdout {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
