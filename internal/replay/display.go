package replay

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// ANSI palette indices.
const (
	colorRed   = "1"
	colorGreen = "2"
	colorCyan  = "6"
)

// Display renders replay progress: the position in the database, the
// command, and the captured output. Colors follow the terminal's profile
// and disappear when output is not a terminal or NO_COLOR is set.
type Display struct {
	out *termenv.Output
}

// NewDisplay creates a display writing to w.
func NewDisplay(w io.Writer, opts ...termenv.OutputOption) *Display {
	return &Display{out: termenv.NewOutput(w, opts...)}
}

func (d *Display) styled(color, msg string) string {
	return d.out.String(msg).Foreground(d.out.Color(color)).String()
}

// Banner prints a green headline.
func (d *Display) Banner(msg string) {
	fmt.Fprintln(d.out, d.styled(colorGreen, msg))
}

// Info prints a cyan status line.
func (d *Display) Info(msg string) {
	fmt.Fprintln(d.out, d.styled(colorCyan, msg))
}

// Error prints a red error line.
func (d *Display) Error(msg string) {
	fmt.Fprintln(d.out, d.styled(colorRed, msg))
}

func (d *Display) CommandStart(index, total int, phase Phase, command string) {
	switch phase {
	case PhasePrimary:
		d.Info(fmt.Sprintf("Instrumenting %d/%d", index, total))
		fmt.Fprintln(d.out, command)
	case PhaseSecondary:
		fmt.Fprintln(d.out, command)
	default:
		fmt.Fprintf(d.out, "%d/%d: %s\n", index, total, command)
	}
}

func (d *Display) CommandEnd(_ int, _ Phase, output string, err error) {
	if err != nil {
		d.Error("Error:")
	}
	output = strings.TrimRight(output, "\n")
	if output != "" {
		fmt.Fprintln(d.out, output)
	}
}

func (d *Display) EntryEnd(*EntryResult) {}

// Summary prints the final result of a replay.
func (d *Display) Summary(res *Result) {
	if res == nil {
		return
	}
	ran := len(res.Entries)
	skipped := 0
	for _, e := range res.Entries {
		if e.Status == StatusSkipped {
			skipped++
		}
	}
	if res.Status == StatusFailed {
		d.Error(fmt.Sprintf("Failed at command %d/%d (%d run, %d skipped, %.1fs)",
			res.FailedIndex, res.Total, ran, skipped, float64(res.DurationMs)/1000))
		if res.FailedIndex > 0 {
			d.Info(fmt.Sprintf("Fix the failure and set \"--restart_command\": %d to resume", res.FailedIndex))
		}
		return
	}
	d.Banner(fmt.Sprintf("Done: %d/%d commands (%d run, %d skipped, %.1fs)",
		res.Total, res.Total, ran, skipped, float64(res.DurationMs)/1000))
}
