package converter

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// progressBar draws a single status line for one collection run: the bar,
// the count of finished items, the phase and the item just handled. A nil
// writer turns it into a no-op.
type progressBar struct {
	out       io.Writer
	total     int
	done      int
	lastWidth int
	bar       progress.Model
}

func newProgressBar(out io.Writer, total int) *progressBar {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = 36
	if cols, err := strconv.Atoi(strings.TrimSpace(os.Getenv("COLUMNS"))); err == nil && cols > 0 {
		bar.Width = min(max(cols-48, 16), 64)
	}
	return &progressBar{out: out, total: max(total, 1), bar: bar}
}

// progressOutput picks stderr when progress is wanted and stderr is a
// terminal.
func progressOutput(enabled bool) io.Writer {
	if enabled && isTerminal(os.Stderr) {
		return os.Stderr
	}
	return nil
}

// Step records one finished item of phase.
func (p *progressBar) Step(phase, item string) {
	if p.out == nil {
		return
	}
	p.done = min(p.done+1, p.total)
	p.render(phase, item)
}

func (p *progressBar) Finish(phase string) {
	if p.out == nil {
		return
	}
	p.done = p.total
	p.render(phase, "")
	fmt.Fprint(p.out, "\n")
	p.lastWidth = 0
}

// Close ends a line left open by a run that did not reach Finish.
func (p *progressBar) Close() {
	if p.out == nil || p.lastWidth == 0 {
		return
	}
	fmt.Fprint(p.out, "\n")
	p.lastWidth = 0
}

func (p *progressBar) render(phase, item string) {
	ratio := float64(p.done) / float64(p.total)
	line := fmt.Sprintf("%s %3.0f%% %d/%d %s", p.bar.ViewAs(ratio), ratio*100, p.done, p.total, phase)
	if item != "" {
		line += " " + item
	}
	// Note titles are often CJK, so pad by display cells rather than bytes.
	width := lipgloss.Width(line)
	pad := ""
	if p.lastWidth > width {
		pad = strings.Repeat(" ", p.lastWidth-width)
	}
	fmt.Fprintf(p.out, "\r%s%s", line, pad)
	p.lastWidth = width
}

func isTerminal(f *os.File) bool {
	if strings.EqualFold(strings.TrimSpace(os.Getenv("TERM")), "dumb") {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
