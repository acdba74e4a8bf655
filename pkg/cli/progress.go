package cli

import (
	"fmt"
	"io"
	"strings"
	"time"
)

const progressBarWidth = 24

// Progress renders a single-line progress bar for a fixed-size batch run,
// rewriting the line in place as items complete. It is not safe for
// concurrent use; the batch tools drive it from one goroutine.
type Progress struct {
	w      io.Writer
	styles Styles
	label  string
	total  int
	n      int
	start  time.Time
}

// NewProgress starts a progress line labeled like the tool's run phase,
// e.g. "[statistic]".
func NewProgress(w io.Writer, label string, total int) *Progress {
	return &Progress{
		w:      w,
		styles: NewStyles(DefaultTheme),
		label:  label,
		total:  total,
		start:  time.Now(),
	}
}

// Add advances the bar by n completed items.
func (p *Progress) Add(n int) {
	p.n += n
	p.render(false)
}

// Done finishes the line and moves to the next one.
func (p *Progress) Done() {
	p.render(true)
}

func (p *Progress) render(done bool) {
	total := p.total
	if total < 1 {
		total = 1
	}
	frac := float64(p.n) / float64(total)
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*progressBarWidth + 0.5)

	bar := p.styles.Bar.Render(strings.Repeat("█", filled)) +
		p.styles.Help.Render(strings.Repeat("░", progressBarWidth-filled))
	count := p.styles.Value.Render(fmt.Sprintf("%d/%d", p.n, p.total))
	detail := p.styles.Help.Render(fmt.Sprintf("%3.0f%% %s", frac*100, FormatDuration(time.Since(p.start))))

	fmt.Fprintf(p.w, "\r%s %s %s %s", p.styles.Label.Render(p.label), bar, count, detail)
	if done {
		fmt.Fprintln(p.w)
	}
}
