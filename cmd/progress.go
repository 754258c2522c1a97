package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/time/rate"
)

// progressLine redraws a single status line on a terminal. On anything else
// it stays silent so piped output is not littered with carriage returns.
type progressLine struct {
	w       io.Writer
	enabled bool
	every   rate.Sometimes
	width   int
}

func newProgressLine(f *os.File) *progressLine {
	fd := f.Fd()
	return &progressLine{
		w:       f,
		enabled: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
		every:   rate.Sometimes{Interval: 100 * time.Millisecond},
	}
}

// Update redraws the line, at most every 100ms. Final updates (done == total)
// are always drawn.
func (p *progressLine) Update(label string, done, total int) {
	if !p.enabled {
		return
	}
	draw := func() {
		msg := fmt.Sprintf("  ~  %s %d/%d", label, done, total)
		pad := p.width - len(msg)
		p.width = len(msg)
		if pad < 0 {
			pad = 0
		}
		fmt.Fprintf(p.w, "\r%s%*s", msg, pad, "")
	}
	if done >= total {
		draw()
		return
	}
	p.every.Do(draw)
}

// Done clears the line.
func (p *progressLine) Done() {
	if !p.enabled || p.width == 0 {
		return
	}
	fmt.Fprintf(p.w, "\r%*s\r", p.width, "")
	p.width = 0
}
