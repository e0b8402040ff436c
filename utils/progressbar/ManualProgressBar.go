// Package progressbar implements functionality of printing a progress
// bar to the terminal window
package progressbar

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ManualProgressBar implement progress bar functionality that must
// be manually managed. That is, the Display() function must be called
// whenever an updated progress bar should be printed to the screen.
//
// ManualProgressBar does not use concurrency.
type ManualProgressBar struct {
	width           float64
	maxProgress     float64
	currentProgress float64
	bar             strings.Builder
	startTime       time.Time
	out             io.Writer
}

// NewManualProgressBar returns a new ManualProgressBar which writes to
// standard output
func NewManualProgressBar(width, max int) *ManualProgressBar {
	return &ManualProgressBar{
		width:           float64(width),
		maxProgress:     float64(max),
		currentProgress: 0,
		startTime:       time.Now(),
		out:             os.Stdout,
	}
}

// SetOutput sets the writer the progress bar is displayed on
func (p *ManualProgressBar) SetOutput(w io.Writer) {
	p.out = w
}

// Increment increments the interal progress counter. Each time an
// iteration is performed, Increment should be called.
func (p *ManualProgressBar) Increment() {
	if p.currentProgress < p.maxProgress {
		p.currentProgress++
	}
}

// Fraction returns the fraction of the progress bar which is complete
func (p *ManualProgressBar) Fraction() float64 {
	if p.maxProgress <= 0 {
		return 1.0
	}
	return p.currentProgress / p.maxProgress
}

// String returns the progress bar without the elapsed time
func (p *ManualProgressBar) String() string {
	var b strings.Builder
	b.WriteString("|")

	currentProg := p.Fraction() * p.width
	for i := 0.0; i < currentProg; i++ {
		b.WriteString("█")
	}
	for i := currentProg; i < p.width; i++ {
		b.WriteString(" ")
	}
	fmt.Fprintf(&b, "| [%.2f%%]", p.Fraction()*100)
	return b.String()
}

// Display displays the progress bar on the screen, overwriting the
// previously displayed bar
func (p *ManualProgressBar) Display() {
	p.bar.Reset()
	p.bar.WriteString(strings.TrimSuffix(p.String(), "]"))
	fmt.Fprintf(&p.bar, " | elapsed: %v]",
		time.Since(p.startTime).Truncate(time.Second))

	fmt.Fprintf(p.out, "\n\033[1A\033[K%v", p.bar.String())
}
