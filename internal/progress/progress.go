// Package progress renders progress bars for project-wide runs on stderr.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar for file processing. The zero value and a
// nil *Tracker are silent.
type Tracker struct {
	bar   *progressbar.ProgressBar
	label string
	out   io.Writer
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithWriter renders to w instead of stderr.
func WithWriter(w io.Writer) Option {
	return func(t *Tracker) {
		t.out = w
	}
}

func newTracker(label string, opts []Option) *Tracker {
	t := &Tracker{label: label, out: os.Stderr}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// NewSpinner creates a spinner for operations with unknown total count,
// such as project discovery.
func NewSpinner(label string, opts ...Option) *Tracker {
	t := newTracker(label, opts)
	t.bar = progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return t
}

// NewTracker creates a progress bar with the given label and total count.
func NewTracker(label string, total int, opts ...Option) *Tracker {
	t := newTracker(label, opts)
	t.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(t.out),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return t
}

// Silent returns a tracker that renders nothing.
func Silent() *Tracker {
	return &Tracker{}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	if t == nil || t.bar == nil {
		return
	}
	_ = t.bar.Add(1)
}

// Func returns Tick as a callback for worker pools.
func (t *Tracker) Func() func() {
	return t.Tick
}

func (t *Tracker) clear() bool {
	if t == nil || t.bar == nil {
		return false
	}
	_ = t.bar.Finish()
	_ = t.bar.Clear()
	return true
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	t.clear()
}

// FinishSkipped clears the bar and prints a skip message.
func (t *Tracker) FinishSkipped(reason string) {
	if t.clear() {
		fmt.Fprintf(t.out, "  %s skipped (%s)\n", t.label, reason)
	}
}

// FinishError clears the bar and prints an error message.
func (t *Tracker) FinishError(err error) {
	if t.clear() {
		fmt.Fprintf(t.out, "  %s error: %v\n", t.label, err)
	}
}
