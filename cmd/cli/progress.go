package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// barTotal is the bar resolution, one unit per tenth of a percent
const barTotal = 1000

// progressBar renders the progress of one job as a single mpb bar
type progressBar struct {
	out      io.Writer
	progress *mpb.Progress
	bar      *mpb.Bar

	mu   sync.Mutex
	last progressView
}

func newProgressBar(out io.Writer, jobID string) *progressBar {
	b := &progressBar{out: out}
	b.progress = mpb.New(mpb.WithOutput(out), mpb.WithAutoRefresh(), mpb.WithWidth(40))
	b.bar = b.progress.AddBar(barTotal,
		mpb.PrependDecorators(
			decor.Name(truncate(jobID, 12), decor.WCSyncSpaceR),
			decor.Percentage(decor.WCSyncSpace),
		),
		mpb.AppendDecorators(
			decor.Any(b.speed, decor.WCSyncSpace),
			decor.Any(b.eta, decor.WCSyncSpace),
		),
	)
	return b
}

// Update moves the bar to the snapshot's percentage. The bar stays short of
// full until the server reports the completed status.
func (b *progressBar) Update(v progressView) {
	b.mu.Lock()
	b.last = v
	b.mu.Unlock()

	if v.Percent == nil || v.terminal() {
		return
	}
	current := int64(math.Round(*v.Percent * 10))
	if current >= barTotal {
		current = barTotal - 1
	}
	b.bar.SetCurrent(current)
}

// Finish completes or aborts the bar, waits for the last render and prints
// the outcome.
func (b *progressBar) Finish(v progressView, err error) {
	if err == nil && v.completed() {
		b.bar.SetCurrent(barTotal)
		b.bar.SetTotal(-1, true)
	} else {
		b.bar.Abort(false)
	}
	b.progress.Wait()

	switch {
	case err != nil:
	case v.failed():
		color.New(color.FgRed).Fprintf(b.out, "Failed: %s\n", v.Error)
	case v.Filename != "":
		color.New(color.FgGreen).Fprintf(b.out, "Completed: %s\n", v.Filename)
	default:
		color.New(color.FgGreen).Fprintln(b.out, "Completed")
	}
}

func (b *progressBar) speed(decor.Statistics) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last.Speed <= 0 {
		return ""
	}
	return formatSize(int64(b.last.Speed)) + "/s"
}

func (b *progressBar) eta(decor.Statistics) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last.Percent == nil || b.last.terminal() {
		return ""
	}
	return fmt.Sprintf("ETA %s", time.Duration(b.last.ETA)*time.Second)
}

// printProgress writes a single snapshot, colored by outcome
func printProgress(out io.Writer, v progressView) {
	line := formatProgress(v)
	switch {
	case v.failed():
		color.New(color.FgRed).Fprintln(out, line)
	case v.completed():
		color.New(color.FgGreen).Fprintln(out, line)
	default:
		fmt.Fprintln(out, line)
	}
}

// watchProgress follows jobID with a progress bar until it completes or fails
func watchProgress(ctx context.Context, out io.Writer, c *apiClient, jobID string, interval time.Duration) error {
	bar := newProgressBar(out, jobID)
	view, err := c.Watch(ctx, jobID, interval, bar.Update)
	bar.Finish(view, err)

	if err != nil {
		return err
	}
	if view.failed() {
		return fmt.Errorf("download failed: %s", view.Error)
	}
	return nil
}
