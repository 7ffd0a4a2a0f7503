package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"soundcatalog/internal/pipeline"
)

// runProgress drives a progress bar on terminals and stays silent otherwise;
// the run log carries the same information for non-interactive use.
type runProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
}

func newRunProgress(w io.Writer) *runProgress {
	if !isTerminal(w) {
		return &runProgress{}
	}
	return &runProgress{writer: w}
}

func (p *runProgress) update(ev pipeline.Progress) {
	if p.writer == nil {
		return
	}
	if p.bar == nil {
		if ev.Total == 0 {
			return
		}
		p.bar = progressbar.NewOptions(ev.Total,
			progressbar.OptionSetWriter(p.writer),
			progressbar.OptionSetDescription("cataloging"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}
	if ev.Batches > 0 {
		p.bar.Describe(fmt.Sprintf("batch %d/%d", ev.Batch, ev.Batches))
	}
	_ = p.bar.Set(ev.Completed)
}

func (p *runProgress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
