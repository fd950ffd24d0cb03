package output

import (
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
)

type ProgressBar struct {
	bar *progressbar.ProgressBar
}

func NewProgressBar(total int64, description string) *ProgressBar {
	return newProgressBar(os.Stderr, total, description)
}

func newProgressBar(w io.Writer, total int64, description string) *ProgressBar {
	width := max(10, min(40, getTerminalWidth()-60))
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(FDebug(description)),
		progressbar.OptionSetWidth(width),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
	return &ProgressBar{bar: bar}
}

// Add accepts negative deltas, which workers send when a retry throws away a
// partially written range.
func (p *ProgressBar) Add(n int64) {
	p.bar.Add64(n)
}

func (p *ProgressBar) Finish() {
	p.bar.Finish()
}
