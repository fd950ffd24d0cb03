package scheduler

import (
	"context"
	"fmt"
	"path/filepath"

	accelhttp "github.com/tanq16/accel/internal/downloaders/http"
	"github.com/tanq16/accel/internal/output"
	"github.com/tanq16/accel/internal/utils"
)

// Run executes a single download with terminal reporting: optional progress
// bar while ranges are fetched, then a summary line or a diagnostic naming the
// failure kind.
func Run(ctx context.Context, spec utils.DownloadSpec, showProgress bool) error {
	log := utils.GetLogger("scheduler")
	job, err := accelhttp.BuildJob(ctx, spec)
	if err != nil {
		output.PrintError(fmt.Sprintf("%s: %v", utils.ErrorKind(err), err))
		return err
	}

	output.PrintInfo(fmt.Sprintf("%s %s (%s) over %d range(s)", output.StyleSymbols["arrow"], spec.OutputPath, output.FormatBytes(uint64(job.TotalSize)), job.Threads))
	var bar *output.ProgressBar
	if showProgress && job.TotalSize > 0 {
		bar = output.NewProgressBar(job.TotalSize, filepath.Base(spec.OutputPath))
	}
	progressCh := make(chan int64, 100)
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		var totalDownloaded int64
		for n := range progressCh {
			totalDownloaded += n
			if bar != nil {
				bar.Add(n)
			}
		}
		log.Debug().Int64("totalDownloaded", totalDownloaded).Msg("Progress stream closed")
	}()

	report, err := job.Run(ctx, progressCh)
	close(progressCh)
	<-progressDone
	if bar != nil {
		bar.Finish()
	}

	if err != nil {
		output.PrintError(fmt.Sprintf("%s: %v", utils.ErrorKind(err), err))
		if report != nil {
			output.PrintWarning(fmt.Sprintf("Aborted after %.3fs", report.Elapsed.Seconds()))
		}
		return err
	}
	output.PrintSummary(report)
	return nil
}
