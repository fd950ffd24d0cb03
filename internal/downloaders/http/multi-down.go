package accelhttp

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/tanq16/accel/internal/utils"
	"golang.org/x/sync/errgroup"
)

// Job is a download whose size is resolved and whose ranges are planned.
type Job struct {
	ID        string
	Spec      utils.DownloadSpec
	TotalSize int64
	Threads   int
	Ranges    []utils.RangeAssignment

	client *utils.AccelHTTPClient
	log    zerolog.Logger
}

type fetchResult struct {
	index int
	part  PartStore
	err   error
}

func ValidateSpec(spec utils.DownloadSpec) error {
	parsedURL, err := url.Parse(spec.URL)
	if err != nil {
		return fmt.Errorf("%w: invalid URL: %w", utils.ErrParse, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("%w: unsupported scheme %q", utils.ErrParse, parsedURL.Scheme)
	}
	if spec.OutputPath == "" {
		return fmt.Errorf("%w: empty output path", utils.ErrParse)
	}
	if spec.Threads < 1 {
		return fmt.Errorf("%w: thread count must be at least 1, got %d", utils.ErrParse, spec.Threads)
	}
	return nil
}

// BuildJob validates spec, resolves the total size and plans the ranges. No
// part store exists yet when it returns, so a failure here needs no cleanup.
func BuildJob(ctx context.Context, spec utils.DownloadSpec) (*Job, error) {
	if err := ValidateSpec(spec); err != nil {
		return nil, err
	}
	job := &Job{ID: uuid.NewString(), Spec: spec}
	job.log = utils.GetLogger("http/orchestrator").With().Str("runId", job.ID).Logger()
	job.log.Debug().
		Str("url", spec.URL).
		Str("output", spec.OutputPath).
		Int("threads", spec.Threads).
		Interface("headers", spec.HTTPClientConfig.Headers).
		Bool("parseURL", spec.SizeMode == utils.SizeFromURL).
		Bool("verifyTLS", !spec.HTTPClientConfig.Insecure).
		Bool("digestAuth", spec.HTTPClientConfig.Credential != nil).
		Str("proxy", spec.HTTPClientConfig.ProxyURL).
		Msg("Download requested")

	clientConfig := spec.HTTPClientConfig
	clientConfig.HighThreadMode = spec.Threads > 5
	job.client = utils.NewAccelHTTPClient(clientConfig)

	totalSize, err := ResolveSize(ctx, spec, job.client)
	if err != nil {
		return nil, fmt.Errorf("error resolving size: %w", err)
	}
	job.TotalSize = totalSize
	job.Threads = ClampThreads(spec.Threads, totalSize)
	job.Ranges = Partition(totalSize, job.Threads)
	if job.Threads != spec.Threads {
		job.log.Debug().Int("requested", spec.Threads).Int("clamped", job.Threads).Msg("Thread count clamped to size")
	}
	job.log.Debug().Int64("contentLength", totalSize).Int64("bytesPerThread", totalSize/int64(job.Threads)).Msg("Size resolved")
	for _, r := range job.Ranges {
		job.log.Debug().Int("rangeIndex", r.Index).Int64("start", r.Start).Int64("end", r.End).Str("file", utils.PartPath(spec.OutputPath, r.Index)).Msg("Range planned")
	}
	return job, nil
}

// Run fetches all ranges concurrently, waits for every worker, then merges
// the parts in order. The report is returned on failure too, with the elapsed
// time of the attempt filled in.
func (j *Job) Run(ctx context.Context, progressCh chan<- int64) (*utils.DownloadReport, error) {
	report := &utils.DownloadReport{
		URL:        j.Spec.URL,
		OutputPath: j.Spec.OutputPath,
		Threads:    j.Threads,
		TotalSize:  j.TotalSize,
	}
	timer := utils.StartTimer()
	defer func() {
		report.Elapsed = timer.Stop()
		if secs := report.Elapsed.Seconds(); secs > 0 {
			report.Throughput = float64(report.TotalSize) / secs
		}
		j.log.Debug().Dur("elapsed", report.Elapsed).Float64("bytesPerSecond", report.Throughput).Msg("Download finished")
	}()

	parts, err := j.fetchAll(ctx, progressCh)
	if err != nil {
		return report, err
	}
	written, err := Merge(parts, j.Spec.OutputPath)
	if err != nil {
		j.removeParts(parts)
		return report, fmt.Errorf("artifact %s may be incomplete: %w", j.Spec.OutputPath, err)
	}
	if written != j.TotalSize {
		return report, fmt.Errorf("%w: artifact %s holds %d bytes, expected %d", utils.ErrIO, j.Spec.OutputPath, written, j.TotalSize)
	}
	return report, nil
}

// fetchAll fans out one worker per range and fans their results back in by
// index. The first failure cancels the siblings; every worker has returned
// before this function does.
func (j *Job) fetchAll(ctx context.Context, progressCh chan<- int64) ([]PartStore, error) {
	group, groupCtx := errgroup.WithContext(ctx)
	resultCh := make(chan fetchResult, len(j.Ranges))
	for _, assignment := range j.Ranges {
		group.Go(func() error {
			part, err := FetchRange(groupCtx, j.Spec, j.client, assignment, progressCh)
			resultCh <- fetchResult{index: assignment.Index, part: part, err: err}
			return err
		})
	}
	group.Wait()
	close(resultCh)

	// the group context is canceled with the first worker's error as cause
	cause := context.Cause(groupCtx)
	parts := make([]PartStore, len(j.Ranges))
	var failures []error
	canceled := false
	for result := range resultCh {
		parts[result.index] = result.part
		switch {
		case result.err == nil:
		case ctx.Err() == nil && isSiblingAbort(result.err, cause):
			canceled = true
			j.log.Debug().Int("rangeIndex", result.index).Err(result.err).Msg("Range aborted after sibling failure")
		default:
			failures = append(failures, &utils.RangeError{Index: result.index, Err: result.err})
		}
	}
	if len(failures) == 0 && canceled {
		failures = append(failures, context.Canceled)
	}
	if len(failures) > 0 {
		j.removeParts(parts)
		j.log.Debug().Int("failed", len(failures)).Msg("Aborting without merge")
		return nil, fmt.Errorf("download failed: %w", errors.Join(failures...))
	}
	return parts, nil
}

// isSiblingAbort reports whether err only reflects the group being torn down
// by another worker's failure.
func isSiblingAbort(err, cause error) bool {
	if cause == nil || err == cause {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, cause)
}

func (j *Job) removeParts(parts []PartStore) {
	for _, part := range parts {
		if err := part.Remove(); err != nil {
			j.log.Warn().Int("rangeIndex", part.Index).Err(err).Msg("Part file left on disk")
		}
	}
}

// Download is BuildJob followed by Run.
func Download(ctx context.Context, spec utils.DownloadSpec, progressCh chan<- int64) (*utils.DownloadReport, error) {
	job, err := BuildJob(ctx, spec)
	if err != nil {
		return nil, err
	}
	return job.Run(ctx, progressCh)
}
