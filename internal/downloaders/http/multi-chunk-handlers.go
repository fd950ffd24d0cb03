package accelhttp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/tanq16/accel/internal/utils"
)

// PartStore is the on-disk result of one range. It belongs to the worker that
// wrote it until the reassembler reads and deletes it.
type PartStore struct {
	Index int
	Path  string
	Size  int64
}

func (p PartStore) Remove() error {
	if p.Path == "" {
		return nil
	}
	if err := os.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: error removing part %s: %w", utils.ErrIO, p.Path, err)
	}
	return nil
}

// FetchRange downloads one assignment into its part store, retrying transient
// failures up to spec.Retries times. On failure nothing is left on disk.
func FetchRange(ctx context.Context, spec utils.DownloadSpec, client *utils.AccelHTTPClient, assignment utils.RangeAssignment, progressCh chan<- int64) (PartStore, error) {
	log := utils.GetLogger("http/fetch").With().Int("rangeIndex", assignment.Index).Logger()
	part := PartStore{Index: assignment.Index, Path: utils.PartPath(spec.OutputPath, assignment.Index)}
	attempt := 0
	operation := func() error {
		attempt++
		written, err := downloadRange(ctx, spec.URL, client, assignment, part.Path, progressCh)
		if err != nil {
			sendProgress(progressCh, -written)
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		part.Size = written
		return nil
	}
	notify := func(err error, wait time.Duration) {
		log.Warn().Err(err).Int("attempt", attempt).Dur("wait", wait).Msg("Retrying range")
	}
	err := backoff.RetryNotify(operation, retryPolicy(ctx, spec), notify)
	if err != nil {
		if removeErr := part.Remove(); removeErr != nil {
			log.Warn().Err(removeErr).Msg("Part file left on disk")
		}
		log.Debug().Err(err).Int("attempts", attempt).Msg("Range failed")
		return PartStore{}, err
	}
	log.Debug().Int64("bytes", part.Size).Int("attempts", attempt).Msg("Range completed")
	return part, nil
}

func retryPolicy(ctx context.Context, spec utils.DownloadSpec) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	if spec.RetryWait > 0 {
		exp.InitialInterval = spec.RetryWait
	}
	exp.MaxInterval = 30 * time.Second
	exp.MaxElapsedTime = 0 // bounded by the retry count instead
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(max(spec.Retries, 0))), ctx)
}

// downloadRange performs a single ranged GET and streams the body into path.
// It returns the number of bytes written so the caller can undo progress.
// Errors that a retry cannot fix are wrapped with backoff.Permanent.
func downloadRange(ctx context.Context, link string, client *utils.AccelHTTPClient, assignment utils.RangeAssignment, path string, progressCh chan<- int64) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("%w: error creating request: %w", utils.ErrNetwork, err))
	}
	req.Header.Set("Range", assignment.Header())
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", utils.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if err := checkRangeResponse(resp, assignment); err != nil {
		return 0, err
	}

	partFile, err := os.Create(path)
	if err != nil {
		return 0, backoff.Permanent(fmt.Errorf("%w: error creating part file: %w", utils.ErrIO, err))
	}
	defer partFile.Close()

	expected := assignment.Len()
	// one byte past the range is enough to tell an oversized body apart
	body := io.LimitReader(resp.Body, expected+1)
	buffer := make([]byte, utils.ChunkBufferSize)
	var written int64
	for {
		bytesRead, readErr := body.Read(buffer)
		if bytesRead > 0 {
			if _, writeErr := partFile.Write(buffer[:bytesRead]); writeErr != nil {
				return written, backoff.Permanent(fmt.Errorf("%w: error writing part file: %w", utils.ErrIO, writeErr))
			}
			written += int64(bytesRead)
			sendProgress(progressCh, int64(bytesRead))
		}
		if readErr != nil {
			if readErr == io.EOF {
				break
			}
			return written, fmt.Errorf("%w: error reading response body: %w", utils.ErrNetwork, readErr)
		}
	}
	if written != expected {
		return written, backoff.Permanent(fmt.Errorf("%w: expected %d bytes for %s, got %d", utils.ErrRangeUnsupported, expected, assignment.Header(), written))
	}
	if err := partFile.Close(); err != nil {
		return written, backoff.Permanent(fmt.Errorf("%w: error closing part file: %w", utils.ErrIO, err))
	}
	return written, nil
}

// checkRangeResponse rejects responses that would silently corrupt the
// artifact: a 200 to a ranged request, or a 206 for a different span.
func checkRangeResponse(resp *http.Response, assignment utils.RangeAssignment) error {
	switch {
	case resp.StatusCode == http.StatusPartialContent:
	case resp.StatusCode == http.StatusOK:
		return backoff.Permanent(fmt.Errorf("%w: status 200 for %s", utils.ErrRangeUnsupported, assignment.Header()))
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d for %s", utils.ErrNetwork, resp.StatusCode, assignment.Header())
	default:
		return backoff.Permanent(fmt.Errorf("%w: unexpected status %d for %s", utils.ErrNetwork, resp.StatusCode, assignment.Header()))
	}
	if contentRange := resp.Header.Get("Content-Range"); contentRange != "" {
		start, end, _, err := parseContentRange(contentRange)
		if err != nil {
			return backoff.Permanent(err)
		}
		if start != assignment.Start || end != assignment.End {
			return backoff.Permanent(fmt.Errorf("%w: asked for %s, got %q", utils.ErrRangeUnsupported, assignment.Header(), contentRange))
		}
	}
	if resp.ContentLength >= 0 && resp.ContentLength != assignment.Len() {
		return backoff.Permanent(fmt.Errorf("%w: Content-Length %d for %s", utils.ErrRangeUnsupported, resp.ContentLength, assignment.Header()))
	}
	return nil
}

func sendProgress(progressCh chan<- int64, n int64) {
	if progressCh != nil && n != 0 {
		progressCh <- n
	}
}
