package accelhttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/tanq16/accel/internal/utils"
)

// ResolveSize returns the total byte length of spec.URL. A known size skips
// the network entirely.
func ResolveSize(ctx context.Context, spec utils.DownloadSpec, client *utils.AccelHTTPClient) (int64, error) {
	if spec.KnownSize > 0 {
		return spec.KnownSize, nil
	}
	if spec.SizeMode == utils.SizeFromURL {
		return sizeFromURL(spec.URL)
	}
	return probeSize(ctx, spec.URL, client)
}

func sizeFromURL(link string) (int64, error) {
	parsedURL, err := url.Parse(link)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid URL: %w", utils.ErrParse, err)
	}
	raw := parsedURL.Query().Get(utils.SizeQueryParam)
	if raw == "" {
		return 0, fmt.Errorf("%w: query parameter %q not present", utils.ErrMissingLength, utils.SizeQueryParam)
	}
	size, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || size < 0 {
		return 0, fmt.Errorf("%w: query parameter %s=%q is not a byte count", utils.ErrParse, utils.SizeQueryParam, raw)
	}
	return size, nil
}

func probeSize(ctx context.Context, link string, client *utils.AccelHTTPClient) (int64, error) {
	log := utils.GetLogger("http/size")
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, link, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: error creating HEAD request: %w", utils.ErrNetwork, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: HEAD request failed: %w", utils.ErrNetwork, err)
	}
	resp.Body.Close()
	for key, values := range resp.Header {
		log.Debug().Str("header", key).Strs("values", values).Msg("HEAD response header")
	}

	headUnsupported := resp.StatusCode == http.StatusMethodNotAllowed || resp.StatusCode == http.StatusNotImplemented
	if resp.StatusCode >= 400 && !headUnsupported {
		return 0, fmt.Errorf("%w: HEAD returned status %d", utils.ErrNetwork, resp.StatusCode)
	}
	if contentLength := resp.Header.Get("Content-Length"); contentLength != "" && !headUnsupported {
		size, err := strconv.ParseInt(contentLength, 10, 64)
		if err != nil || size < 0 {
			return 0, fmt.Errorf("%w: Content-Length %q", utils.ErrParse, contentLength)
		}
		return size, nil
	}
	log.Debug().Int("status", resp.StatusCode).Msg("No usable Content-Length on HEAD, probing with ranged GET")
	return probeRangedSize(ctx, link, client)
}

// probeRangedSize asks for the first byte only and reads the total from the
// Content-Range suffix. The Range header lives on this request alone.
func probeRangedSize(ctx context.Context, link string, client *utils.AccelHTTPClient) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: error creating probe request: %w", utils.ErrNetwork, err)
	}
	req.Header.Set("Range", "bytes=0-0")
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: probe request failed: %w", utils.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusPartialContent {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64))
	}
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusRequestedRangeNotSatisfiable {
		return 0, fmt.Errorf("%w: probe returned status %d", utils.ErrNetwork, resp.StatusCode)
	}
	contentRange := resp.Header.Get("Content-Range")
	if contentRange == "" {
		return 0, fmt.Errorf("%w: no Content-Length on HEAD and no Content-Range on ranged GET", utils.ErrMissingLength)
	}
	_, _, total, err := parseContentRange(contentRange)
	if err != nil {
		return 0, err
	}
	if total < 0 {
		return 0, fmt.Errorf("%w: Content-Range %q has unknown total", utils.ErrMissingLength, contentRange)
	}
	return total, nil
}

// parseContentRange parses "bytes <start>-<end>/<total>". start and end are -1
// for the unsatisfied form "bytes */<total>", total is -1 when given as "*".
func parseContentRange(header string) (start, end, total int64, err error) {
	start, end, total = -1, -1, -1
	spec, ok := strings.CutPrefix(strings.TrimSpace(header), "bytes ")
	if !ok {
		return start, end, total, fmt.Errorf("%w: Content-Range %q", utils.ErrParse, header)
	}
	span, size, ok := strings.Cut(spec, "/")
	if !ok {
		return start, end, total, fmt.Errorf("%w: Content-Range %q", utils.ErrParse, header)
	}
	if size != "*" {
		if total, err = strconv.ParseInt(size, 10, 64); err != nil || total < 0 {
			return -1, -1, -1, fmt.Errorf("%w: Content-Range total %q", utils.ErrParse, size)
		}
	}
	if span == "*" {
		return start, end, total, nil
	}
	first, last, ok := strings.Cut(span, "-")
	if !ok {
		return -1, -1, -1, fmt.Errorf("%w: Content-Range %q", utils.ErrParse, header)
	}
	if start, err = strconv.ParseInt(first, 10, 64); err != nil {
		return -1, -1, -1, fmt.Errorf("%w: Content-Range start %q", utils.ErrParse, first)
	}
	if end, err = strconv.ParseInt(last, 10, 64); err != nil || end < start {
		return -1, -1, -1, fmt.Errorf("%w: Content-Range end %q", utils.ErrParse, last)
	}
	return start, end, total, nil
}
