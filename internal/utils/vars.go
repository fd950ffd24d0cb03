package utils

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

const ChunkBufferSize = 512 * 1024     // per-read buffer for range bodies
const SocketBufferSize = 1024 * 1024   // SO_RCVBUF/SO_SNDBUF in high thread mode
const SizeQueryParam = "fsize"         // used by SizeFromURL
const DefaultOutputName = "index.html" // when nothing can be derived from the URL

var PartIDRegex = regexp.MustCompile(`_part_(\d+)$`)

var (
	ErrNetwork          = errors.New("network error")
	ErrMissingLength    = errors.New("content length could not be determined")
	ErrParse            = errors.New("malformed value")
	ErrRangeUnsupported = errors.New("server did not honor the range request")
	ErrIO               = errors.New("local i/o error")
)

// RangeError ties a worker failure to the range it was fetching.
type RangeError struct {
	Index int
	Err   error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range %d: %v", e.Index, e.Err)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}

// ErrorKind names the failure class of err for terminal diagnostics.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrRangeUnsupported):
		return "RangeUnsupportedError"
	case errors.Is(err, ErrMissingLength):
		return "MissingLengthError"
	case errors.Is(err, ErrParse):
		return "ParseError"
	case errors.Is(err, ErrIO):
		return "IOError"
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.Is(err, ErrNetwork):
		return "NetworkError"
	}
	return "Error"
}
