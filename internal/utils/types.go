package utils

import (
	"fmt"
	"time"
)

type SizeMode int

const (
	SizeFromHead SizeMode = iota // HEAD probe, ranged GET fallback
	SizeFromURL                  // parse the fsize query parameter
)

type Credential struct {
	Username string
	Password string
}

type HTTPClientConfig struct {
	Timeout        time.Duration
	KATimeout      time.Duration
	ProxyURL       string
	ProxyUsername  string
	ProxyPassword  string
	UserAgent      string
	Headers        map[string]string
	Credential     *Credential
	Insecure       bool
	HighThreadMode bool // advanced socket options for high concurrency
}

// DownloadSpec is the configuration of one download. It is built once from
// flags and config and is not mutated afterwards.
type DownloadSpec struct {
	URL              string
	OutputPath       string
	Threads          int
	KnownSize        int64 // 0 means resolve it
	SizeMode         SizeMode
	Retries          int
	RetryWait        time.Duration
	HTTPClientConfig HTTPClientConfig
}

// RangeAssignment is an inclusive byte range handled by exactly one worker.
type RangeAssignment struct {
	Index int
	Start int64
	End   int64
}

func (r RangeAssignment) Len() int64 {
	return r.End - r.Start + 1
}

func (r RangeAssignment) Header() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

type DownloadReport struct {
	URL        string
	OutputPath string
	Threads    int
	TotalSize  int64
	Elapsed    time.Duration
	Throughput float64 // bytes per second
}
