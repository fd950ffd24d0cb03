package output

import (
	"fmt"
	"os"

	"github.com/tanq16/accel/internal/utils"
	"golang.org/x/term"
)

// FormatBytes converts bytes to human-readable format
func FormatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func FormatSpeed(bytesPerSecond float64) string {
	if bytesPerSecond <= 0 {
		return "0 B/s"
	}
	return FormatBytes(uint64(bytesPerSecond)) + "/s"
}

// SummaryLine is the one-line result of a successful download:
// url, threads, bytes, elapsed seconds and average throughput.
func SummaryLine(report *utils.DownloadReport) string {
	return fmt.Sprintf("%s %d %d %.3fs %s",
		report.URL,
		report.Threads,
		report.TotalSize,
		report.Elapsed.Seconds(),
		FormatSpeed(report.Throughput),
	)
}

func PrintSummary(report *utils.DownloadReport) {
	PrintSuccess(fmt.Sprintf("Downloaded %s (%s)", report.OutputPath, FormatBytes(uint64(report.TotalSize))))
	PrintDetail(SummaryLine(report))
}

// IsTerminal reports whether stderr, where progress is drawn, is a TTY.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || width <= 0 {
		return 80 // Default fallback width
	}
	return width
}
