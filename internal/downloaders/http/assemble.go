package accelhttp

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"

	"github.com/tanq16/accel/internal/utils"
)

// Merge recreates artifactPath and appends every part in ascending index
// order, deleting each part once its bytes are copied. On error the artifact
// is left partially written and the remaining parts are left for the caller.
func Merge(parts []PartStore, artifactPath string) (int64, error) {
	log := utils.GetLogger("http/assembler")
	ordered := make([]PartStore, len(parts))
	copy(ordered, parts)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Index < ordered[j].Index
	})
	for i, part := range ordered {
		if part.Path == "" || part.Index != i {
			return 0, fmt.Errorf("%w: part %d is missing", utils.ErrIO, i)
		}
	}

	if err := os.Remove(artifactPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: error removing existing artifact: %w", utils.ErrIO, err)
	}
	destFile, err := os.OpenFile(artifactPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return 0, fmt.Errorf("%w: error creating artifact: %w", utils.ErrIO, err)
	}
	defer destFile.Close()

	var totalWritten int64
	for _, part := range ordered {
		written, err := appendPart(destFile, part)
		totalWritten += written
		if err != nil {
			return totalWritten, err
		}
		if err := part.Remove(); err != nil {
			return totalWritten, err
		}
		log.Debug().Int("rangeIndex", part.Index).Int64("bytes", written).Msg("Part merged")
	}
	if err := destFile.Sync(); err != nil {
		return totalWritten, fmt.Errorf("%w: error syncing artifact: %w", utils.ErrIO, err)
	}
	if err := destFile.Close(); err != nil {
		return totalWritten, fmt.Errorf("%w: error closing artifact: %w", utils.ErrIO, err)
	}
	log.Debug().Int64("totalBytes", totalWritten).Str("outputFile", artifactPath).Msg("File assembly completed")
	return totalWritten, nil
}

func appendPart(dest io.Writer, part PartStore) (int64, error) {
	partFile, err := os.Open(part.Path)
	if err != nil {
		return 0, fmt.Errorf("%w: error opening part %d: %w", utils.ErrIO, part.Index, err)
	}
	defer partFile.Close()
	written, err := io.Copy(dest, partFile)
	if err != nil {
		return written, fmt.Errorf("%w: error copying part %d: %w", utils.ErrIO, part.Index, err)
	}
	if written != part.Size {
		return written, fmt.Errorf("%w: part %d holds %d bytes, expected %d", utils.ErrIO, part.Index, written, part.Size)
	}
	return written, nil
}
