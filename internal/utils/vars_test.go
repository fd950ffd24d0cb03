package utils

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("%w: status 503", ErrNetwork), "NetworkError"},
		{fmt.Errorf("wrapped: %w", ErrMissingLength), "MissingLengthError"},
		{ErrParse, "ParseError"},
		{fmt.Errorf("%w: disk full", ErrIO), "IOError"},
		{&RangeError{Index: 2, Err: fmt.Errorf("%w: status 200", ErrRangeUnsupported)}, "RangeUnsupportedError"},
		{fmt.Errorf("%w: %w", ErrNetwork, context.Canceled), "Canceled"},
		// a range that was ignored outranks siblings that only saw cancellation
		{errors.Join(&RangeError{Index: 0, Err: fmt.Errorf("%w: %w", ErrNetwork, context.Canceled)}, &RangeError{Index: 1, Err: ErrRangeUnsupported}), "RangeUnsupportedError"},
		{errors.New("boom"), "Error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorKind(tt.err))
	}
}

func TestRangeError(t *testing.T) {
	err := fmt.Errorf("download failed: %w", &RangeError{Index: 4, Err: fmt.Errorf("%w: status 404", ErrNetwork)})
	assert.ErrorIs(t, err, ErrNetwork)
	var rangeErr *RangeError
	assert.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, 4, rangeErr.Index)
	assert.Equal(t, "range 4: network error: status 404", rangeErr.Error())
}

func TestRangeAssignment(t *testing.T) {
	r := RangeAssignment{Index: 1, Start: 333, End: 665}
	assert.Equal(t, int64(333), r.Len())
	assert.Equal(t, "bytes=333-665", r.Header())
}
