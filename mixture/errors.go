package mixture

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration marks invalid parameters detected before any work starts.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrSelection means no eligible clip could be selected for the drawn genre.
	ErrSelection = errors.New("no clips selected")
	// ErrSilentMixture means the summed mixture had no signal to normalize.
	ErrSilentMixture = errors.New("mixture is silent")
	// ErrTooManyWriteFailures aborts a batch once output writes keep failing.
	ErrTooManyWriteFailures = errors.New("too many output write failures")
)

const (
	OpRead  = "read"
	OpWrite = "write"
)

// AssetError reports an unreadable source or an unwritable output file.
type AssetError struct {
	Op   string // OpRead or OpWrite
	Path string
	Err  error
}

func (e *AssetError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *AssetError) Unwrap() error {
	return e.Err
}

func configErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}
