package transcode

import (
	"context"
	"fmt"
)

// Result is the output of one conversion.
type Result struct {
	Data      []byte
	Extension string
}

// Backend converts a single source at a time.
//
// Initialize must be idempotent: after one success later calls return
// immediately, and after a failure the next call tries again. Convert
// reports progress in [0,100] through onProgress (which may be nil) and
// must not be called concurrently.
type Backend interface {
	Initialize(ctx context.Context) error
	Convert(ctx context.Context, src Source, opts Options, onProgress func(float64)) (Result, error)
}

// BackendInitError reports that the backend could not be made ready.
type BackendInitError struct {
	Err error
}

func (e *BackendInitError) Error() string {
	return fmt.Sprintf("transcoder initialization failed: %v", e.Err)
}

func (e *BackendInitError) Unwrap() error { return e.Err }

// ConversionError reports a failed conversion of one source.
type ConversionError struct {
	Source string
	Err    error
}

func (e *ConversionError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("conversion failed: %v", e.Err)
	}
	return fmt.Sprintf("conversion of %s failed: %v", e.Source, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }
