package testsupport

import (
	"context"
	"errors"
	"sync"

	"cadence/internal/transcode"
)

// StubBackend is a transcode.Backend that returns canned output without
// running ffmpeg. Sources whose name appears in Fail produce that error.
type StubBackend struct {
	Data []byte
	Fail map[string]error
	// Gate, when set, blocks each Convert until a value is received or ctx ends.
	Gate chan struct{}

	mu        sync.Mutex
	converted []string
}

// Initialize always succeeds.
func (b *StubBackend) Initialize(context.Context) error { return nil }

// Convert reports 0, 50 and 100 percent and returns Data in the requested format.
func (b *StubBackend) Convert(ctx context.Context, src transcode.Source, opts transcode.Options, onProgress func(float64)) (transcode.Result, error) {
	if onProgress != nil {
		onProgress(0)
	}
	if b.Gate != nil {
		select {
		case <-b.Gate:
		case <-ctx.Done():
			return transcode.Result{}, &transcode.ConversionError{Source: src.Name(), Err: ctx.Err()}
		}
	}
	b.mu.Lock()
	b.converted = append(b.converted, src.Name())
	b.mu.Unlock()
	if err, ok := b.Fail[src.Name()]; ok {
		if err == nil {
			err = errors.New("stub conversion failed")
		}
		return transcode.Result{}, &transcode.ConversionError{Source: src.Name(), Err: err}
	}
	if onProgress != nil {
		onProgress(50)
		onProgress(100)
	}
	data := b.Data
	if data == nil {
		data = []byte("converted:" + src.Name())
	}
	return transcode.Result{Data: data, Extension: opts.Format.Extension()}, nil
}

// Converted lists source names in conversion order.
func (b *StubBackend) Converted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.converted...)
}
