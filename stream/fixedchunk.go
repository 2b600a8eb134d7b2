package stream

import (
	"context"
	"errors"
	"io"
)

// FixedSizeSequence wraps an upstream Source and yields buffers of exactly
// chunkSize bytes, except possibly the last. It carries at most one pending buffer
// between Next calls, propagates whatever error the upstream raises, and
// terminates when the upstream terminates.
type FixedSizeSequence struct {
	upstream    Source
	chunkSize   int
	pending     []byte
	upstreamEOF bool
}

// NewFixedSizeSequence rebatches upstream into chunkSize-byte buffers.
func NewFixedSizeSequence(upstream Source, chunkSize int) *FixedSizeSequence {
	return &FixedSizeSequence{upstream: upstream, chunkSize: chunkSize}
}

func (f *FixedSizeSequence) Next(ctx context.Context) ([]byte, error) {
	for len(f.pending) < f.chunkSize && !f.upstreamEOF {
		buf, err := f.upstream.Next(ctx)
		f.pending = append(f.pending, buf...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				f.upstreamEOF = true
				break
			}
			return nil, err
		}
	}

	switch {
	case len(f.pending) >= f.chunkSize:
		out := f.pending[:f.chunkSize]
		f.pending = f.pending[f.chunkSize:]
		if len(f.pending) == 0 && f.upstreamEOF {
			return out, io.EOF
		}
		return out, nil
	case f.upstreamEOF:
		out := f.pending
		f.pending = nil
		return out, io.EOF
	default:
		return nil, nil
	}
}
