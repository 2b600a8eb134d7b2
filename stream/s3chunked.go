package stream

import (
	"context"
	"io"

	"github.com/soto-project/soto-core-runtime/signer"
)

// S3ChunkedSequence wraps an upstream Source with SigV4 chunk signing: each
//64 KiB buffer becomes a framed, signed chunk, followed by a final
// zero-length terminator frame.
type S3ChunkedSequence struct {
	upstream *FixedSizeSequence
	data     signer.ChunkSigningData
	done     bool
	finished bool
}

// NewS3ChunkedSequence rebatches upstream into signer.ChunkSize buffers and
// signs each one in sequence, chained from the seed signing data returned by
// Signer.StartSigningChunks.
func NewS3ChunkedSequence(upstream Source, seed signer.ChunkSigningData) *S3ChunkedSequence {
	return &S3ChunkedSequence{
		upstream: NewFixedSizeSequence(upstream, signer.ChunkSize),
		data:     seed,
	}
}

func (s *S3ChunkedSequence) Next(ctx context.Context) ([]byte, error) {
	if s.finished {
		return nil, io.EOF
	}
	if s.done {
		s.finished = true
		s.data = s.data.SignChunk(nil)
		return signer.FinalChunk(s.data.Signature()), io.EOF
	}

	buf, err := s.upstream.Next(ctx)
	if err != nil && err != io.EOF {
		return nil, err
	}
	eof := err == io.EOF

	if eof && len(buf) == 0 {
		// No bytes remain (an empty body, or upstream ended right after a
		// full chunk): emit the terminator directly rather than framing a
		// spurious zero-length data chunk ahead of it.
		s.finished = true
		s.data = s.data.SignChunk(nil)
		return signer.FinalChunk(s.data.Signature()), io.EOF
	}

	s.data = s.data.SignChunk(buf)
	frame := signer.FrameChunk(buf, s.data.Signature())
	if eof {
		s.done = true
	}
	return frame, nil
}

// ContentLength computes the exact wire size (decoded length plus chunk
// framing overhead) so callers can advertise Content-Length ahead of
// streaming.
func ContentLength(decodedContentLength int64, signatureHexLen int) int64 {
	return decodedContentLength + signer.ChunkOverhead(decodedContentLength, signatureHexLen)
}
