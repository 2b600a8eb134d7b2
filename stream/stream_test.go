package stream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/soto-project/soto-core-runtime/signer"
)

func TestFixedSizeSequencePartialLastChunk(t *testing.T) {
	upstream := FromBytes(bytes.Repeat([]byte{0x41}, 20))
	seq := NewFixedSizeSequence(upstream, 8)

	ctx := context.Background()
	var got [][]byte
	for {
		buf, err := seq.Next(ctx)
		if len(buf) > 0 {
			got = append(got, append([]byte(nil), buf...))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(got) != 3 || len(got[0]) != 8 || len(got[1]) != 8 || len(got[2]) != 4 {
		t.Fatalf("unexpected chunking: %v", lengths(got))
	}
}

func lengths(bufs [][]byte) []int {
	out := make([]int, len(bufs))
	for i, b := range bufs {
		out[i] = len(b)
	}
	return out
}

func TestEventStreamRoundTrip(t *testing.T) {
	frame := EncodeFrame([]EventHeader{
		{Name: ":event-type", Value: "Records"},
	}, []byte("hello"))

	dec := NewEventDecoder(FromBytes(frame))
	ev, err := dec.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ev.EventType != "Records" || string(ev.Payload) != "hello" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	_, err = dec.Next(context.Background())
	if err != io.EOF {
		t.Fatalf("expected EOF after single frame, got %v", err)
	}
}

func TestEventStreamCorruptPayload(t *testing.T) {
	frame := EncodeFrame([]EventHeader{{Name: ":event-type", Value: "Records"}}, []byte("hello"))
	// Flip a bit in the payload.
	frame[len(frame)-6] ^= 0xFF

	dec := NewEventDecoder(FromBytes(frame))
	_, err := dec.Next(context.Background())
	if err != ErrCorruptPayload {
		t.Fatalf("expected ErrCorruptPayload, got %v", err)
	}
}

func TestEventStreamErrorFrame(t *testing.T) {
	frame := EncodeFrame([]EventHeader{{Name: ":message-type", Value: "error"}}, nil)
	dec := NewEventDecoder(FromBytes(frame))
	ev, err := dec.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !ev.IsError {
		t.Fatal("expected IsError to be set")
	}
}

// splitSource delivers a pre-built byte slice in two separate Next calls,
// simulating a frame split across two buffer deliveries.
type splitSource struct {
	parts [][]byte
	i     int
}

func (s *splitSource) Next(ctx context.Context) ([]byte, error) {
	if s.i >= len(s.parts) {
		return nil, io.EOF
	}
	p := s.parts[s.i]
	s.i++
	if s.i == len(s.parts) {
		return p, io.EOF
	}
	return p, nil
}

func TestS3ChunkedSequenceFramesAndSigns(t *testing.T) {
	sgn := signer.New(signer.Credential{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY",
	}, "us-east-1", "s3")

	u, err := url.Parse("https://examplebucket.s3.amazonaws.com/chunkObject.txt")
	if err != nil {
		t.Fatal(err)
	}
	date := time.Date(2013, 5, 24, 0, 0, 0, 0, time.UTC)

	body := bytes.Repeat([]byte{'a'}, signer.ChunkSize+10)
	_, seed, err := sgn.StartSigningChunks(signer.Request{
		Method:  http.MethodPut,
		URL:     u,
		Headers: http.Header{},
	}, date, int64(len(body)))
	if err != nil {
		t.Fatal(err)
	}

	seq := NewS3ChunkedSequence(FromBytes(body), seed)

	var frames [][]byte
	ctx := context.Background()
	for {
		frame, err := seq.Next(ctx)
		if len(frame) > 0 {
			frames = append(frames, append([]byte(nil), frame...))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	// One full ChunkSize-byte chunk, one 10-byte chunk, then the zero-length
	// terminator.
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}
	if !bytes.HasPrefix(frames[0], []byte(fmt.Sprintf("%x;chunk-signature=", signer.ChunkSize))) {
		t.Fatalf("frame 0: expected %d-byte chunk header, got %q", signer.ChunkSize, frames[0][:20])
	}
	if !bytes.HasPrefix(frames[1], []byte("a;chunk-signature=")) {
		t.Fatalf("frame 1: expected 10-byte (0xa) chunk header, got %q", frames[1][:20])
	}
	if !bytes.HasPrefix(frames[2], []byte("0;chunk-signature=")) {
		t.Fatalf("expected terminator frame, got %q", frames[2])
	}
	if !bytes.HasSuffix(frames[2], []byte("\r\n\r\n")) {
		t.Fatal("expected terminator frame to end with a blank line")
	}
}

func TestS3ChunkedSequenceEmptyBodyEmitsSingleTerminator(t *testing.T) {
	sgn := signer.New(signer.Credential{
		AccessKeyID:     "AKIDEXAMPLE",
		SecretAccessKey: "wJalrXUtnFEMI/K7MDENG/bPxRfiCYEXAMPLEKEY",
	}, "us-east-1", "s3")

	u, err := url.Parse("https://examplebucket.s3.amazonaws.com/empty.txt")
	if err != nil {
		t.Fatal(err)
	}
	date := time.Date(2013, 5, 24, 0, 0, 0, 0, time.UTC)

	_, seed, err := sgn.StartSigningChunks(signer.Request{
		Method:  http.MethodPut,
		URL:     u,
		Headers: http.Header{},
	}, date, 0)
	if err != nil {
		t.Fatal(err)
	}

	seq := NewS3ChunkedSequence(FromBytes(nil), seed)

	var frames [][]byte
	ctx := context.Background()
	for {
		frame, err := seq.Next(ctx)
		if len(frame) > 0 {
			frames = append(frames, append([]byte(nil), frame...))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
	}

	if len(frames) != 1 {
		t.Fatalf("expected exactly 1 terminator frame for an empty body, got %d", len(frames))
	}
	if !bytes.HasPrefix(frames[0], []byte("0;chunk-signature=")) {
		t.Fatalf("expected terminator frame, got %q", frames[0])
	}
	if !bytes.HasSuffix(frames[0], []byte("\r\n\r\n")) {
		t.Fatal("expected terminator frame to end with a blank line")
	}
}

func TestEventStreamSplitAcrossDeliveries(t *testing.T) {
	frame := EncodeFrame([]EventHeader{{Name: ":event-type", Value: "X"}}, []byte("0123456789"))
	mid := len(frame) / 2
	src := &splitSource{parts: [][]byte{frame[:mid], frame[mid:]}}

	dec := NewEventDecoder(src)
	ev, err := dec.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if string(ev.Payload) != "0123456789" {
		t.Fatalf("unexpected payload: %q", ev.Payload)
	}
}
