package signer

import (
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ChunkSigningData threads the signature chain across consecutive S3
// chunked-upload signature calls.
type ChunkSigningData struct {
	signingKey []byte
	scope      string
	amzDate    string
	prevSig    string
}

// StartSigningChunks computes the seed signature over headers (body hash
// STREAMING-AWS4-HMAC-SHA256-PAYLOAD) and returns the augmented header set
// plus the initial chain state. decodedContentLength is the true (unsigned)
// payload size; it drives x-amz-decoded-content-length.
func (s *Signer) StartSigningChunks(req Request, date time.Time, decodedContentLength int64) (http.Header, ChunkSigningData, error) {
	if s.Credential.IsEmpty() {
		return nil, ChunkSigningData{}, fmt.Errorf("signer: chunked signing requires non-anonymous credentials")
	}

	headers := cloneHeaders(req.Headers)
	headers.Set("x-amz-decoded-content-length", strconv.FormatInt(decodedContentLength, 10))
	headers.Set("content-encoding", "aws-chunked")

	req.Body = Payload{Kind: PayloadS3Chunked}
	req.Headers = headers
	signed := s.SignHeaders(req, date, false)

	auth := signed.Get("Authorization")
	seedSig, err := signatureFromAuthHeader(auth)
	if err != nil {
		return nil, ChunkSigningData{}, err
	}

	data := ChunkSigningData{
		signingKey: SigningKey(s.Credential.SecretAccessKey, date, s.Region, s.Service),
		scope:      s.scope(date),
		amzDate:    date.Format(iso8601DateTime),
		prevSig:    seedSig,
	}
	return signed, data, nil
}

func signatureFromAuthHeader(auth string) (string, error) {
	const marker = "Signature="
	i := indexOf(auth, marker)
	if i < 0 {
		return "", fmt.Errorf("signer: malformed Authorization header %q", auth)
	}
	return auth[i+len(marker):], nil
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// SignChunk produces the next chunk signature in the chain:
//
//	stringToSign = "AWS4-HMAC-SHA256-PAYLOAD\n{date}\n{scope}\n{prevSig}\n{hex(sha256(""))}\n{hex(sha256(body))}"
func (data ChunkSigningData) SignChunk(body []byte) ChunkSigningData {
	stringToSign := fmt.Sprintf("AWS4-HMAC-SHA256-PAYLOAD\n%s\n%s\n%s\n%s\n%s",
		data.amzDate, data.scope, data.prevSig, emptyStringSHA256, sha256Hex(body))
	signature := hex.EncodeToString(hmacSHA256(data.signingKey, []byte(stringToSign)))
	return ChunkSigningData{
		signingKey: data.signingKey,
		scope:      data.scope,
		amzDate:    data.amzDate,
		prevSig:    signature,
	}
}

// Signature returns the chunk signature this state represents (the
// signature of the chunk most recently signed, or the seed signature
// before any chunk has been signed).
func (data ChunkSigningData) Signature() string { return data.prevSig }

var emptyStringSHA256 = sha256Hex(nil)

// ChunkSize is the fixed 64 KiB framing unit used by the S3 chunked upload
// signer.
const ChunkSize = 64 * 1024

// FrameChunk renders one signed chunk on the wire:
// "{hex-size};chunk-signature={sig}\r\n{body}\r\n".
func FrameChunk(body []byte, signature string) []byte {
	header := fmt.Sprintf("%x;chunk-signature=%s\r\n", len(body), signature)
	out := make([]byte, 0, len(header)+len(body)+2)
	out = append(out, header...)
	out = append(out, body...)
	out = append(out, '\r', '\n')
	return out
}

// FinalChunk renders the zero-length terminating frame:
// "0;chunk-signature={sig}\r\n\r\n".
func FinalChunk(signature string) []byte {
	return []byte(fmt.Sprintf("0;chunk-signature=%s\r\n\r\n", signature))
}

// ChunkOverhead returns the number of wire bytes consumed by chunk framing
// (not counting body bytes) for a payload of decodedContentLength split
// into ChunkSize chunks plus the terminator. Useful for computing
// Content-Length ahead of streaming.
func ChunkOverhead(decodedContentLength int64, signatureLen int) int64 {
	if decodedContentLength < 0 {
		return 0
	}
	fullChunks := decodedContentLength / ChunkSize
	remainder := decodedContentLength % ChunkSize
	chunkCount := fullChunks
	if remainder > 0 {
		chunkCount++
	}
	perChunkOverhead := func(size int64) int64 {
		sizeHex := fmt.Sprintf("%x", size)
		// "{hex};chunk-signature={sig}\r\n" + trailing "\r\n"
		return int64(len(sizeHex)) + int64(len(";chunk-signature=")) + int64(signatureLen) + 2 + 2
	}
	var total int64
	for i := int64(0); i < fullChunks; i++ {
		total += perChunkOverhead(ChunkSize)
	}
	if remainder > 0 {
		total += perChunkOverhead(remainder)
	}
	// terminator: "0;chunk-signature={sig}\r\n\r\n"
	total += int64(len("0")) + int64(len(";chunk-signature=")) + int64(signatureLen) + 2 + 2
	return total
}
