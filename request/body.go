package request

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/base64"
	"hash"
	"hash/crc32"

	"github.com/soto-project/soto-core-runtime/shape"
	"github.com/soto-project/soto-core-runtime/stream"
)

// Body is a tagged union of the two ways a request body is carried: either a
// materialized byte buffer or a pull-model async sequence, whose Length is
// nil when unknown (triggering chunked transfer encoding).
type Body struct {
	Bytes  []byte // set when the body is a byteBuffer
	Stream stream.Source
	Length *int64 // only meaningful alongside Stream
}

func (b Body) isStreaming() bool { return b.Stream != nil }

// crc32cTable is the Castagnoli polynomial table; the standard library
// already implements Castagnoli support directly via hash/crc32.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// ComputeChecksum computes the header value
// for one of the five recognized checksum algorithms over a materialized
// body. Never called for streaming bodies.
func ComputeChecksum(algorithm shape.ChecksumAlgorithm, body []byte) string {
	var h hash.Hash
	switch algorithm {
	case shape.ChecksumCRC32:
		sum := crc32.ChecksumIEEE(body)
		return base64.StdEncoding.EncodeToString([]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)})
	case shape.ChecksumCRC32C:
		sum := crc32.Checksum(body, crc32cTable)
		return base64.StdEncoding.EncodeToString([]byte{byte(sum >> 24), byte(sum >> 16), byte(sum >> 8), byte(sum)})
	case shape.ChecksumSHA1:
		h = sha1.New()
	case shape.ChecksumSHA256:
		h = sha256.New()
	case shape.ChecksumMD5:
		h = md5.New()
	default:
		return ""
	}
	h.Write(body)
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
