package stream

import (
	"encoding/binary"
	"hash/crc32"
)

// EncodeFrame builds one wire frame from headers and a payload — the
// inverse of tryDecodeFrame, used by tests and by any future event-stream
// producer.
func EncodeFrame(headers []EventHeader, payload []byte) []byte {
	var headerBytes []byte
	for _, h := range headers {
		headerBytes = append(headerBytes, byte(len(h.Name)))
		headerBytes = append(headerBytes, h.Name...)
		headerBytes = append(headerBytes, 0x07)
		valLen := make([]byte, 2)
		binary.BigEndian.PutUint16(valLen, uint16(len(h.Value)))
		headerBytes = append(headerBytes, valLen...)
		headerBytes = append(headerBytes, h.Value...)
	}

	totalLen := uint32(frameOverhead + len(headerBytes) + len(payload))
	prelude := make([]byte, preludeLen)
	binary.BigEndian.PutUint32(prelude[0:4], totalLen)
	binary.BigEndian.PutUint32(prelude[4:8], uint32(len(headerBytes)))
	preludeCRC := crc32.ChecksumIEEE(prelude)

	out := make([]byte, 0, totalLen)
	out = append(out, prelude...)
	crcBuf := make([]byte, 4)
	binary.BigEndian.PutUint32(crcBuf, preludeCRC)
	out = append(out, crcBuf...)
	out = append(out, headerBytes...)
	out = append(out, payload...)

	messageCRC := crc32.ChecksumIEEE(out)
	binary.BigEndian.PutUint32(crcBuf, messageCRC)
	out = append(out, crcBuf...)
	return out
}
