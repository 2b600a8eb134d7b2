package shape

// Options is a per-shape-type bitset controlling streaming, checksum, and
// payload behavior. Generated code attaches one Options value to every
// input/output shape definition.
type Options uint8

const (
	AllowStreaming Options = 1 << iota
	AllowChunkedStreaming
	RawPayload
	ChecksumHeader
	ChecksumRequired
	MD5ChecksumHeader
)

func (o Options) Has(flag Options) bool { return o&flag != 0 }

// ChecksumAlgorithm enumerates the algorithms a checksum-bearing shape may
// request via x-amz-sdk-checksum-algorithm.
type ChecksumAlgorithm string

const (
	ChecksumCRC32  ChecksumAlgorithm = "CRC32"
	ChecksumCRC32C ChecksumAlgorithm = "CRC32C"
	ChecksumSHA1   ChecksumAlgorithm = "SHA1"
	ChecksumSHA256 ChecksumAlgorithm = "SHA256"
	ChecksumMD5    ChecksumAlgorithm = "MD5"
)

// HeaderName returns the response/request header the algorithm's checksum
// is carried in.
func (a ChecksumAlgorithm) HeaderName() string {
	switch a {
	case ChecksumCRC32:
		return "x-amz-checksum-crc32"
	case ChecksumCRC32C:
		return "x-amz-checksum-crc32c"
	case ChecksumSHA1:
		return "x-amz-checksum-sha1"
	case ChecksumSHA256:
		return "x-amz-checksum-sha256"
	case ChecksumMD5:
		return "x-amz-checksum-md5"
	default:
		return ""
	}
}

// Shape is the single capability interface every generated input/output
// type implements; streaming, checksum, and payload behavior are compile-
// time marker flags carried on Options rather than separate interfaces.
type Shape interface {
	ShapeOptions() Options
}

// PayloadShape is implemented by shapes carrying a dedicated payload
// member.
type PayloadShape interface {
	Shape
	PayloadMemberName() string
}

// PaginateToken is implemented by input shapes that can be rebuilt with a
// new pagination token.
type PaginateToken interface {
	UsingPaginationToken(token string) PaginateToken
}
