package request

import "fmt"

// InvalidURLError reports that the endpoint or path template produced an
// unparseable URL, or that a required path component was empty. Fatal.
type InvalidURLError struct {
	Reason string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("request: invalid URL: %s", e.Reason)
}

// StreamingNotAllowedError reports that a streaming body was supplied for
// an operation shape lacking allowStreaming. Fatal
// (programmer error).
type StreamingNotAllowedError struct {
	OperationName string
}

func (e *StreamingNotAllowedError) Error() string {
	return fmt.Sprintf("request: operation %s does not allow a streaming body", e.OperationName)
}

// ChunkedStreamingNotAllowedError reports that a streaming body of unknown
// length was supplied for an operation shape lacking allowChunkedStreaming.
type ChunkedStreamingNotAllowedError struct {
	OperationName string
}

func (e *ChunkedStreamingNotAllowedError) Error() string {
	return fmt.Sprintf("request: operation %s does not allow chunked (unknown-length) streaming", e.OperationName)
}
