// Package soto is the slim root package of the core runtime: the Client a
// caller constructs, the orchestrator entrypoint, and the error/transport/
// middleware surface built atop the pkg/-style subpackages (credentials,
// region, shape, protocol, signer, request, response, stream).
package soto

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"

	"golang.org/x/net/publicsuffix"

	"github.com/soto-project/soto-core-runtime/request"
	"github.com/soto-project/soto-core-runtime/stream"
)

// Request is the transport-facing request value: url, method, headers, body.
type Request struct {
	URL     string
	Method  string
	Headers http.Header
	Body    request.Body
}

// Response is the transport-facing response value: status, headers, and a
// pull-model body.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       stream.Source
}

// Transport is the external collaborator contract consumed by the
// orchestrator.
type Transport interface {
	Execute(ctx context.Context, req *Request, timeout time.Duration) (*Response, error)
	Shutdown() error
}

// HTTPTransport is the default Transport, wrapping *http.Client with a
// cookie jar that honors the public suffix list.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport builds the default transport.
func NewHTTPTransport() (*HTTPTransport, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("soto: building cookie jar: %w", err)
	}
	return &HTTPTransport{client: &http.Client{Jar: jar}}, nil
}

func (t *HTTPTransport) Execute(ctx context.Context, req *Request, timeout time.Duration) (*Response, error) {
	var body io.Reader
	switch {
	case req.Body.Stream != nil:
		body = &sourceReader{ctx: ctx, src: req.Body.Stream}
	case len(req.Body.Bytes) > 0:
		body = bytes.NewReader(req.Body.Bytes)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("soto: building HTTP request: %w", err)
	}
	httpReq.Header = req.Headers
	if req.Body.Stream != nil && req.Body.Length != nil {
		httpReq.ContentLength = *req.Body.Length
	}

	client := t.client
	if timeout > 0 {
		c := *t.client
		c.Timeout = timeout
		client = &c
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, &RetryableError{Err: err}
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       stream.FromReader(resp.Body, 32*1024),
	}, nil
}

func (t *HTTPTransport) Shutdown() error {
	t.client.CloseIdleConnections()
	return nil
}

// sourceReader adapts a stream.Source into an io.Reader so it can be
// handed to *http.Request as its Body.
type sourceReader struct {
	ctx     context.Context
	src     stream.Source
	pending []byte
	err     error
}

func (r *sourceReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 && r.err == nil {
		r.pending, r.err = r.src.Next(r.ctx)
	}
	if len(r.pending) == 0 {
		return 0, r.err
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}
