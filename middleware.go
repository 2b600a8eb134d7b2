package soto

import (
	"context"
	"log/slog"
	"time"
)

// Handler executes one request and returns its response. The tail handler
// of a stack performs the actual signing and transport invocation: the
// entire signing step runs inside the stack's innermost next, so
// middlewares observe the unsigned request.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Middleware wraps a Handler to produce another Handler.
type Middleware func(next Handler) Handler

// Chain composes middlewares around a tail handler, outermost first: the
// first entry of mws is the outermost layer a request passes through, the
// tail is innermost and nearest the transport.
func Chain(mws []Middleware, tail Handler) Handler {
	h := tail
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// LoggingMiddleware logs request/response pairs at debug level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)
			if err != nil {
				logger.DebugContext(ctx, "request failed", "method", req.Method, "url", req.URL, "elapsed", time.Since(start), "error", err)
				return resp, err
			}
			logger.DebugContext(ctx, "request completed", "method", req.Method, "url", req.URL, "status", resp.StatusCode, "elapsed", time.Since(start))
			return resp, err
		}
	}
}

// EndpointRewriteMiddleware lets a caller rewrite the request URL before
// signing — e.g. routing through a custom endpoint or a test proxy.
func EndpointRewriteMiddleware(rewrite func(req *Request)) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			rewrite(req)
			return next(ctx, req)
		}
	}
}

// ResponseValidatorMiddleware lets a caller inspect a successful response
// (after it has traveled back out through the stack) and reject it by
// returning a non-nil error.
func ResponseValidatorMiddleware(validate func(resp *Response) error) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next(ctx, req)
			if err != nil {
				return resp, err
			}
			if verr := validate(resp); verr != nil {
				return resp, verr
			}
			return resp, nil
		}
	}
}
