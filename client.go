package soto

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/soto-project/soto-core-runtime/credentials"
	"github.com/soto-project/soto-core-runtime/protocol"
	"github.com/soto-project/soto-core-runtime/region"
	"github.com/soto-project/soto-core-runtime/request"
	"github.com/soto-project/soto-core-runtime/response"
	"github.com/soto-project/soto-core-runtime/shape"
	"github.com/soto-project/soto-core-runtime/signer"
	"github.com/soto-project/soto-core-runtime/stream"
)

// ServiceConfig is the immutable, per-service configuration the
// orchestrator needs beyond what request.ServiceConfig already carries:
// the signing name/region pair and the service's error taxonomy.
type ServiceConfig struct {
	ServiceName string // SigV4 signing name, e.g. "s3", "sts"
	Region      region.Region
	Request     request.ServiceConfig
	Taxonomy    response.ErrorTaxonomy
}

// Operation describes one call through the orchestrator: its name, path
// template, HTTP method, input/output shapes, and any streaming body.
type Operation struct {
	Name         string
	PathTemplate string
	Method       string
	HostPrefix   string

	Input      interface{}
	Descriptor shape.Descriptor
	Options    shape.Options

	PayloadField      string
	ChecksumAlgorithm shape.ChecksumAlgorithm

	StreamBody   stream.Source
	StreamLength *int64

	// Output, when non-nil, is a pointer to the generated output shape the
	// decoded body is written into. Leave nil for streaming-output
	// operations that consume the raw Response body directly.
	Output interface{}
}

// Client ties together the credential provider, transport, wire codec,
// middleware stack, and retry policy behind the single Execute entrypoint.
type Client struct {
	Credentials credentials.Provider
	Transport   Transport
	Codec       protocol.ReflectiveCodec
	Middlewares []Middleware
	Retry       *RetryPolicy
	Logger      *slog.Logger
	Timeout     time.Duration
}

// NewClient builds a Client with sensible defaults (exponential backoff
// retry, the default logger from slog.Default()) — override Retry/Logger/Middlewares on
// the returned value as needed.
func NewClient(creds credentials.Provider, transport Transport, codec protocol.ReflectiveCodec) *Client {
	return &Client{
		Credentials: creds,
		Transport:   transport,
		Codec:       codec,
		Retry:       DefaultRetryPolicy(),
		Logger:      slog.Default(),
	}
}

// Execute resolves the credential, builds the request, runs the
// middleware chain (which signs and transmits in its tail), collates the
// response, and decodes it via the response pipeline — all wrapped in the
// retry surface for transport/5xx/429/Throttling failures.
func (c *Client) Execute(ctx context.Context, svc ServiceConfig, op Operation) error {
	logger := c.Logger
	facade := protocol.NewFacade(c.Codec)

	unconditional := false
	if it, ok := op.Input.(IdempotentInput); ok && it.IdempotencyToken() != "" {
		unconditional = true
	}

	// A streaming body is consumed once; stream.Source has no Reset, so
	// retrying a failed attempt would resend a partial or empty body. Treat
	// every such failure as permanent regardless of what the transport or
	// response pipeline reports, even for an idempotent operation.
	retryableStream := op.StreamBody == nil
	if !retryableStream {
		unconditional = false
	}

	err := retryableAttempt(ctx, c.Retry, unconditional, func() (bool, error) {
		cred, err := c.Credentials.GetCredential(ctx, logger)
		if err != nil {
			return false, &CredentialsError{Err: err}
		}

		built, err := request.Build(facade, request.Params{
			OperationName:     op.Name,
			PathTemplate:      op.PathTemplate,
			Method:            op.Method,
			HostPrefix:        op.HostPrefix,
			Input:             op.Input,
			Descriptor:        op.Descriptor,
			Options:           op.Options,
			PayloadField:      op.PayloadField,
			ChecksumAlgorithm: op.ChecksumAlgorithm,
			StreamBody:        op.StreamBody,
			StreamLength:      op.StreamLength,
			Config:            svc.Request,
		})
		if err != nil {
			return false, err
		}

		sgn := signer.New(signer.Credential{
			AccessKeyID:     cred.AccessKeyID,
			SecretAccessKey: cred.SecretAccessKey,
			SessionToken:    cred.SessionToken,
		}, svc.Region.String(), svc.ServiceName)

		tail := c.signAndTransmit(sgn, svc)
		handler := Chain(c.Middlewares, tail)

		req := &Request{Method: built.Method, URL: built.URL.String(), Headers: built.Headers, Body: built.Body}
		resp, err := handler(ctx, req)
		if err != nil {
			var re *RetryableError
			if errors.As(err, &re) {
				return retryableStream, re
			}
			return false, err
		}

		collated, err := response.Collate(ctx, resp.StatusCode, resp.Headers, resp.Body)
		if err != nil {
			return false, err
		}

		if isRetryableHTTPStatus(collated.StatusCode) {
			return retryableStream, &RetryableError{Err: &response.ServiceError{StatusCode: collated.StatusCode}}
		}

		pipeline := &response.Pipeline{Facade: facade, Dialect: svc.Request.Dialect, OperationName: op.Name, Taxonomy: svc.Taxonomy}
		decodeErr := pipeline.Decode(collated, op.Output, op.Descriptor)
		if decodeErr != nil {
			var tse *response.TypedServiceError
			if errors.As(decodeErr, &tse) && isRetryableErrorCode(tse.Code) {
				return retryableStream, &RetryableError{Err: decodeErr}
			}
			var gre *response.GenericResponseError
			if errors.As(decodeErr, &gre) && isRetryableErrorCode(gre.Code) {
				return retryableStream, &RetryableError{Err: decodeErr}
			}
			return false, decodeErr
		}
		return false, nil
	})

	return err
}

// signAndTransmit builds the innermost handler of the middleware stack:
// it performs the tail signing (and, for streaming S3 bodies, wraps the
// body in the chunk-signing sequence) then invokes the transport. Signing
// re-parses req.URL rather than closing over the builder's URL, so an
// EndpointRewriteMiddleware upstream is signed against the URL it
// actually produced.
func (c *Client) signAndTransmit(sgn *signer.Signer, svc ServiceConfig) Handler {
	return func(ctx context.Context, req *Request) (*Response, error) {
		date := time.Now().UTC()

		signingURL, err := url.Parse(req.URL)
		if err != nil {
			return nil, &InvalidURLError{Reason: err.Error()}
		}

		if req.Body.Stream != nil && svc.ServiceName == "s3" {
			decodedLength := int64(0)
			if req.Body.Length != nil {
				decodedLength = *req.Body.Length
			}
			signed, seed, err := sgn.StartSigningChunks(signer.Request{
				Method:  req.Method,
				URL:     signingURL,
				Headers: req.Headers,
				Body:    signer.Payload{Kind: signer.PayloadS3Chunked},
			}, date, decodedLength)
			if err != nil {
				return nil, err
			}
			req.Headers = signed
			req.Body.Stream = stream.NewS3ChunkedSequence(req.Body.Stream, seed)
			contentLen := stream.ContentLength(decodedLength, len(seed.Signature()))
			req.Body.Length = &contentLen
		} else {
			payload := signer.Payload{Bytes: req.Body.Bytes}
			if req.Body.Stream != nil {
				payload = signer.Payload{Kind: signer.PayloadUnsigned}
			}
			req.Headers = sgn.SignHeaders(signer.Request{
				Method:  req.Method,
				URL:     signingURL,
				Headers: req.Headers,
				Body:    payload,
			}, date, false)
		}

		return c.Transport.Execute(ctx, req, c.Timeout)
	}
}
