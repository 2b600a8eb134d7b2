// Package signer implements the SigV4 signing engine: the canonical
// request, string-to-sign, and signing-key derivation, in both one-shot
// header-signing and presigned-URL modes. The S3 chunked-streaming variant
// lives in chunked.go.
package signer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	Algorithm        = "AWS4-HMAC-SHA256"
	iso8601DateTime  = "20060102T150405Z"
	iso8601Date      = "20060102"
	UnsignedPayload  = "UNSIGNED-PAYLOAD"
	StreamingPayload = "STREAMING-AWS4-HMAC-SHA256-PAYLOAD"
)

// ignoredHeaders are never included in the canonical header set: User-Agent
// because it is often mutated downstream, Authorization because it carries
// the signature itself.
var ignoredHeaders = map[string]bool{
	"authorization": true,
	"user-agent":    true,
}

// Credential is the signer's view of an access key triple. An empty
// Credential (all three fields blank) causes SignHeaders to return the
// headers unmodified — an anonymous request is never signed — and causes
// PresignURL to return an error.
type Credential struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// IsEmpty reports whether this is the anonymous credential.
func (c Credential) IsEmpty() bool {
	return c.AccessKeyID == "" && c.SecretAccessKey == "" && c.SessionToken == ""
}

// PayloadKind discriminates how the body contributes to
// x-amz-content-sha256.
type PayloadKind int

const (
	PayloadBytes PayloadKind = iota
	PayloadUnsigned
	PayloadS3Chunked
)

// Payload describes the request body for signing purposes.
type Payload struct {
	Kind  PayloadKind
	Bytes []byte
}

func (p Payload) contentSHA256() string {
	switch p.Kind {
	case PayloadUnsigned:
		return UnsignedPayload
	case PayloadS3Chunked:
		return StreamingPayload
	default:
		sum := sha256.Sum256(p.Bytes)
		return hex.EncodeToString(sum[:])
	}
}

// Signer is purely functional aside from its immutable credential and
// signing scope.
type Signer struct {
	Credential Credential
	Region     string
	Service    string
}

// New builds a Signer for one signing scope (region + service name).
func New(cred Credential, region, service string) *Signer {
	return &Signer{Credential: cred, Region: region, Service: service}
}

func (s *Signer) scope(date time.Time) string {
	return fmt.Sprintf("%s/%s/%s/aws4_request", date.Format(iso8601Date), s.Region, s.Service)
}

// SigningKey derives the AWS4 signing key:
// HMAC(HMAC(HMAC(HMAC("AWS4"+secret, date), region), service), "aws4_request").
func SigningKey(secret string, date time.Time, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), []byte(date.Format(iso8601Date)))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// canonicalURI percent-encodes each path segment, preserving "/". A segment
// that arrives already percent-encoded (as from URL.EscapedPath) is decoded
// first, so each segment is encoded exactly once regardless of service; the
// path is never double-encoded.
func canonicalURI(path string) string {
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if raw, err := url.PathUnescape(seg); err == nil {
			seg = raw
		}
		segments[i] = encodePathSegment(seg)
	}
	return strings.Join(segments, "/")
}

func encodePathSegment(seg string) string {
	var b strings.Builder
	for i := 0; i < len(seg); i++ {
		c := seg[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	default:
		return false
	}
}

// encodeQueryValue percent-encodes a query key/value over the strict set
// [A-Za-z0-9._~-].
func encodeQueryValue(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// canonicalQueryString sorts by key then value and strict-encodes both.
func canonicalQueryString(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		vs := append([]string(nil), values[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			parts = append(parts, encodeQueryValue(k)+"="+encodeQueryValue(v))
		}
	}
	return strings.Join(parts, "&")
}

func trimCollapseSpaces(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "  ") {
		return s
	}
	var b strings.Builder
	prevSpace := false
	for _, r := range s {
		if r == ' ' {
			if !prevSpace {
				b.WriteRune(r)
			}
			prevSpace = true
		} else {
			b.WriteRune(r)
			prevSpace = false
		}
	}
	return b.String()
}

// canonicalHeaders builds the lowercased, sorted, newline-terminated header
// block plus the semicolon-joined signed-header list. host is included
// explicitly since Go's http.Header does not carry it as a regular header.
func canonicalHeaders(headers http.Header, host string) (block, signedHeaders string) {
	names := []string{"host"}
	values := map[string]string{"host": host}
	for k, vv := range headers {
		lk := strings.ToLower(k)
		if lk == "host" || ignoredHeaders[lk] {
			continue
		}
		names = append(names, lk)
		parts := make([]string, len(vv))
		for i, v := range vv {
			parts[i] = trimCollapseSpaces(v)
		}
		values[lk] = strings.Join(parts, ",")
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		b.WriteString(n)
		b.WriteByte(':')
		b.WriteString(values[n])
		b.WriteByte('\n')
	}
	return b.String(), strings.Join(names, ";")
}

// CanonicalRequest assembles the SigV4 canonical request string.
func CanonicalRequest(method, path string, query url.Values, headers http.Header, host, payloadHash string) (canonical, signedHeaders string) {
	headerBlock, signed := canonicalHeaders(headers, host)
	canonical = strings.Join([]string{
		method,
		canonicalURI(path),
		canonicalQueryString(query),
		headerBlock,
		signed,
		payloadHash,
	}, "\n")
	return canonical, signed
}

func (s *Signer) stringToSign(date time.Time, canonicalRequest string) string {
	return strings.Join([]string{
		Algorithm,
		date.Format(iso8601DateTime),
		s.scope(date),
		sha256Hex([]byte(canonicalRequest)),
	}, "\n")
}

// Request is the minimal view of an HTTP request the signer needs: enough
// to build the canonical request and to mutate headers/query in place.
type Request struct {
	Method  string
	URL     *url.URL
	Headers http.Header
	Body    Payload
}

// SignHeaders performs one-shot header signing: it
// returns a new header set including Authorization, x-amz-date,
// x-amz-security-token (unless omitted), and x-amz-content-sha256. The
// x-amz-content-sha256 header is among the signed headers only for service
// "s3"; for other services it is added after signing. Empty credentials
// short-circuit to an unmodified (anonymous) header set.
func (s *Signer) SignHeaders(req Request, date time.Time, omitSessionToken bool) http.Header {
	headers := cloneHeaders(req.Headers)
	if s.Credential.IsEmpty() {
		return headers
	}

	payloadHash := req.Body.contentSHA256()
	headers.Set("x-amz-date", date.Format(iso8601DateTime))
	if s.Service == "s3" {
		headers.Set("x-amz-content-sha256", payloadHash)
	}
	if s.Credential.SessionToken != "" && !omitSessionToken {
		headers.Set("x-amz-security-token", s.Credential.SessionToken)
	}

	canonicalRequest, signedHeaders := CanonicalRequest(req.Method, req.URL.EscapedPath(), req.URL.Query(), headers, req.URL.Host, payloadHash)
	stringToSign := s.stringToSign(date, canonicalRequest)
	key := SigningKey(s.Credential.SecretAccessKey, date, s.Region, s.Service)
	signature := hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))

	auth := fmt.Sprintf("%s Credential=%s/%s, SignedHeaders=%s, Signature=%s",
		Algorithm, s.Credential.AccessKeyID, s.scope(date), signedHeaders, signature)
	headers.Set("Authorization", auth)
	headers.Set("x-amz-content-sha256", payloadHash)
	return headers
}

// PresignURL performs SigV4 query-string signing,
// returning the URL with X-Amz-* query parameters appended.
func (s *Signer) PresignURL(req Request, date time.Time, expires time.Duration, omitSessionToken bool) (*url.URL, error) {
	if s.Credential.IsEmpty() {
		return nil, fmt.Errorf("signer: presign requires non-anonymous credentials")
	}

	u := *req.URL
	query := u.Query()
	query.Set("X-Amz-Algorithm", Algorithm)
	query.Set("X-Amz-Credential", s.Credential.AccessKeyID+"/"+s.scope(date))
	query.Set("X-Amz-Date", date.Format(iso8601DateTime))
	query.Set("X-Amz-Expires", strconv.FormatInt(int64(expires/time.Second), 10))

	headers := cloneHeaders(req.Headers)
	_, signedHeaders := CanonicalRequest(req.Method, u.EscapedPath(), query, headers, u.Host, UnsignedPayload)
	query.Set("X-Amz-SignedHeaders", signedHeaders)

	if s.Credential.SessionToken != "" && !omitSessionToken {
		query.Set("X-Amz-Security-Token", s.Credential.SessionToken)
	}

	canonicalRequest, _ := CanonicalRequest(req.Method, u.EscapedPath(), query, headers, u.Host, UnsignedPayload)
	stringToSign := s.stringToSign(date, canonicalRequest)
	key := SigningKey(s.Credential.SecretAccessKey, date, s.Region, s.Service)
	signature := hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))
	query.Set("X-Amz-Signature", signature)

	u.RawQuery = query.Encode()
	return &u, nil
}

func cloneHeaders(h http.Header) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}
