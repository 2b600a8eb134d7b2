package response

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"reflect"
	"strconv"

	"github.com/soto-project/soto-core-runtime/protocol"
	"github.com/soto-project/soto-core-runtime/shape"
	"github.com/soto-project/soto-core-runtime/stream"
)

// Response is the collated, pre-decode view of a transport response.
type Response struct {
	StatusCode int
	Headers    map[string][]string
	Body       []byte
}

// Collate reads a transport response's body into one buffer. Streaming
// output shapes bypass this and consume src directly; see StreamingBody.
func Collate(ctx context.Context, statusCode int, headers map[string][]string, src stream.Source) (Response, error) {
	body, err := stream.Drain(ctx, src)
	if err != nil {
		return Response{}, err
	}
	return Response{StatusCode: statusCode, Headers: headers, Body: body}, nil
}

// Pipeline ties the error-envelope/taxonomy logic and the Wire Codec
// Facade together for one operation's output shape.
type Pipeline struct {
	Facade       *protocol.Facade
	Dialect      protocol.Dialect
	OperationName string
	Taxonomy     ErrorTaxonomy
}

// Decode, on ≥400 status, builds and maps a ServiceError; on 2xx it
// decodes the body into out via the Facade, then populates out's
// header/statusCode-located fields from r.
//
// out must be a non-nil pointer to the generated output shape type; fields
// are located via descriptor (header/headerPrefix/statusCode locations are
// populated by this function, body is populated by the Facade).
func (p *Pipeline) Decode(r Response, out interface{}, descriptor shape.Descriptor) error {
	if r.StatusCode >= 400 {
		se := DecodeErrorEnvelope(p.Dialect, r.StatusCode, r.Headers, r.Body)
		return MapError(p.Taxonomy, se)
	}

	if out == nil {
		return nil
	}

	body := r.Body
	if p.Dialect.IsXML() && len(body) > 0 {
		body = unwrapOperationResponse(body, p.OperationName)
	}

	var err error
	if p.Dialect.IsXML() {
		err = p.Facade.DecodeXML(body, out, p.OperationName+"Result")
	} else {
		err = p.Facade.DecodeJSON(body, out)
	}
	if err != nil {
		return fmt.Errorf("response: decoding output body: %w", err)
	}

	return populateLocatedFields(out, descriptor, r)
}

// unwrapOperationResponse re-roots XML decoding: if the root is
// `{op}Response` and it contains exactly one child `{op}Result`, decoding
// starts at that child instead. Falls back to the original body on any
// parse irregularity — a malformed document surfaces its real error from
// the decode step instead.
func unwrapOperationResponse(body []byte, operationName string) []byte {
	dec := xml.NewDecoder(bytes.NewReader(body))

	root, err := nextStartElement(dec)
	if err != nil || root.Name.Local != operationName+"Response" {
		return body
	}

	child, err := nextStartElement(dec)
	if err != nil || child.Name.Local != operationName+"Result" {
		return body
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := enc.EncodeToken(child); err != nil {
		return body
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return body
		}
		if err := enc.EncodeToken(tok); err != nil {
			return body
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	if err := enc.Flush(); err != nil {
		return body
	}
	return buf.Bytes()
}

// nextStartElement advances dec to the next start element, skipping
// whitespace/processing instructions.
func nextStartElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return xml.StartElement{}, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

// populateLocatedFields sets header/headerPrefix/statusCode members on out
// from r, per their shape.Descriptor entries.
func populateLocatedFields(out interface{}, descriptor shape.Descriptor, r Response) error {
	v := reflect.ValueOf(out)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("response: output must be a non-nil pointer")
	}
	elem := v.Elem()

	for _, f := range descriptor {
		field := elem.FieldByName(f.Label)
		if !field.IsValid() || !field.CanSet() {
			continue
		}
		switch f.Location.Kind {
		case shape.LocationStatusCode:
			setIntLike(field, int64(r.StatusCode))

		case shape.LocationHeader:
			if field.Kind() != reflect.String {
				continue
			}
			if val := headerValue(r.Headers, f.Location.Name); val != "" {
				field.SetString(val)
			}

		case shape.LocationHeaderPrefix:
			if field.Kind() != reflect.Map {
				continue
			}
			out := reflect.MakeMap(field.Type())
			for k, vs := range r.Headers {
				if len(vs) == 0 {
					continue
				}
				if len(k) > len(f.Location.Name) && equalFoldASCII(k[:len(f.Location.Name)], f.Location.Name) {
					out.SetMapIndex(reflect.ValueOf(k[len(f.Location.Name):]), reflect.ValueOf(vs[0]))
				}
			}
			field.Set(out)
		}
	}
	return nil
}

func setIntLike(field reflect.Value, n int64) {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		field.SetInt(n)
	case reflect.String:
		field.SetString(strconv.FormatInt(n, 10))
	}
}
