package request

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"time"

	"github.com/soto-project/soto-core-runtime/protocol"
	"github.com/soto-project/soto-core-runtime/shape"
	"github.com/soto-project/soto-core-runtime/stream"
)

// ServiceConfig carries the immutable per-service settings the builder
// needs.
type ServiceConfig struct {
	Dialect         protocol.Dialect
	APIVersion      string
	Endpoint        string // resolved base URL, e.g. https://s3.us-east-1.amazonaws.com
	AmzTargetPrefix string
	XMLNamespace    string
}

// Params is the full set of inputs to Build.
type Params struct {
	OperationName string
	PathTemplate  string
	Method        string
	HostPrefix    string // e.g. "{Bucket}."

	Input      interface{} // pointer to a generated input struct, or nil
	Descriptor shape.Descriptor
	Options    shape.Options

	PayloadField      string
	ChecksumAlgorithm shape.ChecksumAlgorithm

	StreamBody   stream.Source
	StreamLength *int64

	Config ServiceConfig
}

// Built is the wire-ready request the orchestrator signs and transmits.
type Built struct {
	Method  string
	URL     *url.URL
	Headers http.Header
	Body    Body
}

// Build distributes Input's fields to their located positions (URI, query,
// header, headerPrefix, payload), substitutes the path template and host
// prefix, serializes the body for the service's dialect, and applies any
// requested checksum.
func Build(facade *protocol.Facade, p Params) (*Built, error) {
	uriVars := map[string]string{}
	queryValues := url.Values{}
	hostVars := map[string]string{}
	bodyFields := map[string]interface{}{}
	headers := http.Header{}
	var payloadValue interface{}

	if p.Config.AmzTargetPrefix != "" {
		headers.Set("x-amz-target", p.Config.AmzTargetPrefix+"."+p.OperationName)
	}

	if p.Input != nil {
		rv := reflect.ValueOf(p.Input)
		for rv.Kind() == reflect.Ptr {
			rv = rv.Elem()
		}
		if err := distributeFields(rv, p.Descriptor, uriVars, queryValues, hostVars, bodyFields, headers, &payloadValue); err != nil {
			return nil, err
		}
	}

	path, err := BuildPath(p.PathTemplate, uriVars)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(p.Config.Endpoint)
	if err != nil {
		return nil, &InvalidURLError{Reason: fmt.Sprintf("service endpoint %q: %v", p.Config.Endpoint, err)}
	}
	if p.HostPrefix != "" {
		prefix, err := SubstituteHostPrefix(p.HostPrefix, hostVars)
		if err != nil {
			return nil, err
		}
		base.Host = prefix + base.Host
	}
	if decoded, err := url.PathUnescape(path); err == nil {
		base.Path = decoded
		base.RawPath = path
	} else {
		base.Path = path
	}
	base.RawQuery = BuildQueryString(queryValues)

	built := &Built{Method: p.Method, URL: base, Headers: headers}

	if p.StreamBody != nil {
		if !p.Options.Has(shape.AllowStreaming) {
			return nil, &StreamingNotAllowedError{OperationName: p.OperationName}
		}
		if p.StreamLength == nil && !p.Options.Has(shape.AllowChunkedStreaming) {
			return nil, &ChunkedStreamingNotAllowedError{OperationName: p.OperationName}
		}
		built.Body = Body{Stream: p.StreamBody, Length: p.StreamLength}
	} else {
		data, contentType, err := serializeBody(facade, p, payloadValue, bodyFields)
		if err != nil {
			return nil, err
		}
		built.Body = Body{Bytes: data}
		if contentType != "" && p.Method != http.MethodGet && p.Method != http.MethodHead && len(data) > 0 {
			headers.Set("content-type", contentType)
		}
		if algo := checksumAlgorithm(p); algo != "" {
			headers.Set(algo.HeaderName(), ComputeChecksum(algo, data))
		}
	}

	headers.Set("user-agent", "soto-core-runtime/1.0")

	return built, nil
}

// checksumAlgorithm resolves which algorithm (if any) applies: an explicit
// ChecksumAlgorithm always wins; otherwise checksumRequired/
// md5ChecksumHeader on the shape imply MD5.
func checksumAlgorithm(p Params) shape.ChecksumAlgorithm {
	if p.ChecksumAlgorithm != "" {
		return p.ChecksumAlgorithm
	}
	if p.Options.Has(shape.ChecksumRequired) || p.Options.Has(shape.MD5ChecksumHeader) {
		return shape.ChecksumMD5
	}
	return ""
}

func distributeFields(
	rv reflect.Value,
	descriptor shape.Descriptor,
	uriVars map[string]string,
	queryValues url.Values,
	hostVars map[string]string,
	bodyFields map[string]interface{},
	headers http.Header,
	payloadValue *interface{},
) error {
	for _, f := range descriptor {
		fv := rv.FieldByName(f.Label)
		if !fv.IsValid() {
			continue
		}
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}

		if err := validateField(f.Label, fv, f); err != nil {
			return err
		}
		if isNestedStruct(fv) && len(f.Nested) > 0 {
			if err := validateNested(fv, f.Nested); err != nil {
				return err
			}
		}

		switch f.Location.Kind {
		case shape.LocationURI:
			uriVars[f.Location.Name] = toWireString(fv)
		case shape.LocationQuerystring:
			if s := toWireString(fv); s != "" {
				queryValues.Add(f.Location.Name, s)
			}
		case shape.LocationHeader:
			if s := toWireString(fv); s != "" {
				headers.Set(f.Location.Name, s)
			}
		case shape.LocationHeaderPrefix:
			if fv.Kind() == reflect.Map {
				iter := fv.MapRange()
				for iter.Next() {
					headers.Set(f.Location.Name+fmt.Sprint(iter.Key().Interface()), toWireString(iter.Value()))
				}
			}
		case shape.LocationHostname:
			hostVars[f.Location.Name] = toWireString(fv)
		case shape.LocationBody:
			*payloadValue = fv.Interface()
		default:
			bodyFields[f.WireName] = fv.Interface()
		}
	}
	return nil
}

// validateField applies a field's length/pattern constraint (strings) or
// count constraint (lists/maps), whichever its kind admits.
func validateField(label string, fv reflect.Value, f shape.FieldDescriptor) error {
	switch fv.Kind() {
	case reflect.String:
		return ValidateString(label, fv.String(), f.MinLength, f.MaxLength, f.Pattern)
	case reflect.Slice, reflect.Array, reflect.Map:
		return ValidateCount(label, fv.Len(), f.MinCount, f.MaxCount)
	}
	return nil
}

// isNestedStruct reports whether fv is a struct this package should
// recurse into for validation, excluding time.Time which is a scalar as
// far as constraints are concerned.
func isNestedStruct(fv reflect.Value) bool {
	return fv.Kind() == reflect.Struct && fv.Type() != reflect.TypeOf(time.Time{})
}

// validateNested walks a struct-kind member's own descriptor, checking
// every field's constraints and recursing into further nested structs.
func validateNested(rv reflect.Value, descriptor shape.Descriptor) error {
	for _, f := range descriptor {
		fv := rv.FieldByName(f.Label)
		if !fv.IsValid() {
			continue
		}
		if fv.Kind() == reflect.Ptr {
			if fv.IsNil() {
				continue
			}
			fv = fv.Elem()
		}
		if err := validateField(f.Label, fv, f); err != nil {
			return err
		}
		if isNestedStruct(fv) && len(f.Nested) > 0 {
			if err := validateNested(fv, f.Nested); err != nil {
				return err
			}
		}
	}
	return nil
}

func toWireString(v reflect.Value) string {
	if !v.IsValid() {
		return ""
	}
	if t, ok := v.Interface().(time.Time); ok {
		return t.UTC().Format(time.RFC3339)
	}
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	default:
		return fmt.Sprint(v.Interface())
	}
}

// serializeBody renders the payload member (if any) or the collected body
// fields through the dialect-appropriate Facade encoder.
func serializeBody(facade *protocol.Facade, p Params, payloadValue interface{}, bodyFields map[string]interface{}) ([]byte, string, error) {
	dialect := p.Config.Dialect

	if payloadValue != nil {
		if raw, ok := payloadValue.([]byte); ok && p.Options.Has(shape.RawPayload) {
			return raw, "binary/octet-stream", nil
		}
		switch {
		case dialect.IsForm():
			s, err := facade.EncodeForm(payloadValue, map[string]string{"Action": p.OperationName, "Version": p.Config.APIVersion}, dialect == protocol.DialectEC2)
			return []byte(s), "application/x-www-form-urlencoded; charset=utf-8", err
		case dialect == protocol.DialectRestXML:
			s, err := facade.EncodeXML(payloadValue, p.OperationName, p.Config.XMLNamespace)
			return []byte(s), "application/xml", err
		default:
			b, err := facade.EncodeJSON(payloadValue)
			return b, jsonContentType(dialect), err
		}
	}

	switch {
	case dialect.IsForm():
		s, err := facade.EncodeForm(bodyFields, map[string]string{"Action": p.OperationName, "Version": p.Config.APIVersion}, dialect == protocol.DialectEC2)
		return []byte(s), "application/x-www-form-urlencoded; charset=utf-8", err

	case dialect == protocol.DialectRestXML:
		if len(bodyFields) == 0 {
			return nil, "", nil
		}
		body := buildXMLBody(p.OperationName+"Request", p.Config.XMLNamespace, bodyFields)
		s, err := facade.EncodeXML(body, body.XMLName.Local, p.Config.XMLNamespace)
		return []byte(s), "application/xml", err

	default: // json, restjson
		if len(bodyFields) == 0 {
			if p.Method == http.MethodPost || p.Method == http.MethodPut {
				return []byte("{}"), jsonContentType(dialect), nil
			}
			return nil, "", nil
		}
		b, err := facade.EncodeJSON(bodyFields)
		return b, jsonContentType(dialect), err
	}
}

func jsonContentType(dialect protocol.Dialect) string {
	if dialect == protocol.DialectJSON {
		return "application/x-amz-json-1.1"
	}
	return "application/json"
}

// xmlField and xmlBody let a map[string]interface{} of body members
// marshal as a sequence of dynamically-named XML elements, since
// encoding/xml cannot marshal a bare map.
type xmlField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type xmlBody struct {
	XMLName xml.Name
	Fields  []xmlField
}

func buildXMLBody(rootName, namespace string, bodyFields map[string]interface{}) xmlBody {
	keys := make([]string, 0, len(bodyFields))
	for k := range bodyFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]xmlField, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, xmlField{XMLName: xml.Name{Local: k}, Value: fmt.Sprint(bodyFields[k])})
	}
	root := xml.Name{Local: rootName}
	if namespace != "" {
		root.Space = namespace
	}
	return xmlBody{XMLName: root, Fields: fields}
}
