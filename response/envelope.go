package response

import (
	"encoding/json"
	"encoding/xml"

	"github.com/soto-project/soto-core-runtime/protocol"
)

// restJSONEnvelope probes the top-level JSON object for code/message and
// collects every other string field as an additional field.
type restJSONEnvelope map[string]interface{}

// jsonEnvelope is the plain `json` dialect's flatter __type/message shape.
type jsonEnvelope struct {
	Type    string `json:"__type"`
	Message string `json:"message"`
}

// queryErrorResponse is the `query`/`ec2` XML envelope. Either wrapper
// level (ErrorResponse, Errors) may be absent on the wire, so both the
// nested and flattened shapes are tried.
type queryErrorResponse struct {
	XMLName xml.Name      `xml:"ErrorResponse"`
	Errors  []queryError  `xml:"Errors>Error"`
	Error   *queryError   `xml:"Error"`
	RequestID string      `xml:"RequestId"`
}

type queryError struct {
	Code    string `xml:"Code"`
	Message string `xml:"Message"`
}

// restXMLError is the restxml dialect's bare `<Error>` envelope, which may
// appear at the document root or nested under a wrapper.
type restXMLError struct {
	XMLName xml.Name `xml:"Error"`
	Code    string   `xml:"Code"`
	Message string   `xml:"Message"`
}

// DecodeErrorEnvelope parses the dialect's error body (and, for restjson,
// consults the x-amzn-errortype header) into a ServiceError with
// status/headers attached but Code not yet mapped through a taxonomy.
func DecodeErrorEnvelope(dialect protocol.Dialect, status int, headers map[string][]string, body []byte) *ServiceError {
	se := &ServiceError{StatusCode: status, Headers: headers, AdditionalFields: map[string]string{}}

	switch dialect {
	case protocol.DialectRestJSON:
		var env restJSONEnvelope
		_ = json.Unmarshal(body, &env)
		for k, v := range env {
			s, ok := v.(string)
			if !ok {
				continue
			}
			switch k {
			case "code", "__type":
				se.Code = stripErrorTypeNamespace(s)
			case "message", "Message":
				se.Message = s
			default:
				se.AdditionalFields[k] = s
			}
		}
		if se.Code == "" {
			if hv := headerValue(headers, "x-amzn-errortype"); hv != "" {
				se.Code = stripErrorTypeNamespace(hv)
			}
		}

	case protocol.DialectJSON:
		var env jsonEnvelope
		_ = json.Unmarshal(body, &env)
		se.Code = stripErrorTypeNamespace(env.Type)
		se.Message = env.Message

	case protocol.DialectQuery, protocol.DialectEC2:
		var env queryErrorResponse
		if err := xml.Unmarshal(body, &env); err != nil {
			// The root is not ErrorResponse: read the same shapes from
			// whatever root element is present, including a bare <Error>.
			var bare struct {
				Errors  []queryError `xml:"Errors>Error"`
				Error   *queryError  `xml:"Error"`
				Code    string       `xml:"Code"`
				Message string       `xml:"Message"`
			}
			_ = xml.Unmarshal(body, &bare)
			env.Errors, env.Error = bare.Errors, bare.Error
			if env.Error == nil && bare.Code != "" {
				env.Error = &queryError{Code: bare.Code, Message: bare.Message}
			}
		}
		if len(env.Errors) > 0 {
			se.Code = env.Errors[0].Code
			se.Message = env.Errors[0].Message
		} else if env.Error != nil {
			se.Code = env.Error.Code
			se.Message = env.Error.Message
		}

	case protocol.DialectRestXML:
		var env restXMLError
		if err := xml.Unmarshal(body, &env); err != nil {
			var wrapped struct {
				Error restXMLError `xml:"Error"`
			}
			_ = xml.Unmarshal(body, &wrapped)
			env = wrapped.Error
		}
		se.Code = env.Code
		se.Message = env.Message
	}

	if se.Code == "" {
		se.Code = "Unknown"
	}
	return se
}

func headerValue(headers map[string][]string, name string) string {
	for k, vs := range headers {
		if equalFoldASCII(k, name) && len(vs) > 0 {
			return vs[0]
		}
	}
	return ""
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
