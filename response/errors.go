// Package response implements the Response Pipeline: body
// collation, dialect-aware error-envelope detection, error-taxonomy
// mapping, and typed output decoding through the Wire Codec Facade.
package response

import (
	"fmt"
	"strings"
)

// ServiceError is the structured error context every pipeline failure
// carries: message, status, headers,
// additionalFields, code.
type ServiceError struct {
	Code             string
	Message          string
	StatusCode       int
	Headers          map[string][]string
	AdditionalFields map[string]string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("%s (status %d)", e.Code, e.StatusCode)
}

// TypedServiceError is a ServiceError whose Code matched an entry in the
// service's own error taxonomy.
type TypedServiceError struct {
	*ServiceError
}

// GenericResponseError is a ServiceError whose Code matched neither the
// service taxonomy nor the common client/server taxonomies.
type GenericResponseError struct {
	*ServiceError
}

// commonClientErrorCodes and commonServerErrorCodes are the closed enums
// from  "Error codes surfaced to callers". Membership here only
// affects whether MapError treats a code as a recognized common error
// versus falling through to GenericResponseError; the wrapped type and
// surfaced fields are identical either way.
var commonClientErrorCodes = map[string]bool{
	"AccessDenied":               true,
	"IncompleteSignature":        true,
	"InvalidAction":              true,
	"InvalidClientTokenId":       true,
	"InvalidParameterValue":      true,
	"MissingAuthenticationToken": true,
	"RequestExpired":             true,
	"Throttling":                 true,
	"ValidationError":            true,
	"SignatureDoesNotMatch":      true,
}

var commonServerErrorCodes = map[string]bool{
	"InternalFailure":    true,
	"ServiceUnavailable": true,
}

// ErrorTaxonomy maps a service-defined error code to a constructor for its
// typed error value. Services register one of these per operation set;
// nil is valid (no service-specific codes).
type ErrorTaxonomy map[string]func(*ServiceError) error

// MapError consults the service taxonomy, then the common client
// taxonomy, then the common server taxonomy, falling back to a generic
// response error.
func MapError(taxonomy ErrorTaxonomy, se *ServiceError) error {
	if taxonomy != nil {
		if ctor, ok := taxonomy[se.Code]; ok {
			return ctor(se)
		}
	}
	if commonClientErrorCodes[se.Code] || commonServerErrorCodes[se.Code] {
		return &TypedServiceError{ServiceError: se}
	}
	return &GenericResponseError{ServiceError: se}
}

// stripErrorTypeNamespace implements the restjson `x-amzn-errortype` header
// cleanup rule: strip any leading "namespace#" and any
// trailing ":url".
func stripErrorTypeNamespace(s string) string {
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	return s
}
