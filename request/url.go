package request

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var pathVarPattern = regexp.MustCompile(`\{([A-Za-z0-9_]+)(\+)?\}`)

// BuildPath implements the path-template substitution rule:
// `{x}` percent-encodes `/` in the substituted value; `{x+}` preserves it.
// An empty (or missing) value for a referenced variable raises
// InvalidURLError.
func BuildPath(template string, vars map[string]string) (string, error) {
	var outErr error
	result := pathVarPattern.ReplaceAllStringFunc(template, func(match string) string {
		if outErr != nil {
			return match
		}
		sub := pathVarPattern.FindStringSubmatch(match)
		name, greedy := sub[1], sub[2] == "+"
		value, ok := vars[name]
		if !ok || value == "" {
			outErr = &InvalidURLError{Reason: fmt.Sprintf("path component %q is empty", name)}
			return match
		}
		return percentEncodePath(value, greedy)
	})
	if outErr != nil {
		return "", outErr
	}
	return result, nil
}

func percentEncodePath(s string, preserveSlash bool) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isUnreservedByte(c):
			b.WriteByte(c)
		case preserveSlash && c == '/':
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreservedByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.' || c == '~'
}

// SubstituteHostPrefix replaces `{name}` placeholders in prefix with the
// corresponding value, without percent-encoding — host
// labels are validated by the service model to exclude reserved
// characters.
func SubstituteHostPrefix(prefix string, vars map[string]string) (string, error) {
	var outErr error
	result := pathVarPattern.ReplaceAllStringFunc(prefix, func(match string) string {
		if outErr != nil {
			return match
		}
		sub := pathVarPattern.FindStringSubmatch(match)
		name := sub[1]
		value, ok := vars[name]
		if !ok || value == "" {
			outErr = &InvalidURLError{Reason: fmt.Sprintf("host-prefix component %q is empty", name)}
			return match
		}
		return value
	})
	if outErr != nil {
		return "", outErr
	}
	return result, nil
}

// BuildQueryString appends query values sorted by key then value and
// percent-encodes them over the strict set.
func BuildQueryString(values url.Values) string {
	if len(values) == 0 {
		return ""
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	first := true
	for _, k := range keys {
		vs := append([]string(nil), values[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			if !first {
				b.WriteByte('&')
			}
			first = false
			b.WriteString(encodeQueryValue(k))
			b.WriteByte('=')
			b.WriteString(encodeQueryValue(v))
		}
	}
	return b.String()
}

// encodeQueryValue percent-encodes a query key/value over the same strict
// [A-Za-z0-9._~-] set the signer canonicalizes against, so the query string
// placed on the wire matches byte-for-byte what was signed. url.QueryEscape
// is not used here: it encodes space as '+', which the signer's canonical
// query string does not.
func encodeQueryValue(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedByte(c) {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}
