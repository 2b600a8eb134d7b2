package protocol

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"strconv"
)

// DefaultCodec is a minimal reflective codec good enough to exercise the
// Facade end to end. It is intentionally thin: the reflective encoder's
// internals are an out-of-scope external collaborator, so this
// implementation leans on encoding/json and encoding/xml rather than
// reimplementing a general-purpose reflection engine.
type DefaultCodec struct{}

func (DefaultCodec) EncodeJSON(v interface{}) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

func (DefaultCodec) DecodeJSON(data []byte, out interface{}) error {
	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}

func (DefaultCodec) EncodeXML(v interface{}, rootName, namespace string) (string, error) {
	buf, err := xml.Marshal(v)
	if err != nil {
		return "", err
	}
	// Namespace/root-name fidelity on nested shapes is left to the
	// caller's XMLName tag; re-rooting arbitrary values without a
	// bespoke struct-tag walker is out of scope for this minimal codec.
	_ = rootName
	_ = namespace
	return string(buf), nil
}

func (DefaultCodec) DecodeXML(data []byte, out interface{}, rootName string) error {
	return xml.Unmarshal(data, out)
}

// EncodeForm renders v (a struct, map[string]string, or
// map[string][]string) into a query/ec2 form string. Keys and values are
// escaped with url.QueryEscape (a space becomes "+"; this is not the strict
// [A-Za-z0-9._~-] set) and the final query is ordered lexicographically by
// key then value.
func (DefaultCodec) EncodeForm(v interface{}, additionalKeys map[string]string, ec2Flavor bool) (string, error) {
	values := url.Values{}
	for k, val := range additionalKeys {
		values.Add(k, val)
	}
	if v != nil {
		if err := addFormValues(values, "", reflect.ValueOf(v), ec2Flavor); err != nil {
			return "", err
		}
	}
	return encodeSorted(values), nil
}

func addFormValues(values url.Values, prefix string, rv reflect.Value, ec2Flavor bool) error {
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface()) })
		for _, k := range keys {
			name := fmt.Sprint(k.Interface())
			full := name
			if prefix != "" {
				full = prefix + "." + name
			}
			if err := addFormValues(values, full, rv.MapIndex(k), ec2Flavor); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			idx := i + 1
			full := fmt.Sprintf("%s.%d", prefix, idx)
			if ec2Flavor {
				full = fmt.Sprintf("%s.%d", prefix, idx)
			}
			if err := addFormValues(values, full, rv.Index(i), ec2Flavor); err != nil {
				return err
			}
		}
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if field.PkgPath != "" {
				continue // unexported
			}
			name := field.Tag.Get("form")
			if name == "" {
				name = field.Name
			}
			if name == "-" {
				continue
			}
			full := name
			if prefix != "" {
				full = prefix + "." + name
			}
			if err := addFormValues(values, full, rv.Field(i), ec2Flavor); err != nil {
				return err
			}
		}
	case reflect.String:
		if prefix != "" {
			values.Add(prefix, rv.String())
		}
	case reflect.Bool:
		if prefix != "" {
			values.Add(prefix, strconv.FormatBool(rv.Bool()))
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if prefix != "" {
			values.Add(prefix, strconv.FormatInt(rv.Int(), 10))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if prefix != "" {
			values.Add(prefix, strconv.FormatUint(rv.Uint(), 10))
		}
	case reflect.Float32, reflect.Float64:
		if prefix != "" {
			values.Add(prefix, strconv.FormatFloat(rv.Float(), 'f', -1, 64))
		}
	case reflect.Invalid:
		// zero Value from a nil map entry; nothing to encode
	default:
		return fmt.Errorf("protocol: unsupported form value kind %s at %q", rv.Kind(), prefix)
	}
	return nil
}

// encodeSorted renders url.Values sorted lexicographically by key, then by
// value for equal keys, so repeated encodings of the same values are
// byte-identical.
func encodeSorted(values url.Values) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf []byte
	for _, k := range keys {
		vs := append([]string(nil), values[k]...)
		sort.Strings(vs)
		for _, v := range vs {
			if len(buf) > 0 {
				buf = append(buf, '&')
			}
			buf = append(buf, url.QueryEscape(k)...)
			buf = append(buf, '=')
			buf = append(buf, url.QueryEscape(v)...)
		}
	}
	return string(buf)
}
