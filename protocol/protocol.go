// Package protocol implements the Wire Codec Facade: four
// uniform encode/decode entry points — json, restjson, restxml, query/ec2 —
// layered over an injected ReflectiveCodec. The reflective codec's own
// internals are an external collaborator; only its contract is
// defined here, with a minimal default implementation good enough to
// exercise the facade.
package protocol

// Dialect identifies one of the four recognized wire protocols.
type Dialect string

const (
	DialectJSON     Dialect = "json"
	DialectRestJSON Dialect = "restjson"
	DialectRestXML  Dialect = "restxml"
	DialectQuery    Dialect = "query"
	DialectEC2      Dialect = "ec2"
)

// IsXML reports whether the dialect's body/error envelope is XML-shaped.
func (d Dialect) IsXML() bool {
	return d == DialectRestXML || d == DialectQuery || d == DialectEC2
}

// IsForm reports whether the dialect's body is a www-form-urlencoded string
// (query/ec2), as opposed to a structured document (json/restjson/restxml).
func (d Dialect) IsForm() bool {
	return d == DialectQuery || d == DialectEC2
}

// RequestEncodingContainer carries out-of-band state collected while
// encoding a shape's body: the XML namespace to stamp on the root element
// and any headers the reflective codec discovers while walking nested
// header(name)-located members it doesn't itself understand.
type RequestEncodingContainer struct {
	XMLNamespace string
	RootName     string
	Headers      map[string]string
}

// ResponseDecodingContainer carries the response status and headers so the
// reflective codec can populate statusCode/header/headerPrefix-located
// output members while walking the shape.
type ResponseDecodingContainer struct {
	StatusCode int
	Headers    map[string][]string
}

// ReflectiveCodec is the external collaborator contract: given a shape
// value and a user-info container, produce (or consume) the dialect body.
// Its internals (how it walks struct fields by name/tag) are out of scope;
// only this contract is specified.
type ReflectiveCodec interface {
	EncodeJSON(v interface{}) ([]byte, error)
	DecodeJSON(data []byte, out interface{}) error

	EncodeXML(v interface{}, rootName, namespace string) (string, error)
	DecodeXML(data []byte, out interface{}, rootName string) error

	// EncodeForm renders v as a query/ec2 form-string, folding in
	// additionalKeys (e.g. Action/Version) first. ec2Flavor selects the
	// EC2-specific flattening rules for list encoding.
	EncodeForm(v interface{}, additionalKeys map[string]string, ec2Flavor bool) (string, error)
}

// Facade exposes the four dialect operations uniformly over an injected
// ReflectiveCodec.
type Facade struct {
	Codec ReflectiveCodec
}

func NewFacade(codec ReflectiveCodec) *Facade {
	return &Facade{Codec: codec}
}

func (f *Facade) EncodeJSON(v interface{}) ([]byte, error) {
	return f.Codec.EncodeJSON(v)
}

func (f *Facade) DecodeJSON(data []byte, out interface{}) error {
	if len(data) == 0 {
		return nil
	}
	return f.Codec.DecodeJSON(data, out)
}

func (f *Facade) EncodeXML(v interface{}, rootName, namespace string) (string, error) {
	return f.Codec.EncodeXML(v, rootName, namespace)
}

func (f *Facade) DecodeXML(data []byte, out interface{}, rootName string) error {
	if len(data) == 0 {
		return nil
	}
	return f.Codec.DecodeXML(data, out, rootName)
}

func (f *Facade) EncodeForm(v interface{}, additionalKeys map[string]string, ec2Flavor bool) (string, error) {
	return f.Codec.EncodeForm(v, additionalKeys, ec2Flavor)
}
