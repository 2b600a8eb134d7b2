// Package shape holds the per-field Shape Encoding Descriptor emitted by the
// (out-of-scope) per-service code generator, plus the per-shape option
// bitset. Nothing here touches the wire; it is pure metadata consumed by
// package request and package protocol.
package shape

// LocationKind discriminates where a member's encoded value is carried.
type LocationKind int

const (
	LocationNone LocationKind = iota
	LocationURI
	LocationQuerystring
	LocationHeader
	LocationHeaderPrefix
	LocationStatusCode
	LocationBody
	LocationHostname
)

// Location pairs a LocationKind with the name/prefix it carries.
type Location struct {
	Kind LocationKind
	Name string // uri/querystring/header/headerPrefix/body/hostname name or prefix
}

func URI(name string) Location           { return Location{Kind: LocationURI, Name: name} }
func Querystring(name string) Location   { return Location{Kind: LocationQuerystring, Name: name} }
func Header(name string) Location        { return Location{Kind: LocationHeader, Name: name} }
func HeaderPrefix(prefix string) Location { return Location{Kind: LocationHeaderPrefix, Name: prefix} }
func StatusCode() Location               { return Location{Kind: LocationStatusCode} }
func Body(name string) Location          { return Location{Kind: LocationBody, Name: name} }
func Hostname(name string) Location      { return Location{Kind: LocationHostname, Name: name} }

// CollectionEncoding selects how a list or map member serializes on the
// wire, independent of dialect (the dialect-specific rendering lives in
// package protocol).
type CollectionEncoding int

const (
	EncodingDefault CollectionEncoding = iota
	EncodingFlatList
	EncodingList
	EncodingFlatMap
	EncodingMap
	EncodingBlob
)

// ShapeEncoding carries a CollectionEncoding plus the member names needed to
// render it (list member name; map entry/key/value names).
type ShapeEncoding struct {
	Kind       CollectionEncoding
	Member     string // list(member)
	EntryName  string // map(entry,key,value)
	KeyName    string // flatMap/map key child name
	ValueName  string // flatMap/map value child name
}

// FieldDescriptor is the per-field metadata the generator emits for one
// member of an input or output shape.
type FieldDescriptor struct {
	Label    string // Go field name
	WireName string // name on the wire (JSON key / XML element / form key)
	Location Location
	Encoding ShapeEncoding
	Required bool
	// Validation, optional.
	MinLength, MaxLength *int
	Pattern              string
	MinCount, MaxCount   *int // element-count bounds for list/map members
	// Nested carries the encoding descriptor of a struct-kind member, so its
	// own fields' constraints are checked recursively.
	Nested Descriptor
}

// Descriptor is the full per-shape encoding table: one FieldDescriptor per
// member that participates in request/response encoding.
type Descriptor []FieldDescriptor

// FieldsForLocation returns every field descriptor matching the given kind,
// preserving declaration order.
func (d Descriptor) FieldsForLocation(kind LocationKind) []FieldDescriptor {
	var out []FieldDescriptor
	for _, f := range d {
		if f.Location.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

// PayloadField returns the single body(name) field acting as the raw
// payload carrier, if any.
func (d Descriptor) PayloadField() (FieldDescriptor, bool) {
	for _, f := range d {
		if f.Location.Kind == LocationBody {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}
