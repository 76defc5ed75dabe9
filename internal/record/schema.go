package record

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the primitive or composite type a schema describes.
type Kind int

const (
	KindInt8 Kind = iota + 1
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindBool
	KindString
	KindBytes
	KindArray
	KindStruct
)

var kindNames = map[Kind]string{
	KindInt8:    "int8",
	KindInt16:   "int16",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindBool:    "bool",
	KindString:  "string",
	KindBytes:   "bytes",
	KindArray:   "array",
	KindStruct:  "struct",
}

// String returns the lowercase name of the kind, as used in scenario
// fixtures and journal storage.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a kind name back to its Kind. The inverse of
// Kind.String for all valid kinds.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown schema kind %q", name)
}

// SchemaField pairs a field name with its descriptor inside a struct
// schema. Order is preserved.
type SchemaField struct {
	Name   string
	Schema *Schema
}

// Schema is an opaque type descriptor for one field: primitive kind,
// optionality, an optional logical type name, and a metadata mapping
// for type parameters such as precision, scale, or length.
//
// Two schemas are equal iff kind, optionality, name, and the metadata
// mapping match exactly; parameter insertion order is irrelevant.
// Array and struct schemas additionally compare their element schema
// and field descriptors.
type Schema struct {
	Kind       Kind
	Optional   bool
	Name       string
	Parameters map[string]string
	Elem       *Schema       // element schema, arrays only
	Fields     []SchemaField // field descriptors, structs only
}

// Field returns the descriptor for a named field of a struct schema,
// or nil if the schema has no such field (or is not a struct schema).
func (s *Schema) Field(name string) *Schema {
	if s == nil {
		return nil
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Schema
		}
	}
	return nil
}

// Equal reports exact descriptor equality. Nil schemas are only equal
// to nil schemas.
func (s *Schema) Equal(o *Schema) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.Kind != o.Kind || s.Optional != o.Optional || s.Name != o.Name {
		return false
	}
	if len(s.Parameters) != len(o.Parameters) {
		return false
	}
	for k, v := range s.Parameters {
		ov, ok := o.Parameters[k]
		if !ok || ov != v {
			return false
		}
	}
	if !s.Elem.Equal(o.Elem) {
		return false
	}
	if len(s.Fields) != len(o.Fields) {
		return false
	}
	for i, f := range s.Fields {
		if f.Name != o.Fields[i].Name || !f.Schema.Equal(o.Fields[i].Schema) {
			return false
		}
	}
	return true
}

// String renders a compact description for diagnostics, e.g.
// "int32, optional" or "bytes {scale:2}".
func (s *Schema) String() string {
	if s == nil {
		return "<nil>"
	}
	out := s.Kind.String()
	if s.Name != "" {
		out = s.Name + " (" + out + ")"
	}
	if s.Optional {
		out += ", optional"
	}
	if len(s.Parameters) > 0 {
		out += " " + formatParameters(s.Parameters)
	}
	return out
}

// formatParameters renders the metadata mapping with sorted keys so
// diagnostics are deterministic.
func formatParameters(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", k, params[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
