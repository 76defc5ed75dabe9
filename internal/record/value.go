package record

import "fmt"

// Value is a sealed interface over the value variants a decoded change
// record can carry. Only Null, String, Int, Float, Bool, Bytes, Array,
// and *Struct implement it.
//
// Carrying the variant as an explicit tag lets comparison code dispatch
// on the type switch instead of inspecting runtime representations.
type Value interface {
	value() // Sealed - only these types implement it
}

// Null represents an absent or SQL NULL value.
// Using an explicit type keeps nil and "present null" distinguishable
// where that matters; IsNull treats both the same.
type Null struct{}

func (Null) value() {}

// String represents a text value.
type String string

func (String) value() {}

// Int represents an integer value. Always int64: the harness does not
// distinguish source integer widths at the value level, the schema
// descriptor carries the width.
type Int int64

func (Int) value() {}

// Float represents a floating point value. NaN and the infinities are
// legal (sources emit them for special numeric columns).
type Float float64

func (Float) value() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) value() {}

// Bytes represents an opaque byte sequence. Comparison is always by
// content, never by backing representation.
type Bytes []byte

func (Bytes) value() {}

// Array represents an ordered sequence of values. Element order is
// significant; there are no set semantics anywhere in the harness.
type Array []Value

func (Array) value() {}

// Field is a named value inside a Struct. Order of fields is preserved.
type Field struct {
	Name  string
	Value Value
}

// Struct is a structured record: an ordered collection of named values
// with an optional attached schema. Structs are immutable once built.
type Struct struct {
	schema *Schema
	fields []Field
}

func (*Struct) value() {}

// NewStruct builds a struct from ordered fields. The schema may be nil
// for expectation fixtures that only assert on values.
func NewStruct(schema *Schema, fields ...Field) *Struct {
	s := &Struct{schema: schema, fields: make([]Field, len(fields))}
	copy(s.fields, fields)
	return s
}

// Schema returns the attached schema, or nil.
func (s *Struct) Schema() *Schema {
	return s.schema
}

// Fields returns the fields in declaration order. The returned slice
// must not be mutated.
func (s *Struct) Fields() []Field {
	return s.fields
}

// Get returns the value for a field by name. The second return is false
// if the struct has no such field.
func (s *Struct) Get(name string) (Value, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// IsNull reports whether v is absent: either a nil interface or an
// explicit Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// TypeName returns a short human-readable name for the value's variant,
// used in mismatch reports.
func TypeName(v Value) string {
	switch v.(type) {
	case nil, Null:
		return "null"
	case String:
		return "string"
	case Int:
		return "int"
	case Float:
		return "float"
	case Bool:
		return "bool"
	case Bytes:
		return "bytes"
	case Array:
		return "array"
	case *Struct:
		return "struct"
	default:
		return fmt.Sprintf("%T", v)
	}
}
