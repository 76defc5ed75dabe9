package record

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces deterministic JSON for a value tree, used
// for golden snapshots and mismatch reports.
//
// Properties:
//  1. Struct fields are emitted in declaration order
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Bytes are emitted as standard base64 strings
//  5. Non-finite floats are emitted as the strings "NaN", "Infinity",
//     and "-Infinity" (plain JSON cannot carry them)
func MarshalCanonical(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := marshalCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalCanonical(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil, Null:
		buf.WriteString("null")
		return nil
	case String:
		return marshalCanonicalString(buf, string(val))
	case Int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case Float:
		return marshalCanonicalFloat(buf, float64(val))
	case Bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case Bytes:
		return marshalCanonicalString(buf, base64.StdEncoding.EncodeToString(val))
	case Array:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
		return nil
	case *Struct:
		buf.WriteByte('{')
		for i, f := range val.Fields() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := marshalCanonicalString(buf, f.Name); err != nil {
				return fmt.Errorf("field name %q: %w", f.Name, err)
			}
			buf.WriteByte(':')
			if err := marshalCanonical(buf, f.Value); err != nil {
				return fmt.Errorf("field %q: %w", f.Name, err)
			}
		}
		buf.WriteByte('}')
		return nil
	default:
		return fmt.Errorf("unknown value type: %T", v)
	}
}

// marshalCanonicalString writes an NFC-normalized JSON string without
// HTML escaping.
func marshalCanonicalString(buf *bytes.Buffer, s string) error {
	normalized := norm.NFC.String(s)

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return err
	}
	// Encoder appends a trailing newline, drop it.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// marshalCanonicalFloat uses the shortest round-trippable decimal form.
// Integral floats keep a trailing ".0" so they stay distinguishable
// from ints in snapshots.
func marshalCanonicalFloat(buf *bytes.Buffer, f float64) error {
	switch {
	case math.IsNaN(f):
		buf.WriteString(`"NaN"`)
	case math.IsInf(f, 1):
		buf.WriteString(`"Infinity"`)
	case math.IsInf(f, -1):
		buf.WriteString(`"-Infinity"`)
	default:
		s := strconv.FormatFloat(f, 'g', -1, 64)
		buf.WriteString(s)
		if !strings.ContainsAny(s, ".eE") {
			buf.WriteString(".0")
		}
	}
	return nil
}
