package record

import (
	"encoding/base64"
	"fmt"
	"math"
	"sort"
)

// bytesKey marks a byte-sequence value in scenario fixtures. YAML has
// no portable binary scalar once decoded into interface{}, so fixtures
// spell byte values as a single-key mapping: {$bytes: "AQID"}.
const bytesKey = "$bytes"

// FromYAML converts a decoded YAML tree (as produced by yaml.v3 into
// interface{} targets) into a tagged Value.
//
// Mappings become schema-less structs with fields in sorted key order,
// since Go maps do not preserve YAML document order. Integers stay Int
// as long as they fit int64; everything with a fractional part becomes
// Float.
func FromYAML(v interface{}) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of int64 range: %d", val)
		}
		return Int(val), nil
	case float64:
		return Float(val), nil
	case []byte:
		return Bytes(val), nil
	case []interface{}:
		arr := make(Array, len(val))
		for i, elem := range val {
			conv, err := FromYAML(elem)
			if err != nil {
				return nil, fmt.Errorf("sequence[%d]: %w", i, err)
			}
			arr[i] = conv
		}
		return arr, nil
	case map[string]interface{}:
		if raw, ok := bytesLiteral(val); ok {
			decoded, err := base64.StdEncoding.DecodeString(raw)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid base64: %w", bytesKey, err)
			}
			return Bytes(decoded), nil
		}

		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fields := make([]Field, 0, len(keys))
		for _, k := range keys {
			conv, err := FromYAML(val[k])
			if err != nil {
				return nil, fmt.Errorf("mapping[%q]: %w", k, err)
			}
			fields = append(fields, Field{Name: k, Value: conv})
		}
		return NewStruct(nil, fields...), nil
	default:
		return nil, fmt.Errorf("unsupported fixture value type %T", v)
	}
}

// bytesLiteral recognizes the {$bytes: "..."} convention.
func bytesLiteral(m map[string]interface{}) (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	raw, ok := m[bytesKey]
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}
