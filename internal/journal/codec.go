package journal

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/streamcheck/streamcheck/internal/record"
)

// The journal stores records in a tagged JSON envelope so values
// round-trip with their exact variant and schema. Canonical JSON is not
// enough here: it flattens bytes into strings and loses the int/float
// distinction, which would break replay through the verifier.

type wireValue struct {
	Type   string          `json:"type"`
	Value  json.RawMessage `json:"value,omitempty"`
	Elems  []wireValue     `json:"elems,omitempty"`
	Fields []wireField     `json:"fields,omitempty"`
	Schema *wireSchema     `json:"schema,omitempty"`
}

type wireField struct {
	Name  string    `json:"name"`
	Value wireValue `json:"value"`
}

type wireSchema struct {
	Kind       string            `json:"kind"`
	Optional   bool              `json:"optional,omitempty"`
	Name       string            `json:"name,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Elem       *wireSchema       `json:"elem,omitempty"`
	Fields     []wireSchemaField `json:"fields,omitempty"`
}

type wireSchemaField struct {
	Name   string      `json:"name"`
	Schema *wireSchema `json:"schema"`
}

// marshalRecord converts a structured record to JSON TEXT for storage.
func marshalRecord(s *record.Struct) (string, error) {
	wv, err := encodeValue(s)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	data, err := json.Marshal(wv)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(data), nil
}

// unmarshalRecord parses stored JSON TEXT back into a structured record.
func unmarshalRecord(data string) (*record.Struct, error) {
	var wv wireValue
	if err := json.Unmarshal([]byte(data), &wv); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	v, err := decodeValue(wv)
	if err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}

	s, ok := v.(*record.Struct)
	if !ok {
		return nil, fmt.Errorf("unmarshal record: top-level value is %s, want struct", record.TypeName(v))
	}
	return s, nil
}

func encodeValue(v record.Value) (wireValue, error) {
	switch val := v.(type) {
	case nil, record.Null:
		return wireValue{Type: "null"}, nil

	case record.String:
		raw, err := json.Marshal(string(val))
		if err != nil {
			return wireValue{}, err
		}
		return wireValue{Type: "string", Value: raw}, nil

	case record.Int:
		return wireValue{Type: "int", Value: json.RawMessage(strconv.FormatInt(int64(val), 10))}, nil

	case record.Float:
		raw, err := encodeFloat(float64(val))
		if err != nil {
			return wireValue{}, err
		}
		return wireValue{Type: "float", Value: raw}, nil

	case record.Bool:
		return wireValue{Type: "bool", Value: json.RawMessage(strconv.FormatBool(bool(val)))}, nil

	case record.Bytes:
		raw, err := json.Marshal(base64.StdEncoding.EncodeToString(val))
		if err != nil {
			return wireValue{}, err
		}
		return wireValue{Type: "bytes", Value: raw}, nil

	case record.Array:
		elems := make([]wireValue, len(val))
		for i, elem := range val {
			we, err := encodeValue(elem)
			if err != nil {
				return wireValue{}, fmt.Errorf("array[%d]: %w", i, err)
			}
			elems[i] = we
		}
		return wireValue{Type: "array", Elems: elems}, nil

	case *record.Struct:
		fields := make([]wireField, 0, len(val.Fields()))
		for _, f := range val.Fields() {
			wf, err := encodeValue(f.Value)
			if err != nil {
				return wireValue{}, fmt.Errorf("field %q: %w", f.Name, err)
			}
			fields = append(fields, wireField{Name: f.Name, Value: wf})
		}
		return wireValue{Type: "struct", Fields: fields, Schema: encodeSchema(val.Schema())}, nil

	default:
		return wireValue{}, fmt.Errorf("unknown value type: %T", v)
	}
}

func decodeValue(wv wireValue) (record.Value, error) {
	switch wv.Type {
	case "null":
		return record.Null{}, nil

	case "string":
		var s string
		if err := json.Unmarshal(wv.Value, &s); err != nil {
			return nil, err
		}
		return record.String(s), nil

	case "int":
		var n int64
		if err := json.Unmarshal(wv.Value, &n); err != nil {
			return nil, err
		}
		return record.Int(n), nil

	case "float":
		f, err := decodeFloat(wv.Value)
		if err != nil {
			return nil, err
		}
		return record.Float(f), nil

	case "bool":
		var b bool
		if err := json.Unmarshal(wv.Value, &b); err != nil {
			return nil, err
		}
		return record.Bool(b), nil

	case "bytes":
		var s string
		if err := json.Unmarshal(wv.Value, &s); err != nil {
			return nil, err
		}
		decoded, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("invalid base64: %w", err)
		}
		return record.Bytes(decoded), nil

	case "array":
		arr := make(record.Array, len(wv.Elems))
		for i, we := range wv.Elems {
			elem, err := decodeValue(we)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = elem
		}
		return arr, nil

	case "struct":
		fields := make([]record.Field, 0, len(wv.Fields))
		for _, wf := range wv.Fields {
			v, err := decodeValue(wf.Value)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", wf.Name, err)
			}
			fields = append(fields, record.Field{Name: wf.Name, Value: v})
		}
		schema, err := decodeSchema(wv.Schema)
		if err != nil {
			return nil, err
		}
		return record.NewStruct(schema, fields...), nil

	default:
		return nil, fmt.Errorf("unknown wire value type %q", wv.Type)
	}
}

// encodeFloat renders non-finite floats as strings; JSON numbers
// cannot carry them.
func encodeFloat(f float64) (json.RawMessage, error) {
	switch {
	case math.IsNaN(f):
		return json.RawMessage(`"NaN"`), nil
	case math.IsInf(f, 1):
		return json.RawMessage(`"Infinity"`), nil
	case math.IsInf(f, -1):
		return json.RawMessage(`"-Infinity"`), nil
	default:
		return json.Marshal(f)
	}
}

func decodeFloat(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("invalid float value %s", string(raw))
	}
	switch s {
	case "NaN":
		return math.NaN(), nil
	case "Infinity":
		return math.Inf(1), nil
	case "-Infinity":
		return math.Inf(-1), nil
	default:
		return 0, fmt.Errorf("invalid float string %q", s)
	}
}

func encodeSchema(s *record.Schema) *wireSchema {
	if s == nil {
		return nil
	}

	ws := &wireSchema{
		Kind:       s.Kind.String(),
		Optional:   s.Optional,
		Name:       s.Name,
		Parameters: s.Parameters,
		Elem:       encodeSchema(s.Elem),
	}
	for _, f := range s.Fields {
		ws.Fields = append(ws.Fields, wireSchemaField{Name: f.Name, Schema: encodeSchema(f.Schema)})
	}
	return ws
}

func decodeSchema(ws *wireSchema) (*record.Schema, error) {
	if ws == nil {
		return nil, nil
	}

	kind, err := record.ParseKind(ws.Kind)
	if err != nil {
		return nil, err
	}

	s := &record.Schema{
		Kind:       kind,
		Optional:   ws.Optional,
		Name:       ws.Name,
		Parameters: ws.Parameters,
	}
	if s.Elem, err = decodeSchema(ws.Elem); err != nil {
		return nil, err
	}
	for _, f := range ws.Fields {
		fs, err := decodeSchema(f.Schema)
		if err != nil {
			return nil, err
		}
		s.Fields = append(s.Fields, record.SchemaField{Name: f.Name, Schema: fs})
	}
	return s, nil
}
