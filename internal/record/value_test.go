package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStruct_Get(t *testing.T) {
	s := NewStruct(nil,
		Field{Name: "a", Value: Int(1)},
		Field{Name: "b", Value: String("x")},
	)

	v, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, Int(1), v)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestStruct_FieldOrderPreserved(t *testing.T) {
	s := NewStruct(nil,
		Field{Name: "z", Value: Int(1)},
		Field{Name: "a", Value: Int(2)},
		Field{Name: "m", Value: Int(3)},
	)

	names := make([]string, 0, 3)
	for _, f := range s.Fields() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(Int(0)))
	assert.False(t, IsNull(String("")))
	assert.False(t, IsNull(Bytes(nil)))
}

func TestTypeName(t *testing.T) {
	tests := []struct {
		v    Value
		name string
	}{
		{nil, "null"},
		{Null{}, "null"},
		{String("x"), "string"},
		{Int(1), "int"},
		{Float(1.5), "float"},
		{Bool(true), "bool"},
		{Bytes{1}, "bytes"},
		{Array{Int(1)}, "array"},
		{NewStruct(nil), "struct"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, TypeName(tt.v))
	}
}

func TestFromYAML(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want Value
	}{
		{"nil", nil, Null{}},
		{"bool", true, Bool(true)},
		{"string", "hello", String("hello")},
		{"int", 42, Int(42)},
		{"int64", int64(1234567890123), Int(1234567890123)},
		{"float", 3.3, Float(3.3)},
		{"sequence", []interface{}{1, "two"}, Array{Int(1), String("two")}},
		{"bytes literal", map[string]interface{}{"$bytes": "AQID"}, Bytes{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromYAML(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromYAML_MappingSortedKeys(t *testing.T) {
	got, err := FromYAML(map[string]interface{}{
		"scale": 4,
		"value": map[string]interface{}{"$bytes": "AYqv"},
	})
	require.NoError(t, err)

	s, ok := got.(*Struct)
	require.True(t, ok)
	require.Len(t, s.Fields(), 2)
	assert.Equal(t, "scale", s.Fields()[0].Name)
	assert.Equal(t, Int(4), s.Fields()[0].Value)
	assert.Equal(t, "value", s.Fields()[1].Name)
	assert.Equal(t, Bytes{0x01, 0x8a, 0xaf}, s.Fields()[1].Value)
}

func TestFromYAML_InvalidBase64(t *testing.T) {
	_, err := FromYAML(map[string]interface{}{"$bytes": "not base64!!"})
	require.Error(t, err)
}

func TestFromYAML_UnsupportedType(t *testing.T) {
	_, err := FromYAML(struct{}{})
	require.Error(t, err)
}
