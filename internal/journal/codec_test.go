package journal

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamcheck/streamcheck/internal/record"
)

func roundTrip(t *testing.T, s *record.Struct) *record.Struct {
	t.Helper()
	data, err := marshalRecord(s)
	require.NoError(t, err)
	out, err := unmarshalRecord(data)
	require.NoError(t, err)
	return out
}

func TestCodec_ScalarFidelity(t *testing.T) {
	schema := &record.Schema{
		Kind: record.KindStruct,
		Fields: []record.SchemaField{
			{Name: "i", Schema: &record.Schema{Kind: record.KindInt64}},
			{Name: "f", Schema: &record.Schema{Kind: record.KindFloat64}},
			{Name: "s", Schema: &record.Schema{Kind: record.KindString}},
			{Name: "b", Schema: &record.Schema{Kind: record.KindBool}},
			{Name: "raw", Schema: &record.Schema{Kind: record.KindBytes}},
			{Name: "none", Schema: &record.Schema{Kind: record.KindString, Optional: true}},
		},
	}
	in := record.NewStruct(schema,
		record.Field{Name: "i", Value: record.Int(10)},
		record.Field{Name: "f", Value: record.Float(10)},
		record.Field{Name: "s", Value: record.String("hi")},
		record.Field{Name: "b", Value: record.Bool(true)},
		record.Field{Name: "raw", Value: record.Bytes{0x01, 0x02}},
		record.Field{Name: "none", Value: record.Null{}},
	)

	out := roundTrip(t, in)

	// Int and Float stay distinct types even when numerically equal.
	i, _ := out.Get("i")
	assert.Equal(t, record.Int(10), i)
	f, _ := out.Get("f")
	assert.Equal(t, record.Float(10), f)

	s, _ := out.Get("s")
	assert.Equal(t, record.String("hi"), s)
	b, _ := out.Get("b")
	assert.Equal(t, record.Bool(true), b)
	raw, _ := out.Get("raw")
	assert.Equal(t, record.Bytes{0x01, 0x02}, raw)
	none, _ := out.Get("none")
	assert.True(t, record.IsNull(none))
}

func TestCodec_NonFiniteFloats(t *testing.T) {
	in := record.NewStruct(nil,
		record.Field{Name: "nan", Value: record.Float(math.NaN())},
		record.Field{Name: "inf", Value: record.Float(math.Inf(1))},
		record.Field{Name: "ninf", Value: record.Float(math.Inf(-1))},
	)

	out := roundTrip(t, in)

	nan, _ := out.Get("nan")
	assert.True(t, math.IsNaN(float64(nan.(record.Float))))
	inf, _ := out.Get("inf")
	assert.Equal(t, record.Float(math.Inf(1)), inf)
	ninf, _ := out.Get("ninf")
	assert.Equal(t, record.Float(math.Inf(-1)), ninf)
}

func TestCodec_NestedComposites(t *testing.T) {
	inner := record.NewStruct(nil,
		record.Field{Name: "x", Value: record.Int(1)},
	)
	in := record.NewStruct(nil,
		record.Field{Name: "arr", Value: record.Array{record.String("a"), record.Null{}, inner}},
	)

	out := roundTrip(t, in)

	arr, ok := out.Get("arr")
	require.True(t, ok)
	elems, ok := arr.(record.Array)
	require.True(t, ok)
	require.Len(t, elems, 3)
	assert.Equal(t, record.String("a"), elems[0])
	assert.True(t, record.IsNull(elems[1]))

	nested, ok := elems[2].(*record.Struct)
	require.True(t, ok)
	x, _ := nested.Get("x")
	assert.Equal(t, record.Int(1), x)
}

func TestCodec_SchemaRoundTrip(t *testing.T) {
	schema := &record.Schema{
		Kind: record.KindStruct,
		Name: "server.public.t.Value",
		Fields: []record.SchemaField{
			{Name: "n", Schema: &record.Schema{
				Kind:       record.KindBytes,
				Optional:   true,
				Name:       "org.apache.kafka.connect.data.Decimal",
				Parameters: map[string]string{"scale": "2", "precision": "5"},
			}},
			{Name: "tags", Schema: &record.Schema{
				Kind: record.KindArray,
				Elem: &record.Schema{Kind: record.KindString},
			}},
		},
	}
	in := record.NewStruct(schema,
		record.Field{Name: "n", Value: record.Bytes{0x10}},
		record.Field{Name: "tags", Value: record.Array{record.String("a")}},
	)

	out := roundTrip(t, in)
	require.NotNil(t, out.Schema())
	assert.True(t, out.Schema().Equal(schema))
}

func TestCodec_RejectsGarbage(t *testing.T) {
	_, err := unmarshalRecord(`{"type":"haunted"}`)
	require.Error(t, err)

	_, err = unmarshalRecord(`not json`)
	require.Error(t, err)
}
