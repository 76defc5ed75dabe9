package verify

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"github.com/streamcheck/streamcheck/internal/record"
)

// Expected describes what one field of a captured record should
// contain. It is constructed once per test scenario and is immutable.
//
// Schema, when non-nil, requires the actual record's schema to carry an
// exactly equal descriptor for the field. Value nil (or record.Null)
// requires the actual value to be absent. OnlyIf, when present and
// false at verification time, skips the value comparison; the schema
// check still applies. The guard is a plain closure fixed at
// construction, not a mutable toggle.
type Expected struct {
	Name   string
	Schema *record.Schema
	Value  record.Value
	OnlyIf func() bool
}

// VerifyField asserts that one expected field matches the actual
// record per the structural comparison rules:
//
//   - schema lookup by name with exact descriptor equality
//   - ordered sequences compare positionally, never as sets
//   - byte sequences compare by content
//   - nested structs compare asymmetrically: only fields present in
//     the expected struct are checked, extra actual fields are ignored
//   - scalars compare by value after a value-category check
//
// The asymmetric nested recursion lets expectation fixtures check only
// the fields a scenario cares about, so additive schema changes in the
// producer do not break unrelated scenarios.
func VerifyField(exp Expected, actual *record.Struct) error {
	if err := verifySchema(exp, actual); err != nil {
		return err
	}

	if exp.OnlyIf != nil && !exp.OnlyIf() {
		return nil
	}

	return verifyValue(exp, actual)
}

// VerifyAll runs every expectation against the record and joins the
// failures, so one report covers all mismatching fields.
func VerifyAll(exps []Expected, actual *record.Struct) error {
	var errs []error
	for _, exp := range exps {
		if err := VerifyField(exp, actual); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// verifySchema checks the field's descriptor in the actual record's
// schema against the expected descriptor, when one was specified.
func verifySchema(exp Expected, actual *record.Struct) error {
	if exp.Schema == nil {
		return nil
	}

	fieldSchema := actual.Schema().Field(exp.Name)
	if fieldSchema == nil {
		return mismatch(MismatchFieldNotFound, exp.Name, nil,
			"field present in record schema", "not found")
	}

	if !fieldSchema.Equal(exp.Schema) {
		return mismatch(MismatchSchema, exp.Name, nil,
			exp.Schema.String(), fieldSchema.String())
	}

	return nil
}

// verifyValue handles the null contract for the top-level field, then
// hands off to the recursive comparison.
func verifyValue(exp Expected, actual *record.Struct) error {
	av, ok := actual.Get(exp.Name)

	if record.IsNull(exp.Value) {
		if ok && !record.IsNull(av) {
			return mismatch(MismatchUnexpectedNull, exp.Name, nil,
				"null", formatValue(av))
		}
		return nil
	}

	if !ok || record.IsNull(av) {
		return mismatch(MismatchMissingValue, exp.Name, nil,
			formatValue(exp.Value), "null")
	}

	return compareValue(exp.Name, nil, exp.Value, av)
}

// compareValue dispatches on the expected value's variant tag.
func compareValue(field string, path []string, expected, actual record.Value) error {
	switch ev := expected.(type) {
	case record.Array:
		aa, ok := actual.(record.Array)
		if !ok {
			return mismatch(MismatchType, field, path,
				"array", record.TypeName(actual))
		}
		if len(ev) != len(aa) {
			return mismatch(MismatchLength, field, path,
				fmt.Sprintf("%d elements", len(ev)),
				fmt.Sprintf("%d elements", len(aa)))
		}
		for i := range ev {
			elemPath := childPath(path, fmt.Sprintf("[%d]", i))
			if err := compareValue(field, elemPath, ev[i], aa[i]); err != nil {
				return err
			}
		}
		return nil

	case record.Bytes:
		ab, ok := actual.(record.Bytes)
		if !ok {
			return mismatch(MismatchType, field, path,
				"bytes", record.TypeName(actual))
		}
		if !bytes.Equal(ev, ab) {
			return mismatch(MismatchValue, field, path,
				formatValue(ev), formatValue(ab))
		}
		return nil

	case *record.Struct:
		as, ok := actual.(*record.Struct)
		if !ok {
			return mismatch(MismatchType, field, path,
				"struct", record.TypeName(actual))
		}
		return compareStruct(field, path, ev, as)

	default:
		if record.IsNull(expected) {
			if !record.IsNull(actual) {
				return mismatch(MismatchUnexpectedNull, field, path,
					"null", formatValue(actual))
			}
			return nil
		}
		if record.TypeName(expected) != record.TypeName(actual) {
			return mismatch(MismatchType, field, path,
				record.TypeName(expected), record.TypeName(actual))
		}
		if !scalarEqual(expected, actual) {
			return mismatch(MismatchValue, field, path,
				formatValue(expected), formatValue(actual))
		}
		return nil
	}
}

// compareStruct recurses field-by-field driven by the expected struct's
// field set. Fields absent from the expected struct are not checked:
// the comparison is expected-subset-of-actual, not symmetric.
func compareStruct(field string, path []string, expected, actual *record.Struct) error {
	for _, f := range expected.Fields() {
		fieldPath := childPath(path, f.Name)

		if record.IsNull(f.Value) {
			if av, ok := actual.Get(f.Name); ok && !record.IsNull(av) {
				return mismatch(MismatchUnexpectedNull, field, fieldPath,
					"null", formatValue(av))
			}
			continue
		}

		av, ok := actual.Get(f.Name)
		if !ok || record.IsNull(av) {
			return mismatch(MismatchMissingValue, field, fieldPath,
				formatValue(f.Value), "null")
		}

		if record.TypeName(f.Value) != record.TypeName(av) {
			return mismatch(MismatchType, field, fieldPath,
				record.TypeName(f.Value), record.TypeName(av))
		}

		if err := compareValue(field, fieldPath, f.Value, av); err != nil {
			return err
		}
	}
	return nil
}

// scalarEqual compares two scalar values of the same variant. NaN
// compares equal to NaN so expectations for special float columns work.
func scalarEqual(expected, actual record.Value) bool {
	if ef, ok := expected.(record.Float); ok {
		af := actual.(record.Float)
		if math.IsNaN(float64(ef)) && math.IsNaN(float64(af)) {
			return true
		}
	}
	return expected == actual
}

// childPath copies the path before extending it so sibling branches do
// not share backing arrays.
func childPath(path []string, elem string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = elem
	return out
}

// formatValue renders a value for mismatch reports using the canonical
// JSON form when possible.
func formatValue(v record.Value) string {
	data, err := record.MarshalCanonical(v)
	if err != nil {
		return record.TypeName(v)
	}
	return string(data)
}
