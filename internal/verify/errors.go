package verify

import (
	"fmt"
	"strings"
)

// Mismatch kinds, used to categorize structural verification failures.
const (
	MismatchFieldNotFound  = "field not found"
	MismatchSchema         = "schema mismatch"
	MismatchUnexpectedNull = "unexpected value present"
	MismatchMissingValue   = "missing value"
	MismatchType           = "type mismatch"
	MismatchLength         = "length mismatch"
	MismatchValue          = "value mismatch"
)

// MismatchError is returned when a structural verification fails.
// It names the offending field and, for nested structures, the path to
// the mismatching leaf.
type MismatchError struct {
	Kind     string   // Mismatch kind for categorization
	Field    string   // Top-level field the expectation targeted
	Path     []string // Path to the mismatching leaf inside the field
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
}

// Error implements the error interface.
func (e *MismatchError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Verification failed: %s for field %q", e.Kind, e.Field)
	if len(e.Path) > 0 {
		fmt.Fprintf(&buf, " (at %s)", strings.Join(e.Path, "."))
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)

	return buf.String()
}

func mismatch(kind, field string, path []string, expected, actual string) *MismatchError {
	return &MismatchError{
		Kind:     kind,
		Field:    field,
		Path:     append([]string(nil), path...),
		Expected: expected,
		Actual:   actual,
	}
}
