package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/streamcheck/streamcheck/internal/capture"
	"github.com/streamcheck/streamcheck/internal/record"
	"github.com/streamcheck/streamcheck/internal/verify"
)

// Scenario declares one capture-and-verify round: how many events to
// wait for, which topics count, and what each captured record should
// contain.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden
	// file for snapshot comparison.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Expect is the number of relevant events to wait for.
	Expect int `yaml:"expect"`

	// TopicPrefixes restricts capture to topics starting with one of
	// these literal prefixes. Empty means capture everything.
	TopicPrefixes []string `yaml:"topic_prefixes,omitempty"`

	// Overflow selects the policy for events beyond Expect:
	// "reject" (default) fails the run, "accept" queues them silently.
	Overflow string `yaml:"overflow,omitempty"`

	// TimeoutMs bounds the wait for the expected events. Defaults to
	// 5000 when zero.
	TimeoutMs int `yaml:"timeout_ms,omitempty"`

	// Records describes the expected captured records, in emission
	// order.
	Records []RecordExpectation `yaml:"records"`
}

// RecordExpectation is the expectation tree for one captured record.
type RecordExpectation struct {
	// Topic the event must have been published on.
	Topic string `yaml:"topic"`

	// Fields lists the per-field expectations. Fields the record
	// carries but the expectation does not mention are ignored.
	Fields []FieldExpectation `yaml:"fields"`
}

// FieldExpectation declares one expected field.
type FieldExpectation struct {
	// Name of the field in the captured record.
	Name string `yaml:"name"`

	// Schema, when present, must equal the record schema's descriptor
	// for this field exactly.
	Schema *SchemaSpec `yaml:"schema,omitempty"`

	// Value is the expected value. Byte sequences are spelled as
	// {$bytes: "<base64>"}; nested mappings become struct values.
	Value interface{} `yaml:"value,omitempty"`

	// Absent requires the actual value to be null or missing. Mutually
	// exclusive with Value.
	Absent bool `yaml:"absent,omitempty"`
}

// SchemaSpec is the YAML form of a schema descriptor.
type SchemaSpec struct {
	Kind       string            `yaml:"kind"`
	Optional   bool              `yaml:"optional,omitempty"`
	Name       string            `yaml:"name,omitempty"`
	Parameters map[string]string `yaml:"parameters,omitempty"`
	Elem       *SchemaSpec       `yaml:"elem,omitempty"`
	Fields     []NamedSchemaSpec `yaml:"fields,omitempty"`
}

// NamedSchemaSpec pairs a field name with its descriptor inside a
// struct schema spec.
type NamedSchemaSpec struct {
	Name   string      `yaml:"name"`
	Schema *SchemaSpec `yaml:"schema"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "record:" vs "records:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Expect < 1 {
		return fmt.Errorf("expect must be at least 1")
	}
	if s.Overflow != "" && s.Overflow != "reject" && s.Overflow != "accept" {
		return fmt.Errorf("overflow must be \"reject\" or \"accept\", got %q", s.Overflow)
	}
	if len(s.Records) == 0 {
		return fmt.Errorf("records list is required and must be non-empty")
	}

	for i, rec := range s.Records {
		if rec.Topic == "" {
			return fmt.Errorf("records[%d]: topic is required", i)
		}
		if len(rec.Fields) == 0 {
			return fmt.Errorf("records[%d]: fields list is required and must be non-empty", i)
		}
		seen := make(map[string]bool, len(rec.Fields))
		for j, f := range rec.Fields {
			if f.Name == "" {
				return fmt.Errorf("records[%d].fields[%d]: name is required", i, j)
			}
			if seen[f.Name] {
				return fmt.Errorf("records[%d]: duplicate field %q", i, f.Name)
			}
			seen[f.Name] = true
			if f.Absent && f.Value != nil {
				return fmt.Errorf("records[%d].fields[%d]: value and absent are mutually exclusive", i, j)
			}
		}
	}

	return nil
}

// overflowPolicy maps the scenario's overflow string to the buffer
// policy. Validation already rejected anything else.
func (s *Scenario) overflowPolicy() capture.OverflowPolicy {
	if s.Overflow == "accept" {
		return capture.AcceptSilently
	}
	return capture.RejectOverflow
}

// Compile converts the record expectations into verifier expectations.
func (r RecordExpectation) Compile() ([]verify.Expected, error) {
	exps := make([]verify.Expected, 0, len(r.Fields))
	for _, f := range r.Fields {
		exp, err := f.Compile()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		exps = append(exps, exp)
	}
	return exps, nil
}

// Compile converts one field expectation.
func (f FieldExpectation) Compile() (verify.Expected, error) {
	exp := verify.Expected{Name: f.Name}

	if f.Schema != nil {
		schema, err := f.Schema.Compile()
		if err != nil {
			return verify.Expected{}, err
		}
		exp.Schema = schema
	}

	if !f.Absent {
		value, err := record.FromYAML(f.Value)
		if err != nil {
			return verify.Expected{}, err
		}
		exp.Value = value
	}

	return exp, nil
}

// Compile converts a schema spec into a schema descriptor.
func (s *SchemaSpec) Compile() (*record.Schema, error) {
	kind, err := record.ParseKind(s.Kind)
	if err != nil {
		return nil, err
	}

	schema := &record.Schema{
		Kind:       kind,
		Optional:   s.Optional,
		Name:       s.Name,
		Parameters: s.Parameters,
	}
	if s.Elem != nil {
		if schema.Elem, err = s.Elem.Compile(); err != nil {
			return nil, err
		}
	}
	for _, f := range s.Fields {
		fs, err := f.Schema.Compile()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		schema.Fields = append(schema.Fields, record.SchemaField{Name: f.Name, Schema: fs})
	}
	return schema, nil
}
