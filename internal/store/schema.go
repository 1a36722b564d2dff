// Package store persists entity records in SQLite, one table per schema.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FieldType represents the data type of a field.
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeInteger  FieldType = "integer"
	FieldTypeFloat    FieldType = "float"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeDatetime FieldType = "datetime" // RFC 3339, stored as TEXT
)

// validFieldTypes is the set of recognized field types.
var validFieldTypes = map[FieldType]bool{
	FieldTypeString:   true,
	FieldTypeInteger:  true,
	FieldTypeFloat:    true,
	FieldTypeBoolean:  true,
	FieldTypeDatetime: true,
}

// FieldRole marks fields that receive special values when a record is
// created from nothing but an identifier.
type FieldRole string

const (
	RoleNone       FieldRole = ""
	RoleIdentifier FieldRole = "identifier" // receives the identifier string
	RoleSentinel   FieldRole = "sentinel"   // receives SentinelValue
	RoleReference  FieldRole = "reference"  // receives the key of the first record of Ref
	RoleSkip       FieldRole = "skip"       // left NULL
)

// SentinelValue is written to sentinel fields (emoji ids) on default creation.
const SentinelValue int64 = 10_000_000_000_000_000 // 100^8

// DefaultNow as a field default stamps the current time on insert.
const DefaultNow = "now"

// validIdentifier matches valid SQLite identifiers (alphanumeric + underscore, must start with letter or underscore).
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Field defines a single field in a schema.
type Field struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Primary  bool      `json:"primary,omitempty"`
	Auto     bool      `json:"auto,omitempty"`     // INTEGER PRIMARY KEY assigned by SQLite
	Index    bool      `json:"index,omitempty"`
	Optional bool      `json:"optional,omitempty"` // nullable
	Internal bool      `json:"internal,omitempty"` // hidden from view and list
	Default  any       `json:"default,omitempty"`
	Role     FieldRole `json:"role,omitempty"`
	Ref      string    `json:"ref,omitempty"` // referenced schema name for RoleReference
}

// Schema defines the structure of one entity kind.
type Schema struct {
	Name   string   `json:"name"`
	Fields []*Field `json:"fields"`
}

// ParseSchema loads and parses a JSON schema file.
func ParseSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}

	var schema Schema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("parsing schema JSON: %w", err)
	}

	return &schema, nil
}

// Table returns the SQLite table name for the schema.
func (s *Schema) Table() string {
	return strings.ToLower(s.Name)
}

// Field returns the named field, matching case-insensitively.
func (s *Schema) Field(name string) (*Field, bool) {
	for _, f := range s.Fields {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return nil, false
}

// FieldNames returns the names of all non-internal fields in declaration order.
func (s *Schema) FieldNames() []string {
	names := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		if f.Internal {
			continue
		}
		names = append(names, f.Name)
	}
	return names
}

// Validate checks that the schema is valid.
// It returns an error describing any validation failures.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("schema name is required")
	}

	if !validIdentifier.MatchString(s.Name) {
		return fmt.Errorf("schema name %q is not a valid identifier", s.Name)
	}

	if len(s.Fields) == 0 {
		return fmt.Errorf("schema must have at least one field")
	}

	seen := make(map[string]bool)
	var primaryFields []string
	for _, field := range s.Fields {
		if !validIdentifier.MatchString(field.Name) {
			return fmt.Errorf("field name %q is not a valid identifier", field.Name)
		}

		key := strings.ToLower(field.Name)
		if seen[key] {
			return fmt.Errorf("duplicate field %q", field.Name)
		}
		seen[key] = true

		if !validFieldTypes[field.Type] {
			return fmt.Errorf("field %q has invalid type %q", field.Name, field.Type)
		}

		if field.Primary {
			primaryFields = append(primaryFields, field.Name)
		}

		// Auto only valid for integer primary keys
		if field.Auto && (!field.Primary || field.Type != FieldTypeInteger) {
			return fmt.Errorf("field %q has auto:true but is not an integer primary key", field.Name)
		}

		if field.Role == RoleReference && field.Ref == "" {
			return fmt.Errorf("field %q is a reference without ref", field.Name)
		}
	}

	// Check for exactly one primary key
	if len(primaryFields) == 0 {
		return fmt.Errorf("schema must have exactly one primary key field")
	}
	if len(primaryFields) > 1 {
		return fmt.Errorf("schema has multiple primary keys: %s", strings.Join(primaryFields, ", "))
	}

	return nil
}

// PrimaryKeyField returns the name of the primary key field.
// It panics if the schema is invalid (no primary key).
func (s *Schema) PrimaryKeyField() string {
	for _, field := range s.Fields {
		if field.Primary {
			return field.Name
		}
	}
	panic("schema has no primary key field")
}

// ValidateRecord checks that every key of the record names a field of the
// schema and that every value can be stored in its field.
func (s *Schema) ValidateRecord(record Record) error {
	for name, value := range record {
		field, ok := s.Field(name)
		if !ok {
			return fmt.Errorf("%s has no field %q", s.Name, name)
		}
		if _, err := encodeValue(field, value); err != nil {
			return err
		}
	}
	return nil
}

// encodeValue converts a Go value to the SQLite representation of a field.
func encodeValue(field *Field, value any) (any, error) {
	if value == nil {
		return nil, nil
	}

	switch field.Type {
	case FieldTypeString:
		switch v := value.(type) {
		case string:
			return v, nil
		case time.Time:
			return v.UTC().Format(time.RFC3339), nil
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		default:
			return fmt.Sprint(v), nil
		}

	case FieldTypeInteger:
		switch v := value.(type) {
		case int:
			return int64(v), nil
		case int64:
			return v, nil
		case float64:
			if v != float64(int64(v)) {
				return nil, fmt.Errorf("field %q: expected integer, got float %v", field.Name, v)
			}
			return int64(v), nil
		case bool:
			return boolToInt(v), nil
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return n, nil
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && f == float64(int64(f)) {
				return int64(f), nil
			}
			return nil, fmt.Errorf("field %q: expected integer, got %q", field.Name, v)
		}

	case FieldTypeFloat:
		switch v := value.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, fmt.Errorf("field %q: expected float, got %q", field.Name, v)
			}
			return f, nil
		}

	case FieldTypeBoolean:
		switch v := value.(type) {
		case bool:
			return boolToInt(v), nil
		case int64:
			return boolToInt(v != 0), nil
		case int:
			return boolToInt(v != 0), nil
		case float64:
			return boolToInt(v != 0), nil
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("field %q: expected boolean, got %q", field.Name, v)
			}
			return boolToInt(b), nil
		}

	case FieldTypeDatetime:
		switch v := value.(type) {
		case time.Time:
			return v.UTC().Format(time.RFC3339), nil
		case string:
			return v, nil
		}
	}

	return nil, fmt.Errorf("field %q: cannot store %T as %s", field.Name, value, field.Type)
}

// decodeValue converts a scanned SQLite value back to its field type.
func decodeValue(field *Field, value any) any {
	if b, ok := value.([]byte); ok {
		value = string(b)
	}
	if field == nil || value == nil {
		return value
	}
	if field.Type == FieldTypeBoolean {
		if n, ok := value.(int64); ok {
			return n != 0
		}
	}
	return value
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// Record represents a single record in a store.
// Stored as map[string]any since schemas are registered at runtime.
type Record map[string]any
