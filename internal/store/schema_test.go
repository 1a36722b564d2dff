package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseSchema(t *testing.T) {
	// Create a temp schema file
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "pack.json")

	schemaJSON := `{
		"name": "Pack",
		"fields": [
			{"name": "id", "type": "integer", "primary": true, "auto": true},
			{"name": "title", "type": "string", "role": "identifier", "index": true},
			{"name": "regime_id", "type": "integer", "role": "reference", "ref": "regime"},
			{"name": "price", "type": "float"},
			{"name": "enabled", "type": "boolean", "default": true},
			{"name": "released", "type": "datetime", "optional": true}
		]
	}`

	if err := os.WriteFile(schemaPath, []byte(schemaJSON), 0644); err != nil {
		t.Fatalf("writing schema file: %v", err)
	}

	schema, err := ParseSchema(schemaPath)
	if err != nil {
		t.Fatalf("ParseSchema: %v", err)
	}

	if schema.Name != "Pack" {
		t.Errorf("Name = %q, want %q", schema.Name, "Pack")
	}
	if schema.Table() != "pack" {
		t.Errorf("Table() = %q, want %q", schema.Table(), "pack")
	}
	if len(schema.Fields) != 6 {
		t.Errorf("len(Fields) = %d, want 6", len(schema.Fields))
	}

	id, ok := schema.Field("ID")
	if !ok {
		t.Fatal("Field(ID) not found")
	}
	if !id.Primary || !id.Auto {
		t.Error("id should be an auto primary key")
	}
	title, _ := schema.Field("title")
	if title.Role != RoleIdentifier {
		t.Errorf("title.Role = %q, want %q", title.Role, RoleIdentifier)
	}
	ref, _ := schema.Field("regime_id")
	if ref.Ref != "regime" {
		t.Errorf("regime_id.Ref = %q, want %q", ref.Ref, "regime")
	}
	if err := schema.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseSchema_FileNotFound(t *testing.T) {
	_, err := ParseSchema("/nonexistent/path/schema.json")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestParseSchema_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "invalid.json")

	if err := os.WriteFile(schemaPath, []byte("not valid json"), 0644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	_, err := ParseSchema(schemaPath)
	if err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestSchemaValidate(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		wantErr bool
	}{
		{
			name:    "valid",
			schema:  testSchema(),
			wantErr: false,
		},
		{
			name:    "missing name",
			schema:  &Schema{Fields: []*Field{{Name: "id", Type: FieldTypeInteger, Primary: true}}},
			wantErr: true,
		},
		{
			name:    "invalid name",
			schema:  &Schema{Name: "1bad", Fields: []*Field{{Name: "id", Type: FieldTypeInteger, Primary: true}}},
			wantErr: true,
		},
		{
			name:    "no fields",
			schema:  &Schema{Name: "empty"},
			wantErr: true,
		},
		{
			name:    "no primary key",
			schema:  &Schema{Name: "nopk", Fields: []*Field{{Name: "name", Type: FieldTypeString}}},
			wantErr: true,
		},
		{
			name: "two primary keys",
			schema: &Schema{Name: "twopk", Fields: []*Field{
				{Name: "a", Type: FieldTypeInteger, Primary: true},
				{Name: "b", Type: FieldTypeInteger, Primary: true},
			}},
			wantErr: true,
		},
		{
			name: "duplicate field ignoring case",
			schema: &Schema{Name: "dupe", Fields: []*Field{
				{Name: "id", Type: FieldTypeInteger, Primary: true},
				{Name: "Name", Type: FieldTypeString},
				{Name: "name", Type: FieldTypeString},
			}},
			wantErr: true,
		},
		{
			name: "invalid type",
			schema: &Schema{Name: "badtype", Fields: []*Field{
				{Name: "id", Type: "uuid", Primary: true},
			}},
			wantErr: true,
		},
		{
			name: "auto on string key",
			schema: &Schema{Name: "badauto", Fields: []*Field{
				{Name: "id", Type: FieldTypeString, Primary: true, Auto: true},
			}},
			wantErr: true,
		},
		{
			name: "reference without ref",
			schema: &Schema{Name: "badref", Fields: []*Field{
				{Name: "id", Type: FieldTypeInteger, Primary: true},
				{Name: "regime_id", Type: FieldTypeInteger, Role: RoleReference},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchemaFieldNames(t *testing.T) {
	schema := testSchema()
	schema.Fields = append(schema.Fields, &Field{Name: "secret", Type: FieldTypeString, Internal: true})

	got := schema.FieldNames()
	want := []string{"id", "name", "count", "score", "active", "created_at"}
	if len(got) != len(want) {
		t.Fatalf("FieldNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FieldNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestValidateRecord(t *testing.T) {
	schema := testSchema()

	tests := []struct {
		name    string
		record  Record
		wantErr bool
	}{
		{"valid", Record{"name": "Earth", "count": float64(3), "active": true}, false},
		{"case-insensitive field", Record{"NAME": "Earth"}, false},
		{"numeric string into integer", Record{"count": "42"}, false},
		{"integer into string", Record{"name": int64(1)}, false},
		{"unknown field", Record{"colour": "blue"}, true},
		{"fractional integer", Record{"count": 1.5}, true},
		{"bad boolean", Record{"active": "maybe"}, true},
		{"bad float", Record{"score": "high"}, true},
		{"null allowed", Record{"score": nil}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := schema.ValidateRecord(tt.record)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeValue(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name  string
		field *Field
		value any
		want  any
	}{
		{"bool true", &Field{Name: "b", Type: FieldTypeBoolean}, true, int64(1)},
		{"bool from string", &Field{Name: "b", Type: FieldTypeBoolean}, "false", int64(0)},
		{"float to string", &Field{Name: "s", Type: FieldTypeString}, float64(1), "1"},
		{"time to string", &Field{Name: "s", Type: FieldTypeString}, when, "2024-01-02T03:04:05Z"},
		{"time to datetime", &Field{Name: "d", Type: FieldTypeDatetime}, when, "2024-01-02T03:04:05Z"},
		{"integral float", &Field{Name: "i", Type: FieldTypeInteger}, float64(7), int64(7)},
		{"int to float", &Field{Name: "f", Type: FieldTypeFloat}, 2, float64(2)},
		{"nil", &Field{Name: "f", Type: FieldTypeFloat}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := encodeValue(tt.field, tt.value)
			if err != nil {
				t.Fatalf("encodeValue: %v", err)
			}
			if got != tt.want {
				t.Errorf("encodeValue() = %#v, want %#v", got, tt.want)
			}
		})
	}
}
