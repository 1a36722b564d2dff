package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrNotFound is returned when no record matches a lookup.
var ErrNotFound = errors.New("record not found")

// Store is a SQLite database holding one table per registered schema.
type Store struct {
	path string
	db   *sql.DB
}

// Open opens (creating if needed) the database at path and ensures a table
// exists for every schema. Use ":memory:" for an ephemeral store.
func Open(path string, schemas ...*Schema) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating store directory: %w", err)
		}
	}

	db, err := openStoreDB(path)
	if err != nil {
		return nil, err
	}

	s := &Store{path: path, db: db}
	for _, schema := range schemas {
		if err := s.EnsureSchema(schema); err != nil {
			db.Close()
			return nil, err
		}
	}

	return s, nil
}

// Path returns the database path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema validates the schema and creates its table and indexes.
func (s *Store) EnsureSchema(schema *Schema) error {
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("invalid schema %s: %w", schema.Name, err)
	}

	if _, err := s.db.Exec(GenerateDDL(schema)); err != nil {
		return fmt.Errorf("creating table %s: %w", schema.Table(), err)
	}

	for _, field := range schema.Fields {
		if field.Index && !field.Primary {
			if _, err := s.db.Exec(GenerateIndexDDL(schema.Table(), field.Name)); err != nil {
				return fmt.Errorf("creating index for %s: %w", field.Name, err)
			}
		}
	}

	return nil
}

// Create inserts a record, filling fields with defaults where the record
// leaves them out, and returns the stored record.
func (s *Store) Create(ctx context.Context, schema *Schema, record Record) (Record, error) {
	if err := schema.ValidateRecord(record); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	var cols, placeholders []string
	var values []any

	for _, field := range schema.Fields {
		value, ok := lookup(record, field.Name)
		if value == nil {
			switch {
			case field.Auto:
				continue
			case field.Default != nil:
				value = defaultValue(field)
			case !ok:
				continue
			}
		}

		encoded, err := encodeValue(field, value)
		if err != nil {
			return nil, err
		}

		cols = append(cols, field.Name)
		placeholders = append(placeholders, "?")
		values = append(values, encoded)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.Table(),
		strings.Join(cols, ", "),
		strings.Join(placeholders, ", "))
	if len(cols) == 0 {
		query = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", schema.Table())
	}

	res, err := s.db.ExecContext(ctx, query, values...)
	if err != nil {
		return nil, fmt.Errorf("inserting %s: %w", schema.Name, err)
	}

	pkField := schema.PrimaryKeyField()
	pkValue, ok := lookup(record, pkField)
	if !ok || pkValue == nil {
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("reading inserted id: %w", err)
		}
		pkValue = id
	}

	records, err := s.Filter(ctx, schema, pkField, pkValue)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s %v after insert", ErrNotFound, schema.Name, pkValue)
	}
	return records[0], nil
}

// Save writes every field of the record back to the row with the same primary key.
func (s *Store) Save(ctx context.Context, schema *Schema, record Record) error {
	if err := schema.ValidateRecord(record); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	pkField := schema.PrimaryKeyField()
	pkValue, ok := lookup(record, pkField)
	if !ok || pkValue == nil {
		return fmt.Errorf("missing primary key field %q", pkField)
	}

	var sets []string
	var values []any
	for _, field := range schema.Fields {
		if field.Primary {
			continue
		}
		value, ok := lookup(record, field.Name)
		if !ok {
			continue
		}
		encoded, err := encodeValue(field, value)
		if err != nil {
			return err
		}
		sets = append(sets, field.Name+" = ?")
		values = append(values, encoded)
	}

	if len(sets) == 0 {
		return nil
	}

	pkFieldDef, _ := schema.Field(pkField)
	pkEncoded, err := encodeValue(pkFieldDef, pkValue)
	if err != nil {
		return err
	}
	values = append(values, pkEncoded)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		schema.Table(), strings.Join(sets, ", "), pkField)

	res, err := s.db.ExecContext(ctx, query, values...)
	if err != nil {
		return fmt.Errorf("updating %s: %w", schema.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %v", ErrNotFound, schema.Name, pkValue)
	}

	return nil
}

// Delete removes the row with the record's primary key.
func (s *Store) Delete(ctx context.Context, schema *Schema, record Record) error {
	pkField := schema.PrimaryKeyField()
	pkValue, ok := lookup(record, pkField)
	if !ok || pkValue == nil {
		return fmt.Errorf("missing primary key field %q", pkField)
	}

	pkFieldDef, _ := schema.Field(pkField)
	pkEncoded, err := encodeValue(pkFieldDef, pkValue)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", schema.Table(), pkField)
	res, err := s.db.ExecContext(ctx, query, pkEncoded)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", schema.Name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s %v", ErrNotFound, schema.Name, pkValue)
	}

	return nil
}

// Filter returns the records whose field equals value.
func (s *Store) Filter(ctx context.Context, schema *Schema, field string, value any) ([]Record, error) {
	f, ok := schema.Field(field)
	if !ok {
		return nil, fmt.Errorf("%s has no field %q", schema.Name, field)
	}

	encoded, err := encodeValue(f, value)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY %s",
		schema.Table(), f.Name, schema.PrimaryKeyField())
	return s.query(ctx, schema, query, encoded)
}

// All returns every record of the schema in primary key order.
func (s *Store) All(ctx context.Context, schema *Schema) ([]Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", schema.Table(), schema.PrimaryKeyField())
	return s.query(ctx, schema, query)
}

// First returns the record with the lowest primary key.
func (s *Store) First(ctx context.Context, schema *Schema) (Record, error) {
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT 1", schema.Table(), schema.PrimaryKeyField())
	records, err := s.query(ctx, schema, query)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no %s records", ErrNotFound, schema.Name)
	}
	return records[0], nil
}

// Count returns the number of records of the schema.
func (s *Store) Count(ctx context.Context, schema *Schema) (int, error) {
	var n int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", schema.Table())
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting %s: %w", schema.Name, err)
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, schema *Schema, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows, schema)
}

// lookup finds a record value by field name, ignoring case.
func lookup(record Record, name string) (any, bool) {
	if v, ok := record[name]; ok {
		return v, true
	}
	for k, v := range record {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

// defaultValue resolves a field's declared default.
func defaultValue(field *Field) any {
	if s, ok := field.Default.(string); ok && s == DefaultNow && field.Type == FieldTypeDatetime {
		return time.Now().UTC()
	}
	return field.Default
}
