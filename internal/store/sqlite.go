package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// openStoreDB opens a SQLite database for a store.
func openStoreDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// SQLite doesn't support concurrent writes
	db.SetMaxOpenConns(1)

	return db, nil
}

// GenerateDDL generates a CREATE TABLE statement from a schema.
func GenerateDDL(schema *Schema) string {
	var cols []string

	for _, field := range schema.Fields {
		col := fmt.Sprintf("%s %s", field.Name, sqliteType(field.Type))
		if field.Primary {
			col += " PRIMARY KEY"
		}
		if field.Auto {
			col += " AUTOINCREMENT"
		}
		cols = append(cols, col)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		schema.Table(),
		strings.Join(cols, ",\n  "))
}

// GenerateIndexDDL generates a CREATE INDEX statement for a field.
func GenerateIndexDDL(tableName, fieldName string) string {
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_%s ON %s(%s)",
		tableName, fieldName, tableName, fieldName)
}

// sqliteType maps FieldType to SQLite type.
func sqliteType(ft FieldType) string {
	switch ft {
	case FieldTypeString, FieldTypeDatetime:
		return "TEXT"
	case FieldTypeInteger, FieldTypeBoolean:
		return "INTEGER"
	case FieldTypeFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

// scanRecords converts SQL rows to records, decoding values through the schema.
func scanRecords(rows *sql.Rows, schema *Schema) ([]Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var records []Record
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, err
		}

		record := make(Record)
		for i, col := range cols {
			field, _ := schema.Field(col)
			record[col] = decodeValue(field, values[i])
		}
		records = append(records, record)
	}

	return records, rows.Err()
}
