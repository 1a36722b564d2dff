// Package model maps the human-facing names used in scripts to entity kinds.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dotsian/dexscript/internal/store"
)

// Errors.
var (
	ErrModelExists       = errors.New("model already registered")
	ErrUnknownIdentifier = errors.New("identifier field not in schema")
)

// Entry is an immutable registry entry: an entity kind and the field used
// as its human-facing identifier.
type Entry struct {
	Name            string // lower-cased registry key, e.g. "ball"
	Schema          *store.Schema
	IdentifierField string // e.g. "COUNTRY"
}

// Kind returns the entity kind name, e.g. "Ball".
func (e *Entry) Kind() string {
	return e.Schema.Name
}

// Identifier returns the schema field behind IdentifierField.
func (e *Entry) Identifier() *store.Field {
	f, _ := e.Schema.Field(e.IdentifierField)
	return f
}

func (e *Entry) String() string {
	return e.Schema.Name
}

// Registry holds the entity kinds scripts can name.
// Entries are registered once at startup and only read afterwards.
type Registry struct {
	entries map[string]*Entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
	}
}

// Register adds an entity kind under name. The schema must be valid and
// contain the identifier field.
func (r *Registry) Register(name string, schema *store.Schema, identifierField string) error {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return fmt.Errorf("model name is required")
	}
	if _, exists := r.entries[key]; exists {
		return fmt.Errorf("%w: %s", ErrModelExists, key)
	}
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("model %s: %w", key, err)
	}
	if _, ok := schema.Field(identifierField); !ok {
		return fmt.Errorf("%w: %s has no field %q", ErrUnknownIdentifier, schema.Name, identifierField)
	}

	r.entries[key] = &Entry{
		Name:            key,
		Schema:          schema,
		IdentifierField: identifierField,
	}
	return nil
}

// MustRegister is Register for static tables; it panics on error.
func (r *Registry) MustRegister(name string, schema *store.Schema, identifierField string) {
	if err := r.Register(name, schema, identifierField); err != nil {
		panic(err)
	}
}

// Lookup returns the entry for a model name, ignoring case.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	e, ok := r.entries[strings.ToLower(name)]
	return e, ok
}

// Kind returns the entry whose entity kind (schema name) matches, ignoring case.
func (r *Registry) Kind(kind string) (*Entry, bool) {
	for _, e := range r.entries {
		if strings.EqualFold(e.Schema.Name, kind) {
			return e, true
		}
	}
	return nil, false
}

// Names returns the registered model names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Schemas returns the schemas of every registered entry, sorted by model name.
func (r *Registry) Schemas() []*store.Schema {
	names := r.Names()
	schemas := make([]*store.Schema, len(names))
	for i, name := range names {
		schemas[i] = r.entries[name].Schema
	}
	return schemas
}
