package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/dotsian/dexscript/internal/store"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	tests := []struct {
		name       string
		kind       string
		identifier string
	}{
		{"ball", "Ball", "COUNTRY"},
		{"BALL", "Ball", "COUNTRY"},
		{"regime", "Regime", "NAME"},
		{"economy", "Economy", "NAME"},
		{"special", "Special", "NAME"},
		{"GuildConfig", "GuildConfig", "ID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := r.Lookup(tt.name)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.name)
			}
			if e.Kind() != tt.kind {
				t.Errorf("Kind() = %q, want %q", e.Kind(), tt.kind)
			}
			if e.IdentifierField != tt.identifier {
				t.Errorf("IdentifierField = %q, want %q", e.IdentifierField, tt.identifier)
			}
			if e.Identifier() == nil {
				t.Error("Identifier() = nil, want schema field")
			}
		})
	}

	if _, ok := r.Lookup("car"); ok {
		t.Error("Lookup(car) should fail")
	}

	want := []string{"ball", "economy", "guildconfig", "regime", "special"}
	if got := r.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if got := len(r.Schemas()); got != 5 {
		t.Errorf("len(Schemas()) = %d, want 5", got)
	}
}

func TestRegistryKind(t *testing.T) {
	r := Default()

	e, ok := r.Kind("ball")
	if !ok || e.Name != "ball" {
		t.Errorf("Kind(ball) = %v, %v", e, ok)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := Default()

	err := r.Register("Ball", Ball, "COUNTRY")
	if !errors.Is(err, ErrModelExists) {
		t.Errorf("Register duplicate error = %v, want ErrModelExists", err)
	}
}

func TestRegisterRejectsMissingIdentifier(t *testing.T) {
	r := NewRegistry()

	err := r.Register("regime", Regime, "TITLE")
	if !errors.Is(err, ErrUnknownIdentifier) {
		t.Errorf("Register error = %v, want ErrUnknownIdentifier", err)
	}
}

func TestRegisterRejectsInvalidSchema(t *testing.T) {
	r := NewRegistry()

	err := r.Register("broken", &store.Schema{Name: "Broken"}, "id")
	if err == nil {
		t.Error("expected error for schema without fields")
	}
}

func TestMustRegisterPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustRegister should panic on duplicate")
		}
	}()

	r := Default()
	r.MustRegister("ball", Ball, "COUNTRY")
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Earth", "Earth", 1},
		{"Eart", "Earth", 0.8},
		{"", "", 1},
		{"abc", "xyz", 0},
	}

	for _, tt := range tests {
		if got := Similarity(tt.a, tt.b); got != tt.want {
			t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	candidates := []string{"Earth", "Mars", "Venus"}

	tests := []struct {
		name           string
		identifier     string
		wantErr        bool
		wantSuggestion string
	}{
		{"exact", "Earth", false, ""},
		{"close", "Eart", true, "Earth"},
		{"case differs", "earth", true, "Earth"},
		{"nothing close", "Jupiter", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.identifier, candidates)
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Resolve: %v", err)
				}
				if got != tt.identifier {
					t.Errorf("Resolve() = %q, want %q", got, tt.identifier)
				}
				return
			}

			var lookupErr *LookupError
			if !errors.As(err, &lookupErr) {
				t.Fatalf("Resolve error = %v, want *LookupError", err)
			}
			if lookupErr.Suggestion != tt.wantSuggestion {
				t.Errorf("Suggestion = %q, want %q", lookupErr.Suggestion, tt.wantSuggestion)
			}
		})
	}
}

func TestLookupErrorMessage(t *testing.T) {
	err := &LookupError{Identifier: "Eart", Suggestion: "Earth"}
	want := "'Eart' does not exist.\nDid you mean 'Earth'?"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	plain := &LookupError{Identifier: "Jupiter"}
	if plain.Error() != "'Jupiter' does not exist." {
		t.Errorf("Error() = %q", plain.Error())
	}
}
