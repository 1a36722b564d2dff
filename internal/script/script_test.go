package script

import (
	"reflect"
	"testing"

	"github.com/dotsian/dexscript/internal/model"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		body string
		want [][]string
	}{
		{
			name: "three segments",
			body: "A > B > C",
			want: [][]string{{"A", "B", "C"}},
		},
		{
			name: "whitespace insignificant",
			body: "  CREATE>BALL >   Earth  ",
			want: [][]string{{"CREATE", "BALL", "Earth"}},
		},
		{
			name: "comment truncates",
			body: "SHOW > hello -- > ignored",
			want: [][]string{{"SHOW", "hello"}},
		},
		{
			name: "comment inside segment",
			body: "CREATE > BA--LL > Earth",
			want: [][]string{{"CREATE", "BA"}},
		},
		{
			name: "comment only line",
			body: "-- nothing here\nSHOW > x",
			want: [][]string{{"SHOW", "x"}},
		},
		{
			name: "newline separated",
			body: "SHOW > a\n\n   \nSHOW > b",
			want: [][]string{{"SHOW", "a"}, {"SHOW", "b"}},
		},
		{
			name: "statement separator",
			body: "SHOW > a;'SHOW > b",
			want: [][]string{{"SHOW", "a"}, {"SHOW", "b"}},
		},
		{
			name: "trailing delimiter dropped",
			body: "SHOW > a >\nSHOW > b",
			want: [][]string{{"SHOW", "b"}},
		},
		{
			name: "empty middle segment kept",
			body: "A >> B",
			want: [][]string{{"A", "", "B"}},
		},
		{
			name: "single segment",
			body: "PUSH",
			want: [][]string{{"PUSH"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines := Tokenize(tt.body)
			var got [][]string
			for _, l := range lines {
				got = append(got, l.Segments)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}

func TestCleanupCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```\nSHOW > a\n```", "\nSHOW > a\n"},
		{"```sql\nSHOW > a\n```", "\nSHOW > a\n"},
		{"```SHOW > a```", "SHOW > a"},
		{"  SHOW > a\n", "SHOW > a"},
		{"`SHOW > a`", "SHOW > a"},
	}

	for _, tt := range tests {
		if got := CleanupCode(tt.in); got != tt.want {
			t.Errorf("CleanupCode(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func testTyper() *Typer {
	return NewTyper([]string{"push", "create", "delete", "update", "view", "list", "file", "show"}, model.Default())
}

func TestTypePriority(t *testing.T) {
	typer := testTyper()

	tests := []struct {
		raw  string
		want Kind
	}{
		{"CREATE", KindMethod},
		{"show", KindMethod},
		{"BALL", KindModel},
		{"regime", KindModel},
		{"2024-01-01", KindDatetime},
		{"1.5", KindNumber},
		{"42", KindNumber},
		{"true", KindBoolean},
		{"FALSE", KindBoolean},
		{"TrUe", KindBoolean},
		{"Earth", KindString},
		{"-yields", KindString},
		{"12-3", KindString},
		{"", KindString},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v := typer.Type(tt.raw)
			if v.Kind != tt.want {
				t.Errorf("Type(%q).Kind = %v, want %v", tt.raw, v.Kind, tt.want)
			}
			if v.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", v.Raw, tt.raw)
			}
		})
	}
}

func TestTypeNormalizes(t *testing.T) {
	typer := testTyper()

	ball := typer.Type("Ball")
	if ball.Model == nil || ball.Model.Kind() != "Ball" {
		t.Fatalf("Model = %v, want Ball entry", ball.Model)
	}
	if len(ball.Extra) != 1 || ball.Extra[0] != "COUNTRY" {
		t.Errorf("Extra = %v, want [COUNTRY]", ball.Extra)
	}
	if ball.String() != "Ball" {
		t.Errorf("String() = %q, want Ball", ball.String())
	}

	b := typer.Type("TRUE")
	if !b.Bool || b.String() != "true" || b.Payload() != true {
		t.Errorf("boolean = %+v", b)
	}

	n := typer.Type("42")
	if n.Number != 42 || n.Payload() != "42" {
		t.Errorf("number = %+v", n)
	}

	d := typer.Type("2024-01-01")
	if d.Time.Year() != 2024 || d.Time.Month() != 1 || d.Time.Day() != 1 {
		t.Errorf("datetime = %v", d.Time)
	}
	if d.String() != "2024-01-01 00:00:00" {
		t.Errorf("datetime String() = %q", d.String())
	}
}

func TestParse(t *testing.T) {
	typer := testTyper()

	lines := typer.Parse("CREATE > BALL > Earth > true\nbroken >\nVIEW > BALL > Earth")
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}

	first := lines[0]
	kinds := []Kind{KindMethod, KindModel, KindString, KindBoolean}
	for i, k := range kinds {
		if first.Values[i].Kind != k {
			t.Errorf("value %d kind = %v, want %v", i, first.Values[i].Kind, k)
		}
	}
	if first.Number != 1 || lines[1].Number != 2 {
		t.Errorf("line numbers = %d, %d", first.Number, lines[1].Number)
	}

	m, ok := lines[1].Method()
	if !ok || m.Raw != "VIEW" {
		t.Errorf("Method() = %v, %v", m, ok)
	}
}

func TestLineWithoutMethod(t *testing.T) {
	lines := testTyper().Parse("BALL > Earth")
	if len(lines) != 1 {
		t.Fatalf("len(lines) = %d, want 1", len(lines))
	}
	if _, ok := lines[0].Method(); ok {
		t.Error("Method() should report no method")
	}
}

func TestLineMethodIsFirstCommandWord(t *testing.T) {
	lines := testTyper().Parse("FILE > DELETE > notes.txt\nSHOW > list")
	if len(lines) != 2 {
		t.Fatalf("len(lines) = %d, want 2", len(lines))
	}

	for i, want := range []string{"FILE", "SHOW"} {
		m, ok := lines[i].Method()
		if !ok || m.Raw != want {
			t.Errorf("line %d: Method() = %q, %v; want %q", i+1, m.Raw, ok, want)
		}
	}
	if lines[0].Values[1].Kind != KindMethod {
		t.Errorf("DELETE kind = %v, want %v", lines[0].Values[1].Kind, KindMethod)
	}
}
