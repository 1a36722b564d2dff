package script

import (
	"strconv"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"github.com/dotsian/dexscript/internal/model"
)

// Typer classifies raw segments against a fixed set of method names and a
// model registry.
type Typer struct {
	methods map[string]bool
	models  *model.Registry
}

// NewTyper returns a Typer recognising the given method names
// (case-insensitively) and the models of registry.
func NewTyper(methods []string, registry *model.Registry) *Typer {
	set := make(map[string]bool, len(methods))
	for _, m := range methods {
		set[strings.ToLower(m)] = true
	}
	return &Typer{methods: set, models: registry}
}

// Type classifies one raw segment. The first matching rule wins:
// method, model, datetime, number, boolean, string.
func (t *Typer) Type(raw string) Value {
	v := Value{Raw: raw, Kind: KindString}
	lower := strings.ToLower(raw)

	if t.methods[lower] {
		v.Kind = KindMethod
		return v
	}

	if t.models != nil {
		if entry, ok := t.models.Lookup(lower); ok {
			v.Kind = KindModel
			v.Model = entry
			v.Extra = append(v.Extra, entry.IdentifierField)
			return v
		}
	}

	if tm, ok := parseDatetime(lower); ok {
		v.Kind = KindDatetime
		v.Time = tm
		return v
	}

	if f, err := strconv.ParseFloat(lower, 64); err == nil {
		v.Kind = KindNumber
		v.Number = f
		return v
	}

	if lower == "true" || lower == "false" {
		v.Kind = KindBoolean
		v.Bool = lower == "true"
		return v
	}

	return v
}

// Parse tokenizes body and types every segment.
func (t *Typer) Parse(body string) []Line {
	raw := Tokenize(body)
	lines := make([]Line, len(raw))
	for i, rl := range raw {
		values := make([]Value, len(rl.Segments))
		for j, seg := range rl.Segments {
			values[j] = t.Type(seg)
		}
		lines[i] = Line{Number: i + 1, Text: rl.Text, Values: values}
	}
	return lines
}

// parseDatetime accepts text that parses as a date and has at least two
// hyphens, so plain numbers and short strings never become datetimes.
func parseDatetime(s string) (tm time.Time, ok bool) {
	if strings.Count(s, "-") < 2 {
		return tm, false
	}
	tm, err := now.Parse(s)
	if err != nil {
		return tm, false
	}
	return tm, true
}
