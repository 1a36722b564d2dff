// Package script turns DexScript source text into lines of typed values.
package script

import (
	"strconv"
	"time"

	"github.com/dotsian/dexscript/internal/model"
)

// Kind classifies a parsed token.
type Kind int

const (
	KindString Kind = iota
	KindMethod
	KindNumber
	KindBoolean
	KindModel
	KindDatetime
)

var kindNames = map[Kind]string{
	KindString:   "string",
	KindMethod:   "method",
	KindNumber:   "number",
	KindBoolean:  "boolean",
	KindModel:    "model",
	KindDatetime: "datetime",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// DatetimeLayout is how datetime values are rendered back to text.
const DatetimeLayout = "2006-01-02 15:04:05"

// Value is a typed token. The kind is decided once from Raw; the typed
// fields hold the normalized payload for the kinds that have one.
type Value struct {
	Raw    string
	Kind   Kind
	Number float64      // KindNumber
	Bool   bool         // KindBoolean
	Time   time.Time    // KindDatetime
	Model  *model.Entry // KindModel
	Extra  []string     // KindModel: Extra[0] is the identifier field
}

// String renders the value the way replies show it.
func (v Value) String() string {
	switch v.Kind {
	case KindModel:
		if v.Model != nil {
			return v.Model.Kind()
		}
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindDatetime:
		return v.Time.Format(DatetimeLayout)
	}
	return v.Raw
}

// Payload returns the value to write into a record field. Numbers keep
// their source text so the store can coerce them to the field's type.
func (v Value) Payload() any {
	switch v.Kind {
	case KindBoolean:
		return v.Bool
	case KindDatetime:
		return v.Time
	case KindModel:
		return v.String()
	}
	return v.Raw
}

// Is reports whether the value is of kind k.
func (v Value) Is(k Kind) bool {
	return v.Kind == k
}

// Line is one parsed script line.
type Line struct {
	Number int    // 1-based position among the kept lines
	Text   string // source text after comment removal
	Values []Value
}

// Method returns the first method-typed value of the line.
func (l Line) Method() (Value, bool) {
	for _, v := range l.Values {
		if v.Kind == KindMethod {
			return v, true
		}
	}
	return Value{}, false
}
