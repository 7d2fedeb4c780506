// SPDX-License-Identifier: Apache-2.0

package trio

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind discriminates the variants of Value.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBoolean
	KindReference
	KindMarker
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindReference:
		return "reference"
	case KindMarker:
		return "marker"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind by name so JSON output stays readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Value is a single decoded trio scalar. The kind is fixed by the
// constructor; only the fields belonging to that kind are meaningful.
type Value struct {
	kind Kind
	str  string
	num  float64
	unit string
	b    bool
	ref  string
	raw  string
}

func String(s string) Value { return Value{kind: KindString, str: s} }

// Number builds a numeric value; unit may be empty.
func Number(n float64, unit string) Value { return Value{kind: KindNumber, num: n, unit: unit} }

func Boolean(b bool) Value { return Value{kind: KindBoolean, b: b} }

func Marker() Value { return Value{kind: KindMarker} }

// Reference builds a reference value. raw is the text as it appeared in the
// document, including any display string after the id.
func Reference(id, raw string) Value { return Value{kind: KindReference, ref: id, str: raw} }

func (v Value) Kind() Kind { return v.kind }

// Text returns the string payload for strings and the raw text for references.
func (v Value) Text() string { return v.str }

func (v Value) Float() float64 { return v.num }

func (v Value) Unit() string { return v.unit }

func (v Value) Bool() bool { return v.b }

func (v Value) RefID() string { return v.ref }

// Raw returns the token as it appeared in the document, minus one layer of
// quotes. Values not produced by ParseValue fall back to Display.
func (v Value) Raw() string {
	if v.raw != "" {
		return v.raw
	}
	return v.Display()
}

func (v Value) withRaw(text string) Value {
	v.raw = text
	return v
}

// Display renders the value the way it would be shown to a user.
func (v Value) Display() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		s := strconv.FormatFloat(v.num, 'f', -1, 64)
		if v.unit != "" {
			return s + v.unit
		}
		return s
	case KindBoolean:
		return strconv.FormatBool(v.b)
	case KindReference:
		return v.ref
	case KindMarker:
		return "✓"
	default:
		return ""
	}
}

// jsonValue is the wire shape of Value.
type jsonValue struct {
	Kind   Kind     `json:"kind"`
	String string   `json:"string,omitempty"`
	Number *float64 `json:"number,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	Bool   *bool    `json:"bool,omitempty"`
	Ref    string   `json:"ref,omitempty"`
}

func (v Value) toJSON() jsonValue {
	out := jsonValue{Kind: v.kind}
	switch v.kind {
	case KindString:
		out.String = v.str
	case KindNumber:
		n := v.num
		out.Number = &n
		out.Unit = v.unit
	case KindBoolean:
		b := v.b
		out.Bool = &b
	case KindReference:
		out.Ref = v.ref
		out.String = v.str
	case KindMarker:
	}
	return out
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toJSON())
}

// referencePrefixes are tried in order; the first match wins.
var referencePrefixes = []string{"@", "r:", "ref:"}

var numberWithUnitRE = regexp.MustCompile(`^(-?\d*\.?\d+)\s*(.+)$`)

// ParseValue decodes one trimmed token. It never fails: text that matches no
// other rule becomes a String.
func ParseValue(token string) Value {
	text := stripQuotes(token)
	return parseText(text).withRaw(text)
}

func parseText(text string) Value {
	for _, prefix := range referencePrefixes {
		if strings.HasPrefix(text, prefix) && len(text) > len(prefix) {
			rest := strings.TrimSpace(text[len(prefix):])
			id := rest
			if i := strings.IndexAny(rest, " \t"); i >= 0 {
				id = rest[:i]
			}
			return Reference(id, text)
		}
	}

	if n, ok := parseFloat(text); ok {
		return Number(n, "")
	}

	switch strings.ToLower(text) {
	case "true":
		return Boolean(true)
	case "false":
		return Boolean(false)
	}

	if m := numberWithUnitRE.FindStringSubmatch(text); m != nil {
		if n, ok := parseFloat(m[1]); ok {
			unit := strings.Trim(m[2], `"'`)
			if unit != "" {
				return Number(n, unit)
			}
		}
	}

	return String(text)
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

// stripQuotes removes one layer of matching single or double quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
