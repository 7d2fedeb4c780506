// SPDX-License-Identifier: Apache-2.0

// Package trio parses the section-delimited trio point-list format exported
// by building-automation field controllers and projects its records into
// BACnet points.
package trio

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrNoSections is returned in strict mode when a document yields no sections.
	ErrNoSections = errors.New("no valid sections")
	// ErrMalformedTag marks a tag line that cannot form a tag, such as ":value".
	ErrMalformedTag = errors.New("malformed tag")
)

// Severity of a Diagnostic.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind string

const (
	KindNoSections      DiagnosticKind = "no_sections"
	KindEmptySection    DiagnosticKind = "empty_section"
	KindSuspiciousValue DiagnosticKind = "suspicious_value"
	KindSectionFailure  DiagnosticKind = "section_failure"
)

// Diagnostic is a structured parse warning or error. Line is 1-based and 0
// when the diagnostic concerns the whole document.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Message  string         `json:"message"`
	Line     int            `json:"line"`
	Severity Severity       `json:"severity"`
}

// Tag is one name/value pair of a Record.
type Tag struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// SourceLine is a document line that contributed to a Record.
type SourceLine struct {
	Number int    `json:"number"`
	Text   string `json:"text"`
}

// Record is an insertion-ordered tag map. Setting an existing name replaces
// its value in place.
type Record struct {
	tags  []Tag
	index map[string]int
	Lines []SourceLine
}

// NewRecord returns an empty Record.
func NewRecord() *Record {
	return &Record{index: make(map[string]int)}
}

// Set stores value under name, overwriting any earlier value.
func (r *Record) Set(name string, value Value) {
	if i, ok := r.index[name]; ok {
		r.tags[i].Value = value
		return
	}
	r.index[name] = len(r.tags)
	r.tags = append(r.tags, Tag{Name: name, Value: value})
}

// Get returns the value stored under name.
func (r *Record) Get(name string) (Value, bool) {
	i, ok := r.index[name]
	if !ok {
		return Value{}, false
	}
	return r.tags[i].Value, true
}

func (r *Record) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Tags returns the tags in insertion order.
func (r *Record) Tags() []Tag {
	out := make([]Tag, len(r.tags))
	copy(out, r.tags)
	return out
}

func (r *Record) Len() int { return len(r.tags) }

func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Tags  []Tag        `json:"tags"`
		Lines []SourceLine `json:"lines,omitempty"`
	}{Tags: r.tags, Lines: r.Lines})
}

// Section is one `---`-delimited block of a document. Record is nil when the
// section held no parsable lines.
type Section struct {
	Index     int     `json:"index"`
	Record    *Record `json:"record,omitempty"`
	Raw       string  `json:"raw"`
	StartLine int     `json:"startLine"`
}

// ParseResult is the outcome of parsing one document. It is not modified
// after Parse returns.
type ParseResult struct {
	DocumentID    string       `json:"documentId"`
	Sections      []Section    `json:"sections"`
	TotalSections int          `json:"totalSections"`
	TotalPoints   int          `json:"totalPoints"`
	Diagnostics   []Diagnostic `json:"diagnostics"`
	IsValid       bool         `json:"isValid"`
	ParsedAt      time.Time    `json:"parsedAt"`
}

// Records returns the non-empty records in section order.
func (r *ParseResult) Records() []*Record {
	var out []*Record
	for _, s := range r.Sections {
		if s.Record != nil {
			out = append(out, s.Record)
		}
	}
	return out
}

// Warnings returns the diagnostics with warning severity.
func (r *ParseResult) Warnings() []Diagnostic {
	return r.filter(SeverityWarning)
}

// Errors returns the diagnostics with error severity.
func (r *ParseResult) Errors() []Diagnostic {
	return r.filter(SeverityError)
}

func (r *ParseResult) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}
