// SPDX-License-Identifier: Apache-2.0

package trio

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
)

const (
	sectionSeparator = "---"
	commentPrefix    = "//"
)

// Options controls Parse.
type Options struct {
	// StrictMode aborts the document on the first structural error instead of
	// recording it as a warning and moving on to the next section.
	StrictMode bool
}

// chunk is a trimmed section body and the document line it starts on.
type chunk struct {
	text      string
	startLine int
}

// pendingValue accumulates a multi-line value opened by "tag:" with no text.
type pendingValue struct {
	name  string
	lines []string
}

// Parse splits content into sections and decodes each section into a Record.
// Problems with individual sections are recorded as diagnostics; the returned
// error is non-nil only in strict mode. documentID may be empty, in which
// case a random one is assigned.
func Parse(_ context.Context, documentID, content string, opts Options) (*ParseResult, error) {
	if documentID == "" {
		documentID = uuid.NewString()
	}
	result := &ParseResult{
		DocumentID: documentID,
		Sections:   []Section{},
		ParsedAt:   time.Now().UTC(),
	}

	chunks := splitSections(content)
	if len(chunks) == 0 {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Kind:     KindNoSections,
			Message:  "no valid sections found in document",
			Severity: SeverityError,
		})
		if opts.StrictMode {
			return result, ErrNoSections
		}
		return result, nil
	}

	for _, c := range chunks {
		section := Section{
			Index:     len(result.Sections),
			Raw:       c.text,
			StartLine: c.startLine,
		}

		record, diags, err := parseSection(c)
		result.Diagnostics = append(result.Diagnostics, diags...)
		if err != nil {
			if opts.StrictMode {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					Kind:     KindSectionFailure,
					Message:  fmt.Sprintf("section %d: %v", section.Index, err),
					Line:     c.startLine,
					Severity: SeverityError,
				})
				result.Sections = append(result.Sections, section)
				result.finish(false)
				return result, fmt.Errorf("section %d: %w", section.Index, err)
			}
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Kind:     KindSectionFailure,
				Message:  fmt.Sprintf("section %d skipped: %v", section.Index, err),
				Line:     c.startLine,
				Severity: SeverityWarning,
			})
			result.Sections = append(result.Sections, section)
			continue
		}

		if record.Len() == 0 {
			result.Diagnostics = append(result.Diagnostics, Diagnostic{
				Kind:     KindEmptySection,
				Message:  fmt.Sprintf("section %d has no tags", section.Index),
				Line:     c.startLine,
				Severity: SeverityWarning,
			})
		} else {
			section.Record = record
		}
		result.Sections = append(result.Sections, section)
	}

	result.finish(true)
	return result, nil
}

func (r *ParseResult) finish(valid bool) {
	r.TotalSections = len(r.Sections)
	r.TotalPoints = 0
	for _, s := range r.Sections {
		if s.Record != nil {
			r.TotalPoints++
		}
	}
	r.IsValid = valid && r.TotalSections > 0
}

// normalizeText unifies line endings, expands tabs and trims the document.
// It also reports how many lines the leading trim removed so diagnostics can
// keep pointing at the caller's line numbers.
func normalizeText(content string) (string, int) {
	text := strings.ReplaceAll(content, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", "  ")

	trimmedLeft := strings.TrimLeftFunc(text, unicode.IsSpace)
	skipped := strings.Count(text[:len(text)-len(trimmedLeft)], "\n")
	return strings.TrimRightFunc(trimmedLeft, unicode.IsSpace), skipped
}

// splitSections cuts the document at lines whose trimmed text is exactly the
// separator. Dashes inside values or comment banners do not split.
func splitSections(content string) []chunk {
	text, skipped := normalizeText(content)
	if text == "" {
		return nil
	}

	var chunks []chunk
	lines := strings.Split(text, "\n")
	start := 0
	flush := func(end int) {
		part := strings.Join(lines[start:end], "\n")
		left := strings.TrimLeftFunc(part, unicode.IsSpace)
		if body := strings.TrimRightFunc(left, unicode.IsSpace); body != "" {
			lead := part[:len(part)-len(left)]
			line := 1 + skipped + start + strings.Count(lead, "\n")
			chunks = append(chunks, chunk{text: body, startLine: line})
		}
		start = end + 1
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == sectionSeparator {
			flush(i)
		}
	}
	flush(len(lines))
	return chunks
}

func parseSection(c chunk) (*Record, []Diagnostic, error) {
	record := NewRecord()
	var diags []Diagnostic
	var pending *pendingValue

	closePending := func() {
		if pending == nil {
			return
		}
		record.Set(pending.name, ParseValue(strings.TrimSpace(strings.Join(pending.lines, "\n"))))
		pending = nil
	}

	for i, raw := range strings.Split(c.text, "\n") {
		lineNum := c.startLine + i
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}
		record.Lines = append(record.Lines, SourceLine{Number: lineNum, Text: line})

		colon := strings.Index(line, ":")
		if colon < 0 {
			if pending != nil {
				pending.lines = append(pending.lines, line)
				continue
			}
			if d, ok := checkSuspicious(line, "", lineNum); ok {
				diags = append(diags, d)
			}
			record.Set(line, Marker())
			continue
		}

		closePending()
		name := strings.TrimSpace(line[:colon])
		valueText := strings.TrimSpace(line[colon+1:])
		if name == "" {
			return nil, diags, fmt.Errorf("line %d: %w: %q", lineNum, ErrMalformedTag, line)
		}
		if d, ok := checkSuspicious(name, valueText, lineNum); ok {
			diags = append(diags, d)
		}
		if valueText == "" {
			pending = &pendingValue{name: name}
			continue
		}
		record.Set(name, ParseValue(valueText))
	}
	closePending()

	return record, diags, nil
}

// checkSuspicious flags data-quality smells carried over from controller
// exports: tag names mentioning "invalid" and values containing "INVALID".
func checkSuspicious(name, value string, line int) (Diagnostic, bool) {
	switch {
	case strings.Contains(strings.ToLower(name), "invalid"):
		return Diagnostic{
			Kind:     KindSuspiciousValue,
			Message:  fmt.Sprintf("tag %q looks invalid", name),
			Line:     line,
			Severity: SeverityWarning,
		}, true
	case strings.Contains(value, "INVALID"):
		return Diagnostic{
			Kind:     KindSuspiciousValue,
			Message:  fmt.Sprintf("tag %q has an INVALID value", name),
			Line:     line,
			Severity: SeverityWarning,
		}, true
	}
	return Diagnostic{}, false
}
