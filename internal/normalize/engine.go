// SPDX-License-Identifier: Apache-2.0

// Package normalize turns abbreviated BACnet point names into readable names
// by expanding acronyms from the dictionary, and scores how confident the
// expansion is.
package normalize

import (
	"cmp"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/dictionary"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/trio"
)

// Level buckets a confidence score.
type Level string

const (
	LevelHigh    Level = "high"
	LevelMedium  Level = "medium"
	LevelLow     Level = "low"
	LevelUnknown Level = "unknown"
)

// LevelFor maps a score in [0,1] to its level.
func LevelFor(score float64) Level {
	switch {
	case score >= 0.8:
		return LevelHigh
	case score >= 0.5:
		return LevelMedium
	case score >= 0.2:
		return LevelLow
	default:
		return LevelUnknown
	}
}

// Normalization methods.
const (
	MethodAcronymExpansion = "acronym_expansion"
	MethodPassthrough      = "passthrough"
)

const (
	missConfidence   = 0.1
	equipmentBoost   = 0.10
	unitsBoost       = 0.10
	vendorBoost      = 0.05
	unknownEquipment = "Unknown"
)

var (
	errEmptyName = errors.New("point has no display name")
	errNoTokens  = errors.New("display name has no tokens")
)

// Context is what is known about a point beyond its name.
type Context struct {
	EquipmentType string `json:"equipmentType,omitempty"`
	EquipmentName string `json:"equipmentName,omitempty"`
	VendorName    string `json:"vendorName,omitempty"`
	Units         string `json:"units,omitempty"`
}

// Token is one analyzed piece of a display name.
type Token struct {
	Text          string  `json:"text"`
	Expansion     string  `json:"expansion,omitempty"`
	Confidence    float64 `json:"confidence"`
	PointFunction string  `json:"pointFunction,omitempty"`
}

func (t Token) word() string {
	return cmp.Or(t.Expansion, t.Text)
}

// Point is a projected point with its normalized name. When Success is
// false, NormalizedName is the original name and Error says why.
type Point struct {
	OriginalName        string     `json:"originalName"`
	NormalizedName      string     `json:"normalizedName"`
	ExpandedDescription string     `json:"expandedDescription"`
	PointFunction       string     `json:"pointFunction"`
	ConfidenceScore     float64    `json:"confidenceScore"`
	ConfidenceLevel     Level      `json:"confidenceLevel"`
	NormalizationMethod string     `json:"normalizationMethod"`
	AppliedRules        []string   `json:"appliedRules"`
	Tokens              []Token    `json:"tokens"`
	HaystackTags        []string   `json:"haystackTags,omitempty"`
	Success             bool       `json:"success"`
	Error               string     `json:"error,omitempty"`
	Source              trio.Point `json:"source"`
	Context             Context    `json:"context"`
}

// Engine normalizes point names. It holds only read-only tables and is safe
// for concurrent use.
type Engine struct {
	acronyms map[string]dictionary.Acronym
}

func New(t *dictionary.Tables) (*Engine, error) {
	if t == nil {
		return nil, fmt.Errorf("normalize: nil dictionary")
	}
	e := &Engine{acronyms: make(map[string]dictionary.Acronym, len(t.Acronyms))}
	for _, a := range t.Acronyms {
		e.acronyms[strings.ToLower(a.Acronym)] = a
	}
	return e, nil
}

// Normalize expands the display name of p. It never fails the caller: a
// point that cannot be analyzed comes back with Success false.
func (e *Engine) Normalize(p trio.Point, c Context) Point {
	out := Point{
		OriginalName:        p.DisplayName,
		NormalizedName:      p.DisplayName,
		PointFunction:       dictionary.FunctionSensor,
		ConfidenceLevel:     LevelUnknown,
		NormalizationMethod: MethodPassthrough,
		AppliedRules:        []string{},
		Tokens:              []Token{},
		Source:              p,
		Context:             c,
	}

	name := strings.TrimSpace(p.DisplayName)
	if name == "" {
		return fail(out, errEmptyName)
	}
	texts := Tokenize(name)
	if len(texts) == 0 {
		return fail(out, errNoTokens)
	}

	// Casers keep state, so each call gets its own.
	title := cases.Title(language.English)

	var (
		sum      float64
		hinted   bool
		expanded bool
		names    []string
		desc     []string
	)
	for _, text := range texts {
		tok := e.analyze(text)
		out.Tokens = append(out.Tokens, tok)
		sum += tok.Confidence

		if tok.Expansion != "" {
			expanded = true
			out.AppliedRules = append(out.AppliedRules, "expand:"+tok.Text+"="+tok.Expansion)
		}
		if tok.PointFunction != "" && !hinted {
			hinted = true
			out.PointFunction = tok.PointFunction
			out.AppliedRules = append(out.AppliedRules, "function:"+tok.Text+"="+tok.PointFunction)
		}

		names = append(names, tok.word())
		if !isFunctionWord(tok.word()) && !isNumeric(tok.Text) {
			desc = append(desc, tok.word())
		}
	}

	score := sum / float64(len(out.Tokens))
	if c.EquipmentType != "" && c.EquipmentType != unknownEquipment {
		score += equipmentBoost
		out.AppliedRules = append(out.AppliedRules, "context:equipment")
	}
	if cmp.Or(c.Units, p.Unit) != "" {
		score += unitsBoost
		out.AppliedRules = append(out.AppliedRules, "context:units")
	}
	if c.VendorName != "" {
		score += vendorBoost
		out.AppliedRules = append(out.AppliedRules, "context:vendor")
	}
	score = min(score, 1.0)

	description := title.String(strings.Join(desc, " "))
	if hinted {
		description = strings.TrimSpace(description + " " + title.String(out.PointFunction))
	}

	out.NormalizedName = title.String(strings.Join(names, " "))
	out.ExpandedDescription = description
	out.ConfidenceScore = score
	out.ConfidenceLevel = LevelFor(score)
	if expanded {
		out.NormalizationMethod = MethodAcronymExpansion
	}
	out.Success = true
	return out
}

func (e *Engine) analyze(text string) Token {
	a, ok := e.acronyms[strings.ToLower(text)]
	if !ok {
		return Token{Text: text, Confidence: missConfidence}
	}
	return Token{
		Text:          text,
		Expansion:     a.Expansion,
		Confidence:    float64(a.Priority) / 10,
		PointFunction: a.PointFunction,
	}
}

func fail(out Point, err error) Point {
	out.Success = false
	out.Error = err.Error()
	return out
}

func isFunctionWord(word string) bool {
	switch strings.ToLower(word) {
	case dictionary.FunctionSensor, dictionary.FunctionCommand, dictionary.FunctionSetpoint, dictionary.FunctionStatus:
		return true
	}
	return false
}

// Tokens never contain dots, so digits alone make a number.
func isNumeric(text string) bool {
	return text != "" && strings.TrimFunc(text, unicode.IsDigit) == ""
}
