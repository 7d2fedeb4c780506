// SPDX-License-Identifier: Apache-2.0

package tagging

import (
	"fmt"
	"strings"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/dictionary"
)

// Level is a compliance bucket derived from the score.
type Level string

const (
	LevelFull   Level = "full"
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

func LevelFor(score int) Level {
	switch {
	case score >= 90:
		return LevelFull
	case score >= 70:
		return LevelHigh
	case score >= 50:
		return LevelMedium
	default:
		return LevelLow
	}
}

// Score deductions.
const (
	maxScore            = 100
	nonStandardPenalty  = 3
	deprecatedPenalty   = 2
	warningPenalty      = 5
	suggestionPenalty   = 2
	exclusionPenalty    = 15
	missingPointPenalty = 20
)

// Report is the compliance verdict for one marker set. Violations are data;
// validation itself never fails.
type Report struct {
	IsValid     bool     `json:"isValid"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
	Score       int      `json:"score"`
	Level       Level    `json:"level"`
}

// Validator scores marker sets against the vocabulary and rule tables.
type Validator struct {
	official     map[string]bool
	deprecated   map[string]dictionary.DeprecatedMarker
	separator    string
	combinations []dictionary.CombinationRule
	exclusions   []dictionary.ExclusionRule
}

func NewValidator(t *dictionary.Tables) (*Validator, error) {
	if t == nil {
		return nil, fmt.Errorf("validator: nil dictionary")
	}
	v := &Validator{
		official:     make(map[string]bool, len(t.Vocabulary.Markers)),
		deprecated:   make(map[string]dictionary.DeprecatedMarker, len(t.Vocabulary.Deprecated)),
		separator:    t.Vocabulary.NamespaceSeparator,
		combinations: t.Combinations,
		exclusions:   t.Exclusions,
	}
	for _, m := range t.Vocabulary.Markers {
		v.official[m] = true
	}
	for _, d := range t.Vocabulary.Deprecated {
		v.deprecated[d.Marker] = d
	}
	return v, nil
}

// Validate scores markers, given by name in set order.
func (v *Validator) Validate(markers []string) Report {
	r := Report{
		IsValid:     true,
		Errors:      []string{},
		Warnings:    []string{},
		Suggestions: []string{},
		Score:       maxScore,
	}
	present := make(map[string]bool, len(markers))
	for _, m := range markers {
		present[m] = true
	}

	for _, m := range markers {
		if v.official[m] || (v.separator != "" && strings.Contains(m, v.separator)) {
			continue
		}
		if d, ok := v.deprecated[m]; ok {
			r.Warnings = append(r.Warnings, fmt.Sprintf("deprecated marker %q", m))
			if d.Replacement != "" {
				r.Suggestions = append(r.Suggestions, fmt.Sprintf("replace %q with %q", m, d.Replacement))
			}
			r.Score -= deprecatedPenalty
			continue
		}
		r.Warnings = append(r.Warnings, fmt.Sprintf("non-standard marker %q", m))
		r.Score -= nonStandardPenalty
	}

	for _, c := range v.combinations {
		if !anyPresent(present, c.When) || anyPresent(present, c.ShouldHave) {
			continue
		}
		if c.Severity == dictionary.SeverityWarning {
			r.Warnings = append(r.Warnings, c.Message)
			r.Score -= warningPenalty
		} else {
			r.Suggestions = append(r.Suggestions, c.Message)
			r.Score -= suggestionPenalty
		}
	}

	for _, x := range v.exclusions {
		n := 0
		for _, m := range x.Markers {
			if present[m] {
				n++
			}
		}
		if n > x.MaxAllowed {
			r.Errors = append(r.Errors, x.Message)
			r.Score -= exclusionPenalty
			r.IsValid = false
		}
	}

	if !present[MarkerPoint] {
		r.Errors = append(r.Errors, "missing required marker \"point\"")
		r.Score -= missingPointPenalty
		r.IsValid = false
	}

	r.Score = max(r.Score, 0)
	r.Level = LevelFor(r.Score)
	return r
}

func anyPresent(present map[string]bool, markers []string) bool {
	for _, m := range markers {
		if present[m] {
			return true
		}
	}
	return false
}
