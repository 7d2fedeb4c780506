// SPDX-License-Identifier: Apache-2.0

// Package dictionary holds the static lookup tables used by the classifier,
// the normalization engine and the tagger. Tables are read from YAML once,
// checked against a CUE schema and for well-formedness, and never mutated
// afterwards.
package dictionary

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

// Point functions an acronym may hint at.
const (
	FunctionSensor   = "sensor"
	FunctionSetpoint = "setpoint"
	FunctionCommand  = "command"
	FunctionStatus   = "status"
)

// Acronym expands one abbreviation found in point names.
type Acronym struct {
	Acronym       string `yaml:"acronym" json:"acronym"`
	Expansion     string `yaml:"expansion" json:"expansion"`
	Priority      int    `yaml:"priority" json:"priority"`
	PointFunction string `yaml:"pointFunction,omitempty" json:"pointFunction,omitempty"`
}

// EquipmentPrefix maps a name prefix such as "VVR" to an equipment type.
type EquipmentPrefix struct {
	Prefix string `yaml:"prefix" json:"prefix"`
	Type   string `yaml:"type" json:"type"`
}

// EquipmentPattern is a regular expression with a static confidence.
type EquipmentPattern struct {
	Name       string  `yaml:"name" json:"name"`
	Pattern    string  `yaml:"pattern" json:"pattern"`
	Type       string  `yaml:"type" json:"type"`
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

// VendorModel maps a model substring of one vendor to an equipment type.
type VendorModel struct {
	Vendor string `yaml:"vendor" json:"vendor"`
	Model  string `yaml:"model" json:"model"`
	Type   string `yaml:"type" json:"type"`
}

// RoleRule gives the role marker for a BACnet object kind.
type RoleRule struct {
	ObjectKind string `yaml:"objectKind" json:"objectKind"`
	Marker     string `yaml:"marker" json:"marker"`
}

// UnitRule maps an exact unit string to quantity markers.
type UnitRule struct {
	Unit       string   `yaml:"unit" json:"unit"`
	Quantity   string   `yaml:"quantity" json:"quantity"`
	Markers    []string `yaml:"markers" json:"markers"`
	Confidence float64  `yaml:"confidence" json:"confidence"`
}

// KeywordRule attaches markers when keyword occurs in a normalized name.
type KeywordRule struct {
	Keyword    string   `yaml:"keyword" json:"keyword"`
	Markers    []string `yaml:"markers" json:"markers"`
	Confidence float64  `yaml:"confidence" json:"confidence"`
}

// DeprecatedMarker names a retired marker and what replaced it.
type DeprecatedMarker struct {
	Marker      string `yaml:"marker" json:"marker"`
	Replacement string `yaml:"replacement,omitempty" json:"replacement,omitempty"`
}

// Vocabulary is the official marker list the validator scores against.
type Vocabulary struct {
	Markers    []string           `yaml:"markers,omitempty" json:"markers,omitempty"`
	Deprecated []DeprecatedMarker `yaml:"deprecated,omitempty" json:"deprecated,omitempty"`
	// NamespaceSeparator marks vendor-specific markers, e.g. "acme:zoneMode".
	NamespaceSeparator string `yaml:"namespaceSeparator,omitempty" json:"namespaceSeparator,omitempty"`
}

// Rule severities for combination rules.
const (
	SeverityWarning    = "warning"
	SeveritySuggestion = "suggestion"
)

// CombinationRule says that a set carrying any of When should also carry
// one of ShouldHave.
type CombinationRule struct {
	Name       string   `yaml:"name" json:"name"`
	When       []string `yaml:"when" json:"when"`
	ShouldHave []string `yaml:"shouldHave" json:"shouldHave"`
	Severity   string   `yaml:"severity" json:"severity"`
	Message    string   `yaml:"message" json:"message"`
}

// ExclusionRule allows at most MaxAllowed of Markers in one set.
type ExclusionRule struct {
	Name       string   `yaml:"name" json:"name"`
	Markers    []string `yaml:"markers" json:"markers"`
	MaxAllowed int      `yaml:"maxAllowed" json:"maxAllowed"`
	Message    string   `yaml:"message" json:"message"`
}

// MarkerOrder fixes the sort order of tagged markers by category.
type MarkerOrder struct {
	Entity   []string `yaml:"entity,omitempty" json:"entity,omitempty"`
	Role     []string `yaml:"role,omitempty" json:"role,omitempty"`
	Quantity []string `yaml:"quantity,omitempty" json:"quantity,omitempty"`
	Location []string `yaml:"location,omitempty" json:"location,omitempty"`
}

// Tables is the full set of lookup tables. Each YAML file of a dictionary
// directory fills some of the fields; lists from several files are
// concatenated in file-name order.
type Tables struct {
	Version           string             `yaml:"version,omitempty" json:"version,omitempty"`
	Acronyms          []Acronym          `yaml:"acronyms,omitempty" json:"acronyms,omitempty"`
	EquipmentPrefixes []EquipmentPrefix  `yaml:"equipmentPrefixes,omitempty" json:"equipmentPrefixes,omitempty"`
	EquipmentPatterns []EquipmentPattern `yaml:"equipmentPatterns,omitempty" json:"equipmentPatterns,omitempty"`
	VendorModels      []VendorModel      `yaml:"vendorModels,omitempty" json:"vendorModels,omitempty"`
	Roles             []RoleRule         `yaml:"roles,omitempty" json:"roles,omitempty"`
	Units             []UnitRule         `yaml:"units,omitempty" json:"units,omitempty"`
	QuantityKeywords  []KeywordRule      `yaml:"quantityKeywords,omitempty" json:"quantityKeywords,omitempty"`
	EquipmentKeywords []KeywordRule      `yaml:"equipmentKeywords,omitempty" json:"equipmentKeywords,omitempty"`
	LocationKeywords  []KeywordRule      `yaml:"locationKeywords,omitempty" json:"locationKeywords,omitempty"`
	Vocabulary        Vocabulary         `yaml:"vocabulary,omitempty" json:"vocabulary,omitempty"`
	Combinations      []CombinationRule  `yaml:"combinations,omitempty" json:"combinations,omitempty"`
	Exclusions        []ExclusionRule    `yaml:"exclusions,omitempty" json:"exclusions,omitempty"`
	MarkerOrder       MarkerOrder        `yaml:"markerOrder,omitempty" json:"markerOrder,omitempty"`
}

func (t *Tables) merge(o *Tables) {
	if o.Version != "" {
		t.Version = o.Version
	}
	t.Acronyms = append(t.Acronyms, o.Acronyms...)
	t.EquipmentPrefixes = append(t.EquipmentPrefixes, o.EquipmentPrefixes...)
	t.EquipmentPatterns = append(t.EquipmentPatterns, o.EquipmentPatterns...)
	t.VendorModels = append(t.VendorModels, o.VendorModels...)
	t.Roles = append(t.Roles, o.Roles...)
	t.Units = append(t.Units, o.Units...)
	t.QuantityKeywords = append(t.QuantityKeywords, o.QuantityKeywords...)
	t.EquipmentKeywords = append(t.EquipmentKeywords, o.EquipmentKeywords...)
	t.LocationKeywords = append(t.LocationKeywords, o.LocationKeywords...)
	t.Vocabulary.Markers = append(t.Vocabulary.Markers, o.Vocabulary.Markers...)
	t.Vocabulary.Deprecated = append(t.Vocabulary.Deprecated, o.Vocabulary.Deprecated...)
	if o.Vocabulary.NamespaceSeparator != "" {
		t.Vocabulary.NamespaceSeparator = o.Vocabulary.NamespaceSeparator
	}
	t.Combinations = append(t.Combinations, o.Combinations...)
	t.Exclusions = append(t.Exclusions, o.Exclusions...)
	t.MarkerOrder.Entity = append(t.MarkerOrder.Entity, o.MarkerOrder.Entity...)
	t.MarkerOrder.Role = append(t.MarkerOrder.Role, o.MarkerOrder.Role...)
	t.MarkerOrder.Quantity = append(t.MarkerOrder.Quantity, o.MarkerOrder.Quantity...)
	t.MarkerOrder.Location = append(t.MarkerOrder.Location, o.MarkerOrder.Location...)
}

// Load reads every *.yaml file at the root of fsys, merges them and
// validates the result.
func Load(fsys fs.FS) (*Tables, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("listing dictionary files: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no dictionary files found")
	}
	sort.Strings(names)

	tables := &Tables{}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		part, err := Parse(name, data)
		if err != nil {
			return nil, err
		}
		tables.merge(part)
	}

	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dictionary: %w", err)
	}
	return tables, nil
}

// Parse checks one YAML dictionary file against the schema and decodes it.
// The result may be partial; cross-file checks happen in Validate.
func Parse(name string, data []byte) (*Tables, error) {
	if err := checkSchema(name, data); err != nil {
		return nil, fmt.Errorf("%s: schema: %w", name, err)
	}
	var t Tables
	if err := yaml.UnmarshalWithOptions(data, &t, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return &t, nil
}

var loadDefault = sync.OnceValues(func() (*Tables, error) {
	sub, err := fs.Sub(defaultFS, "defaults")
	if err != nil {
		return nil, err
	}
	return Load(sub)
})

// Default returns the embedded tables. They are loaded and validated on the
// first call and shared afterwards; callers must not modify them.
func Default() (*Tables, error) {
	return loadDefault()
}
