// SPDX-License-Identifier: Apache-2.0

package dictionary

import (
	"bytes"
	_ "embed"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/goccy/go-yaml"
	"go.uber.org/multierr"
)

//go:embed schema.cue
var schemaSource string

// checkSchema validates one YAML dictionary file against #Tables. JSON is a
// subset of CUE, so the file is converted before compiling.
func checkSchema(name string, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	jsonData, err := yaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("converting to JSON: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}
	doc := ctx.CompileBytes(jsonData, cue.Filename(name))
	if err := doc.Err(); err != nil {
		return err
	}
	tables := schema.LookupPath(cue.ParsePath("#Tables")).Unify(doc)
	return tables.Validate(cue.Concrete(true))
}

// Validate checks the merged tables for problems a per-file schema cannot
// see: duplicate keys across files, regular expressions that do not compile
// and rules that can never fire. All problems are reported together.
func (t *Tables) Validate() error {
	var errs error

	seen := make(map[string]bool)
	for _, a := range t.Acronyms {
		key := strings.ToLower(a.Acronym)
		if seen[key] {
			errs = multierr.Append(errs, fmt.Errorf("acronyms: duplicate acronym %q", a.Acronym))
		}
		seen[key] = true
		if a.Priority < 1 || a.Priority > 10 {
			errs = multierr.Append(errs, fmt.Errorf("acronyms: %q priority %d out of range 1-10", a.Acronym, a.Priority))
		}
		switch a.PointFunction {
		case "", FunctionSensor, FunctionSetpoint, FunctionCommand, FunctionStatus:
		default:
			errs = multierr.Append(errs, fmt.Errorf("acronyms: %q has unknown point function %q", a.Acronym, a.PointFunction))
		}
	}

	errs = multierr.Append(errs, uniqueKeys("equipmentPrefixes", len(t.EquipmentPrefixes), func(i int) string {
		return strings.ToUpper(t.EquipmentPrefixes[i].Prefix)
	}))

	errs = multierr.Append(errs, uniqueKeys("equipmentPatterns", len(t.EquipmentPatterns), func(i int) string {
		return t.EquipmentPatterns[i].Name
	}))
	for _, p := range t.EquipmentPatterns {
		if _, err := regexp.Compile(p.Pattern); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("equipmentPatterns: %q: %w", p.Name, err))
		}
		errs = multierr.Append(errs, checkConfidence("equipmentPatterns", p.Name, p.Confidence))
	}

	errs = multierr.Append(errs, uniqueKeys("vendorModels", len(t.VendorModels), func(i int) string {
		return strings.ToLower(t.VendorModels[i].Vendor) + "/" + strings.ToLower(t.VendorModels[i].Model)
	}))
	errs = multierr.Append(errs, uniqueKeys("roles", len(t.Roles), func(i int) string {
		return t.Roles[i].ObjectKind
	}))
	errs = multierr.Append(errs, uniqueKeys("units", len(t.Units), func(i int) string {
		return t.Units[i].Unit
	}))
	for _, u := range t.Units {
		errs = multierr.Append(errs, checkConfidence("units", u.Unit, u.Confidence))
	}

	for _, group := range []struct {
		section string
		rules   []KeywordRule
	}{
		{"quantityKeywords", t.QuantityKeywords},
		{"equipmentKeywords", t.EquipmentKeywords},
		{"locationKeywords", t.LocationKeywords},
	} {
		rules := group.rules
		errs = multierr.Append(errs, uniqueKeys(group.section, len(rules), func(i int) string {
			return rules[i].Keyword
		}))
		for _, r := range rules {
			errs = multierr.Append(errs, checkConfidence(group.section, r.Keyword, r.Confidence))
		}
	}

	errs = multierr.Append(errs, uniqueKeys("vocabulary.markers", len(t.Vocabulary.Markers), func(i int) string {
		return t.Vocabulary.Markers[i]
	}))
	official := make(map[string]bool, len(t.Vocabulary.Markers))
	for _, m := range t.Vocabulary.Markers {
		official[m] = true
	}
	for _, d := range t.Vocabulary.Deprecated {
		if official[d.Marker] {
			errs = multierr.Append(errs, fmt.Errorf("vocabulary: %q is both official and deprecated", d.Marker))
		}
	}

	errs = multierr.Append(errs, uniqueKeys("combinations", len(t.Combinations), func(i int) string {
		return t.Combinations[i].Name
	}))
	for _, c := range t.Combinations {
		if c.Severity != SeverityWarning && c.Severity != SeveritySuggestion {
			errs = multierr.Append(errs, fmt.Errorf("combinations: %q has unknown severity %q", c.Name, c.Severity))
		}
		if len(c.When) == 0 || len(c.ShouldHave) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("combinations: %q needs both when and shouldHave markers", c.Name))
		}
	}

	errs = multierr.Append(errs, uniqueKeys("exclusions", len(t.Exclusions), func(i int) string {
		return t.Exclusions[i].Name
	}))
	for _, x := range t.Exclusions {
		if x.MaxAllowed < 1 || x.MaxAllowed >= len(x.Markers) {
			errs = multierr.Append(errs, fmt.Errorf("exclusions: %q maxAllowed %d can never be exceeded by %d markers", x.Name, x.MaxAllowed, len(x.Markers)))
		}
	}

	order := slices.Concat(t.MarkerOrder.Entity, t.MarkerOrder.Role, t.MarkerOrder.Quantity, t.MarkerOrder.Location)
	errs = multierr.Append(errs, uniqueKeys("markerOrder", len(order), func(i int) string {
		return order[i]
	}))

	return errs
}

func uniqueKeys(section string, n int, key func(int) string) error {
	var errs error
	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		k := key(i)
		if k == "" {
			errs = multierr.Append(errs, fmt.Errorf("%s: entry %d has an empty key", section, i))
			continue
		}
		if seen[k] {
			errs = multierr.Append(errs, fmt.Errorf("%s: duplicate key %q", section, k))
		}
		seen[k] = true
	}
	return errs
}

func checkConfidence(section, key string, c float64) error {
	if c < 0 || c > 1 {
		return fmt.Errorf("%s: %q confidence %v out of range 0-1", section, key, c)
	}
	return nil
}
