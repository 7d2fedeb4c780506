// SPDX-License-Identifier: Apache-2.0

// Package tagging derives semantic marker tags for normalized points and
// scores a marker set against the marker vocabulary.
package tagging

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/dictionary"
	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/normalize"
)

// Well-known markers.
const (
	MarkerPoint    = "point"
	MarkerSensor   = "sensor"
	MarkerCmd      = "cmd"
	MarkerSp       = "sp"
	MarkerWritable = "writable"
)

const (
	roleConfidence         = 0.9
	fallbackRoleConfidence = 0.6
)

// Tagger builds marker sets from the dictionary tables. It is safe for
// concurrent use.
type Tagger struct {
	roles     map[string]string
	units     map[string]dictionary.UnitRule
	quantity  []dictionary.KeywordRule
	equipment []dictionary.KeywordRule
	location  []dictionary.KeywordRule
	rank      map[string]int
	category  map[string]Category
}

func NewTagger(t *dictionary.Tables) (*Tagger, error) {
	if t == nil {
		return nil, fmt.Errorf("tagger: nil dictionary")
	}
	tg := &Tagger{
		roles:     make(map[string]string, len(t.Roles)),
		units:     make(map[string]dictionary.UnitRule, len(t.Units)),
		quantity:  t.QuantityKeywords,
		equipment: t.EquipmentKeywords,
		location:  t.LocationKeywords,
		rank:      make(map[string]int),
		category:  make(map[string]Category),
	}
	for _, r := range t.Roles {
		tg.roles[r.ObjectKind] = r.Marker
	}
	for _, u := range t.Units {
		tg.units[u.Unit] = u
	}
	for _, group := range []struct {
		cat     Category
		markers []string
	}{
		{CategoryEntity, t.MarkerOrder.Entity},
		{CategoryRole, t.MarkerOrder.Role},
		{CategoryQuantity, t.MarkerOrder.Quantity},
		{CategoryLocation, t.MarkerOrder.Location},
	} {
		for _, m := range group.markers {
			tg.rank[m] = len(tg.rank)
			tg.category[m] = group.cat
		}
	}
	return tg, nil
}

// Tag returns the sorted marker set for p. The set always contains point.
func (tg *Tagger) Tag(p normalize.Point) *TagSet {
	set := &TagSet{}
	set.Add(Marker{Name: MarkerPoint, Source: SourceTemplate, Confidence: 1, Category: CategoryEntity})

	role, confidence := tg.role(p)
	set.Add(Marker{Name: role, Source: SourceInferred, Confidence: confidence, Category: CategoryRole})

	if p.Source.IsWritable {
		set.Add(Marker{Name: MarkerWritable, Source: SourceManual, Confidence: 1, Category: CategoryOther})
	}

	name := strings.ToLower(p.NormalizedName)
	if u, ok := tg.units[cmp.Or(p.Context.Units, p.Source.Unit)]; ok {
		tg.addAll(set, u.Markers, u.Confidence, CategoryQuantity)
	} else {
		tg.scan(set, name, tg.quantity, CategoryQuantity)
	}
	tg.scan(set, name, tg.equipment, CategoryEquipment)
	tg.scan(set, name, tg.location, CategoryLocation)

	set.sort(tg.compare)
	return set
}

func (tg *Tagger) role(p normalize.Point) (string, float64) {
	if m, ok := tg.roles[p.Source.ObjectKind]; ok {
		return m, roleConfidence
	}
	switch {
	case p.Source.IsCommand,
		p.PointFunction == dictionary.FunctionCommand,
		p.PointFunction == dictionary.FunctionStatus:
		return MarkerCmd, fallbackRoleConfidence
	case p.PointFunction == dictionary.FunctionSetpoint:
		return MarkerSp, fallbackRoleConfidence
	default:
		return MarkerSensor, fallbackRoleConfidence
	}
}

func (tg *Tagger) scan(set *TagSet, name string, rules []dictionary.KeywordRule, cat Category) {
	for _, r := range rules {
		if strings.Contains(name, r.Keyword) {
			tg.addAll(set, r.Markers, r.Confidence, cat)
		}
	}
}

func (tg *Tagger) addAll(set *TagSet, markers []string, confidence float64, cat Category) {
	for _, m := range markers {
		c := cat
		if known, ok := tg.category[m]; ok {
			c = known
		} else if cat == CategoryQuantity || cat == CategoryLocation {
			// Companion markers such as air or elec.
			c = CategoryOther
		}
		set.Add(Marker{Name: m, Source: SourceInferred, Confidence: confidence, Category: c})
	}
}

// compare orders ranked markers by rank and the rest alphabetically after
// them.
func (tg *Tagger) compare(a, b Marker) int {
	ra, aok := tg.rank[a.Name]
	rb, bok := tg.rank[b.Name]
	switch {
	case aok && bok:
		return cmp.Compare(ra, rb)
	case aok:
		return -1
	case bok:
		return 1
	default:
		return strings.Compare(a.Name, b.Name)
	}
}
