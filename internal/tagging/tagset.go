// SPDX-License-Identifier: Apache-2.0

package tagging

import (
	"encoding/json"
	"slices"
)

// Source records how a marker was derived.
type Source string

const (
	SourceManual   Source = "manual"
	SourceInferred Source = "inferred"
	SourceTemplate Source = "template"
)

// Category groups markers for ordering.
type Category string

const (
	CategoryEntity    Category = "entity"
	CategoryRole      Category = "role"
	CategoryQuantity  Category = "quantity"
	CategoryLocation  Category = "location"
	CategoryEquipment Category = "equipment"
	CategoryOther     Category = "other"
)

// Marker is one semantic tag attached to a point.
type Marker struct {
	Name       string   `json:"name"`
	Source     Source   `json:"source"`
	Confidence float64  `json:"confidence"`
	Category   Category `json:"category"`
}

// TagSet is a deduplicated, ordered set of markers. The zero value is empty
// and ready to use.
type TagSet struct {
	markers []Marker
	index   map[string]int
}

// Add inserts m. When the name is already present the entry with the higher
// confidence is kept in the original position.
func (s *TagSet) Add(m Marker) {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if i, ok := s.index[m.Name]; ok {
		if m.Confidence > s.markers[i].Confidence {
			s.markers[i] = m
		}
		return
	}
	s.index[m.Name] = len(s.markers)
	s.markers = append(s.markers, m)
}

func (s *TagSet) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

func (s *TagSet) Len() int {
	return len(s.markers)
}

// Markers returns a copy of the markers in set order.
func (s *TagSet) Markers() []Marker {
	return slices.Clone(s.markers)
}

// Names returns the marker names in set order.
func (s *TagSet) Names() []string {
	names := make([]string, len(s.markers))
	for i, m := range s.markers {
		names[i] = m.Name
	}
	return names
}

func (s *TagSet) sort(cmp func(a, b Marker) int) {
	if len(s.markers) == 0 {
		return
	}
	slices.SortStableFunc(s.markers, cmp)
	for i, m := range s.markers {
		s.index[m.Name] = i
	}
}

func (s *TagSet) MarshalJSON() ([]byte, error) {
	if s.markers == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.markers)
}
