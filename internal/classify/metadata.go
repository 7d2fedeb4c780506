// SPDX-License-Identifier: Apache-2.0

package classify

import (
	"maps"
	"slices"
	"strings"
)

// Metadata is the vendor and model recorded for a piece of equipment.
type Metadata struct {
	Vendor string `yaml:"vendor" json:"vendor"`
	Model  string `yaml:"model" json:"model"`
}

// MetadataLookup finds vendor metadata for an equipment name. Unknown names
// report false; implementations must not fail.
type MetadataLookup interface {
	Lookup(equipmentName string) (Metadata, bool)
}

// StaticMetadata is a MetadataLookup over a fixed map. Names are matched
// exactly first and then case-insensitively, in sorted key order.
type StaticMetadata map[string]Metadata

func (s StaticMetadata) Lookup(equipmentName string) (Metadata, bool) {
	if md, ok := s[equipmentName]; ok {
		return md, true
	}
	for _, name := range slices.Sorted(maps.Keys(s)) {
		if strings.EqualFold(name, equipmentName) {
			return s[name], true
		}
	}
	return Metadata{}, false
}

type noMetadata struct{}

func (noMetadata) Lookup(string) (Metadata, bool) { return Metadata{}, false }
