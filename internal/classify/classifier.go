// SPDX-License-Identifier: Apache-2.0

// Package classify assigns an equipment type to an equipment name or file
// name. Three tiers are tried in order: vendor model rules, a prefix
// dictionary and a ranked list of regular expressions.
package classify

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/phunnicutt1/cxalloy-equip-mapping-sub002/internal/dictionary"
)

// Unknown is the equipment type reported when no tier matches.
const Unknown = "Unknown"

// Tier identifies which stage of the classifier produced a result.
type Tier int

const (
	TierNone Tier = iota
	TierVendorModel
	TierPrefix
	TierPattern
)

func (t Tier) String() string {
	switch t {
	case TierVendorModel:
		return "vendor_model"
	case TierPrefix:
		return "prefix"
	case TierPattern:
		return "pattern"
	default:
		return "none"
	}
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(text []byte) error {
	for _, candidate := range []Tier{TierNone, TierVendorModel, TierPrefix, TierPattern} {
		if candidate.String() == string(text) {
			*t = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown classification tier %q", text)
}

const (
	vendorModelConfidence = 0.95
	prefixConfidence      = 0.9
	maxAlternatives       = 3
)

var knownExtensions = []string{".trio", ".txt", ".csv"}

// Alternative is a lower-ranked pattern match.
type Alternative struct {
	EquipmentType  string  `json:"equipmentType"`
	Confidence     float64 `json:"confidence"`
	MatchedPattern string  `json:"matchedPattern"`
}

// Result is the outcome of a classification. It is always produced; a name
// nothing matches yields Unknown with zero confidence.
type Result struct {
	EquipmentType  string        `json:"equipmentType"`
	EquipmentName  string        `json:"equipmentName"`
	Confidence     float64       `json:"confidence"`
	MatchedPattern string        `json:"matchedPattern,omitempty"`
	Tier           Tier          `json:"tier"`
	Alternatives   []Alternative `json:"alternatives"`
}

// CacheObserver is told, for every name that reaches the prefix tier, whether
// the result was served from the cache.
type CacheObserver interface {
	CacheHit()
	CacheMiss()
}

type compiledPattern struct {
	name       string
	re         *regexp.Regexp
	typ        string
	confidence float64
}

// Classifier is safe for concurrent use. Its only mutable state is the
// Cache.
type Classifier struct {
	vendorModels map[string][]dictionary.VendorModel
	prefixes     map[string]string
	prefixKeys   []string
	patterns     []compiledPattern
	metadata     MetadataLookup
	cache        *Cache
	observer     CacheObserver
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithMetadata sets the lookup used by the vendor model tier.
func WithMetadata(m MetadataLookup) Option {
	return func(c *Classifier) {
		if m != nil {
			c.metadata = m
		}
	}
}

// WithCache shares an existing cache instead of creating a private one.
func WithCache(cache *Cache) Option {
	return func(c *Classifier) {
		if cache != nil {
			c.cache = cache
		}
	}
}

func WithCacheObserver(o CacheObserver) Option {
	return func(c *Classifier) {
		c.observer = o
	}
}

// New builds a Classifier from the equipment tables of t.
func New(t *dictionary.Tables, opts ...Option) (*Classifier, error) {
	if t == nil {
		return nil, fmt.Errorf("classifier: nil dictionary")
	}
	c := &Classifier{
		vendorModels: make(map[string][]dictionary.VendorModel),
		prefixes:     make(map[string]string, len(t.EquipmentPrefixes)),
		metadata:     noMetadata{},
	}

	for _, vm := range t.VendorModels {
		key := strings.ToLower(vm.Vendor)
		c.vendorModels[key] = append(c.vendorModels[key], vm)
	}

	for _, p := range t.EquipmentPrefixes {
		key := strings.ToUpper(p.Prefix)
		c.prefixes[key] = p.Type
		c.prefixKeys = append(c.prefixKeys, key)
	}
	// Longest keys first so "CHWP" wins over "CH".
	slices.SortStableFunc(c.prefixKeys, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})

	for _, p := range t.EquipmentPatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, fmt.Errorf("classifier: pattern %q: %w", p.Name, err)
		}
		c.patterns = append(c.patterns, compiledPattern{
			name:       p.Name,
			re:         re,
			typ:        p.Type,
			confidence: p.Confidence,
		})
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewCache()
	}
	return c, nil
}

// Cache returns the memo used by the prefix tier.
func (c *Classifier) Cache() *Cache {
	return c.cache
}

// Classify returns the best classification for name. A known file
// extension is stripped first.
func (c *Classifier) Classify(name string) Result {
	name = StripExtension(strings.TrimSpace(name))

	if r, ok := c.byVendorModel(name); ok {
		return r
	}
	if r, ok := c.byPrefix(name); ok {
		return r
	}
	if r, ok := c.byPattern(name); ok {
		return r
	}
	return Result{
		EquipmentType: Unknown,
		EquipmentName: name,
		Tier:          TierNone,
		Alternatives:  []Alternative{},
	}
}

func (c *Classifier) byVendorModel(name string) (Result, bool) {
	md, ok := c.metadata.Lookup(name)
	if !ok || md.Vendor == "" || md.Model == "" {
		return Result{}, false
	}
	model := strings.ToUpper(md.Model)
	for _, vm := range c.vendorModels[strings.ToLower(md.Vendor)] {
		if strings.Contains(model, strings.ToUpper(vm.Model)) {
			return Result{
				EquipmentType:  vm.Type,
				EquipmentName:  name,
				Confidence:     vendorModelConfidence,
				MatchedPattern: "vendor:" + vm.Vendor + "/" + vm.Model,
				Tier:           TierVendorModel,
				Alternatives:   []Alternative{},
			}, true
		}
	}
	return Result{}, false
}

func (c *Classifier) byPrefix(name string) (Result, bool) {
	if r, ok := c.cache.Get(name); ok {
		if c.observer != nil {
			c.observer.CacheHit()
		}
		return r, true
	}
	if c.observer != nil {
		c.observer.CacheMiss()
	}

	upper := strings.ToUpper(name)
	prefix := upper
	if i := strings.IndexAny(upper, "-_"); i > 0 {
		prefix = upper[:i]
	}

	key, typ, ok := prefix, c.prefixes[prefix], false
	if typ != "" {
		ok = true
	} else {
		for _, k := range c.prefixKeys {
			if strings.HasPrefix(upper, k) {
				key, typ, ok = k, c.prefixes[k], true
				break
			}
		}
	}
	if !ok {
		return Result{}, false
	}
	return c.cache.Put(name, Result{
		EquipmentType:  typ,
		EquipmentName:  name,
		Confidence:     prefixConfidence,
		MatchedPattern: "prefix:" + key,
		Tier:           TierPrefix,
		Alternatives:   []Alternative{},
	}), true
}

func (c *Classifier) byPattern(name string) (Result, bool) {
	var matches []Alternative
	for _, p := range c.patterns {
		if p.re.MatchString(name) {
			matches = append(matches, Alternative{
				EquipmentType:  p.typ,
				Confidence:     p.confidence,
				MatchedPattern: p.name,
			})
		}
	}
	if len(matches) == 0 {
		return Result{}, false
	}

	slices.SortStableFunc(matches, func(a, b Alternative) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})
	seen := make(map[string]bool, len(matches))
	ranked := matches[:0]
	for _, m := range matches {
		if seen[m.EquipmentType] {
			continue
		}
		seen[m.EquipmentType] = true
		ranked = append(ranked, m)
	}

	top := ranked[0]
	alts := ranked[1:]
	if len(alts) > maxAlternatives {
		alts = alts[:maxAlternatives]
	}
	return Result{
		EquipmentType:  top.EquipmentType,
		EquipmentName:  name,
		Confidence:     top.Confidence,
		MatchedPattern: top.MatchedPattern,
		Tier:           TierPattern,
		Alternatives:   slices.Clone(alts),
	}, true
}

// StripExtension removes one known data file extension from name.
func StripExtension(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range knownExtensions {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}
