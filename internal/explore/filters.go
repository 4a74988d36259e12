// Package explore holds the pure filter, sort, facet and active-tag logic behind the
// explore page. Nothing here performs I/O: callers pass a snapshot of records and a
// State, and get back derived values.
package explore

import (
	"encoding/json"
	"slices"
	"strings"
)

// Inactive range bounds.
const (
	DefaultPriceMin = 0
	DefaultPriceMax = 99999999
	DefaultSqftMin  = 0
	DefaultSqftMax  = 99999
)

// Range is an inclusive numeric interval. At the defaults it is unbounded.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Within reports whether v lies within [Min, Max], treating the bounds of def as open
// ends: a bound at or past the matching bound of def places no restriction on v.
func (r Range) Within(def Range, v float64) bool {
	if r.Min > def.Min && v < r.Min {
		return false
	}
	if r.Max < def.Max && v > r.Max {
		return false
	}
	return true
}

// Clamp pulls both bounds into [def.Min, def.Max].
func (r Range) Clamp(def Range) Range {
	r.Min = min(max(r.Min, def.Min), def.Max)
	r.Max = min(max(r.Max, def.Min), def.Max)
	return r
}

// Filters is the explore page filter state. Multi-selects are insertion-ordered sets;
// an empty set places no restriction on its dimension.
type Filters struct {
	Query          string    `json:"query"`
	Locations      []string  `json:"locations"`
	Beds           []float64 `json:"beds"`
	Baths          []float64 `json:"baths"`
	FinanceTypes   []string  `json:"finance_types"`
	NewListingOnly bool      `json:"new_listing_only"`
	TrendingOnly   bool      `json:"trending_only"`
	Price          Range     `json:"price"`
	Sqft           Range     `json:"sqft"`
}

// DefaultFilters returns the state in which every dimension is inactive.
func DefaultFilters() Filters {
	return Filters{
		Price: Range{Min: DefaultPriceMin, Max: DefaultPriceMax},
		Sqft:  Range{Min: DefaultSqftMin, Max: DefaultSqftMax},
	}
}

// UnmarshalJSON decodes over the defaults so omitted fields stay inactive.
func (f *Filters) UnmarshalJSON(data []byte) error {
	type plain Filters
	out := plain(DefaultFilters())
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*f = Filters(out)
	f.clampRanges()
	f.Locations = dedupe(f.Locations)
	f.Beds = dedupe(f.Beds)
	f.Baths = dedupe(f.Baths)
	f.FinanceTypes = dedupe(f.FinanceTypes)
	return nil
}

// HasQuery reports whether the free-text query restricts results.
func (f Filters) HasQuery() bool {
	return strings.TrimSpace(f.Query) != ""
}

// IsActive reports whether any dimension restricts results. A whitespace-only query
// and range bounds at or past their defaults count as inactive.
func (f Filters) IsActive() bool {
	f.clampRanges()
	if !f.HasQuery() {
		f.Query = ""
	}
	return !f.Equal(DefaultFilters())
}

// Equal compares two filter states, treating nil and empty sets alike.
func (f Filters) Equal(o Filters) bool {
	return f.Query == o.Query &&
		slices.Equal(f.Locations, o.Locations) &&
		slices.Equal(f.Beds, o.Beds) &&
		slices.Equal(f.Baths, o.Baths) &&
		slices.Equal(f.FinanceTypes, o.FinanceTypes) &&
		f.NewListingOnly == o.NewListingOnly &&
		f.TrendingOnly == o.TrendingOnly &&
		f.Price == o.Price &&
		f.Sqft == o.Sqft
}

func (f *Filters) clampRanges() {
	def := DefaultFilters()
	f.Price = f.Price.Clamp(def.Price)
	f.Sqft = f.Sqft.Clamp(def.Sqft)
}

// clone copies the set slices so the result can be modified independently.
func (f Filters) clone() Filters {
	f.Locations = slices.Clone(f.Locations)
	f.Beds = slices.Clone(f.Beds)
	f.Baths = slices.Clone(f.Baths)
	f.FinanceTypes = slices.Clone(f.FinanceTypes)
	return f
}

// Set helpers. All of them return a fresh slice and never touch their input.

func with[T comparable](set []T, v T) []T {
	if slices.Contains(set, v) {
		return slices.Clone(set)
	}
	return append(slices.Clone(set), v)
}

func without[T comparable](set []T, v T) []T {
	out := make([]T, 0, len(set))
	for _, x := range set {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}

func toggled[T comparable](set []T, v T) []T {
	if slices.Contains(set, v) {
		return without(set, v)
	}
	return with(set, v)
}

func dedupe[T comparable](set []T) []T {
	if len(set) == 0 {
		return nil
	}
	out := make([]T, 0, len(set))
	for _, v := range set {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
