package explore

import (
	"cmp"
	"slices"

	"github.com/Akxssh/property-salahe/internal/models"
)

// Accessor extracts a facet value from a record; ok is false when the value is absent.
type Accessor[T cmp.Ordered] func(p models.Property) (v T, ok bool)

// Field accessors used for the sidebar facets.
var (
	LocationOf Accessor[string] = func(p models.Property) (string, bool) {
		v := models.Str(p.Location)
		return v, v != ""
	}
	FinanceTypeOf Accessor[string] = func(p models.Property) (string, bool) {
		v := models.Str(p.FinanceType)
		return v, v != ""
	}
	BedsOf Accessor[float64] = func(p models.Property) (float64, bool) {
		return models.Num(p.Beds), p.Beds != nil
	}
	BathsOf Accessor[float64] = func(p models.Property) (float64, bool) {
		return models.Num(p.Baths), p.Baths != nil
	}
)

// Option is one facet value with the number of records carrying it.
type Option[T cmp.Ordered] struct {
	Value T   `json:"value"`
	Count int `json:"count"`
}

// Facets are the filter options derived from the full, unfiltered collection.
type Facets struct {
	Locations       []Option[string]  `json:"locations"`
	Beds            []Option[float64] `json:"beds"`
	Baths           []Option[float64] `json:"baths"`
	FinanceTypes    []Option[string]  `json:"finance_types"`
	NewListingCount int               `json:"new_listing_count"`
	TrendingCount   int               `json:"trending_count"`
}

// Distinct returns the distinct present values of a field sorted ascending.
func Distinct[T cmp.Ordered](records []models.Property, get Accessor[T]) []T {
	opts := Options(records, get)
	out := make([]T, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

// Options returns the distinct present values of a field, sorted ascending, with counts.
func Options[T cmp.Ordered](records []models.Property, get Accessor[T]) []Option[T] {
	counts := make(map[T]int)
	for _, p := range records {
		if v, ok := get(p); ok && v == v { // v == v drops NaN
			counts[v]++
		}
	}
	out := make([]Option[T], 0, len(counts))
	keys := make([]T, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, v := range keys {
		out = append(out, Option[T]{Value: v, Count: counts[v]})
	}
	return out
}

// DeriveFacets computes every sidebar facet in one pass per field.
func DeriveFacets(records []models.Property) Facets {
	f := Facets{
		Locations:    Options(records, LocationOf),
		Beds:         Options(records, BedsOf),
		Baths:        Options(records, BathsOf),
		FinanceTypes: Options(records, FinanceTypeOf),
	}
	for _, p := range records {
		if p.IsNewListing() {
			f.NewListingCount++
		}
		if p.IsTrending() {
			f.TrendingCount++
		}
	}
	return f
}
