package explore

import (
	"cmp"
	"slices"

	"github.com/Akxssh/property-salahe/internal/models"
)

// SortKey selects the result ordering.
type SortKey string

const (
	SortNewest    SortKey = "newest"
	SortPriceAsc  SortKey = "price_asc"
	SortPriceDesc SortKey = "price_desc"
	SortTrending  SortKey = "trending"
)

var sortLabels = map[SortKey]string{
	SortNewest:    "Newest First",
	SortPriceAsc:  "Price: Low → High",
	SortPriceDesc: "Price: High → Low",
	SortTrending:  "Trending",
}

// SortKeys lists the sort keys in dropdown order.
func SortKeys() []SortKey {
	return []SortKey{SortNewest, SortPriceAsc, SortPriceDesc, SortTrending}
}

// ParseSortKey validates a raw sort key.
func ParseSortKey(s string) (SortKey, bool) {
	k := SortKey(s)
	_, ok := sortLabels[k]
	return k, ok
}

// Label is the dropdown text for the key.
func (k SortKey) Label() string {
	if l, ok := sortLabels[k]; ok {
		return l
	}
	return sortLabels[SortNewest]
}

// Comparator returns the ordering for key. Unknown keys order as SortNewest.
func Comparator(key SortKey) func(a, b models.Property) int {
	switch key {
	case SortPriceAsc:
		return func(a, b models.Property) int {
			return cmp.Compare(a.PriceOrZero(), b.PriceOrZero())
		}
	case SortPriceDesc:
		return func(a, b models.Property) int {
			return cmp.Compare(b.PriceOrZero(), a.PriceOrZero())
		}
	case SortTrending:
		return func(a, b models.Property) int {
			return cmp.Compare(rank(b.IsTrending()), rank(a.IsTrending()))
		}
	default:
		// missing or unparseable created_at is the zero time and sorts last
		return func(a, b models.Property) int {
			return b.CreatedTime().Compare(a.CreatedTime())
		}
	}
}

// Sort returns a sorted copy of records. Ties keep their input order.
func Sort(records []models.Property, key SortKey) []models.Property {
	out := slices.Clone(records)
	slices.SortStableFunc(out, Comparator(key))
	return out
}

func rank(b bool) int {
	if b {
		return 1
	}
	return 0
}
