package explore

import (
	"slices"
	"strings"

	"github.com/Akxssh/property-salahe/internal/models"
)

// Predicate decides whether a single record passes one filter dimension.
type Predicate func(p models.Property) bool

// Predicates returns one predicate per filter dimension, in a fixed order:
// query, location, beds, baths, finance type, new listing, trending, price, area.
// Inactive dimensions yield a predicate that accepts every record.
func Predicates(f Filters) []Predicate {
	return []Predicate{
		queryPredicate(f.Query),
		memberPredicate(f.Locations, LocationOf),
		memberPredicate(f.Beds, BedsOf),
		memberPredicate(f.Baths, BathsOf),
		memberPredicate(f.FinanceTypes, FinanceTypeOf),
		flagPredicate(f.NewListingOnly, models.Property.IsNewListing),
		flagPredicate(f.TrendingOnly, models.Property.IsTrending),
		rangePredicate(f.Price, DefaultFilters().Price, models.Property.PriceOrZero),
		rangePredicate(f.Sqft, DefaultFilters().Sqft, models.Property.SqftOrZero),
	}
}

// Match reports whether p satisfies every predicate of f.
func Match(p models.Property, f Filters) bool {
	return matchAll(p, Predicates(f))
}

// Apply returns the records satisfying f, preserving input order.
func Apply(records []models.Property, f Filters) []models.Property {
	preds := Predicates(f)
	out := make([]models.Property, 0, len(records))
	for _, p := range records {
		if matchAll(p, preds) {
			out = append(out, p)
		}
	}
	return out
}

func matchAll(p models.Property, preds []Predicate) bool {
	for _, pred := range preds {
		if !pred(p) {
			return false
		}
	}
	return true
}

func acceptAll(models.Property) bool { return true }

func queryPredicate(query string) Predicate {
	if strings.TrimSpace(query) == "" {
		return acceptAll
	}
	q := strings.ToLower(query)
	return func(p models.Property) bool {
		return strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(models.Str(p.Location)), q) ||
			strings.Contains(strings.ToLower(models.Str(p.Name)), q)
	}
}

// memberPredicate is inclusive by default: an empty selection restricts nothing.
func memberPredicate[T string | float64](selected []T, get Accessor[T]) Predicate {
	if len(selected) == 0 {
		return acceptAll
	}
	return func(p models.Property) bool {
		v, ok := get(p)
		return ok && slices.Contains(selected, v)
	}
}

func flagPredicate(only bool, get func(models.Property) bool) Predicate {
	if !only {
		return acceptAll
	}
	return get
}

// rangePredicate leaves a bound open when it sits at or past the default, so records
// beyond the default limits stay visible while the dimension is inactive.
func rangePredicate(r, def Range, get func(models.Property) float64) Predicate {
	if r.Clamp(def) == def {
		return acceptAll
	}
	return func(p models.Property) bool {
		return r.Within(def, get(p))
	}
}
