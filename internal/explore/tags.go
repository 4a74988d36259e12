package explore

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Tag is one removable "active filter" chip.
type Tag struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	// Clear is the intent that removes exactly this chip's filter.
	Clear Intent `json:"clear"`

	base Filters
}

// Remove returns the filter state with only this chip's filter cleared.
func (t Tag) Remove() Filters {
	next, err := Reduce(State{Filters: t.base}, t.Clear)
	if err != nil {
		// clear intents built by Tags are always valid
		return t.base.clone()
	}
	return next.Filters
}

var labelPrinter = message.NewPrinter(language.English)

// GroupedNumber renders n with thousands separators and at most three decimals.
func GroupedNumber(n float64) string {
	return labelPrinter.Sprint(number.Decimal(n, number.MaxFractionDigits(3)))
}

// Tags projects the active filters into chips, in display order: query, locations,
// beds, baths, finance types, new listing, trending, price min, price max, sqft min,
// sqft max. Inactive dimensions produce no chip.
func Tags(f Filters) []Tag {
	base := f.clone()
	var tags []Tag
	add := func(key, label string, clear Intent) {
		tags = append(tags, Tag{Key: key, Label: label, Clear: clear, base: base})
	}

	if f.HasQuery() {
		add("search", `"`+f.Query+`"`, ClearFilter(DimQuery))
	}
	for _, loc := range f.Locations {
		add("loc-"+loc, loc, RemoveValue(DimLocation, loc))
	}
	for _, b := range f.Beds {
		n := formatNumber(b)
		add("bed-"+n, n+" bed", RemoveValue(DimBeds, n))
	}
	for _, b := range f.Baths {
		n := formatNumber(b)
		add("bath-"+n, n+" bath", RemoveValue(DimBaths, n))
	}
	for _, ft := range f.FinanceTypes {
		add("ft-"+ft, ft, RemoveValue(DimFinanceType, ft))
	}
	if f.NewListingOnly {
		add("new", "New Listing", ClearFilter(DimNewListing))
	}
	if f.TrendingOnly {
		add("trending", "Trending", ClearFilter(DimTrending))
	}
	if f.Price.Min > DefaultPriceMin {
		add("pmin", "₹"+GroupedNumber(f.Price.Min)+"+", ClearFilter(DimPriceMin))
	}
	if f.Price.Max < DefaultPriceMax {
		add("pmax", "Up to ₹"+GroupedNumber(f.Price.Max), ClearFilter(DimPriceMax))
	}
	if f.Sqft.Min > DefaultSqftMin {
		add("smin", formatNumber(f.Sqft.Min)+"+ sqft", ClearFilter(DimSqftMin))
	}
	if f.Sqft.Max < DefaultSqftMax {
		add("smax", "Up to "+formatNumber(f.Sqft.Max)+" sqft", ClearFilter(DimSqftMax))
	}
	return tags
}
