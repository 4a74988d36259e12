package explore

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// State is everything the explore page needs to reproduce a view: the filters plus
// the sort key. It round-trips through URL query values and JSON.
type State struct {
	Filters Filters `json:"filters"`
	Sort    SortKey `json:"sort"`
}

// DefaultState has no active filters and sorts newest first.
func DefaultState() State {
	return State{Filters: DefaultFilters(), Sort: SortNewest}
}

// UnmarshalJSON decodes over DefaultState; an unknown sort key falls back to newest.
func (s *State) UnmarshalJSON(data []byte) error {
	type plain State
	out := plain(DefaultState())
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*s = State(out)
	if _, ok := ParseSortKey(string(s.Sort)); !ok {
		s.Sort = SortNewest
	}
	return nil
}

// ParseValues reads a State from URL query parameters. Malformed numbers and unknown
// sort keys are ignored rather than rejected, so a hand-edited link still renders.
func ParseValues(v url.Values) State {
	s := DefaultState()
	f := &s.Filters

	f.Query = v.Get(string(DimQuery))
	for _, loc := range v[string(DimLocation)] {
		if loc != "" {
			f.Locations = with(f.Locations, loc)
		}
	}
	for _, ft := range v[string(DimFinanceType)] {
		if ft != "" {
			f.FinanceTypes = with(f.FinanceTypes, ft)
		}
	}
	for _, raw := range v[string(DimBeds)] {
		if n, err := parseNumber(DimBeds, raw); err == nil {
			f.Beds = with(f.Beds, n)
		}
	}
	for _, raw := range v[string(DimBaths)] {
		if n, err := parseNumber(DimBaths, raw); err == nil {
			f.Baths = with(f.Baths, n)
		}
	}
	f.NewListingOnly = truthy(v.Get(string(DimNewListing)))
	f.TrendingOnly = truthy(v.Get(string(DimTrending)))

	for _, d := range []Dimension{DimPriceMin, DimPriceMax, DimSqftMin, DimSqftMax} {
		raw := v.Get(string(d))
		if raw == "" {
			continue
		}
		if n, err := parseNumber(d, raw); err == nil {
			*rangeBound(f, d) = n
		}
	}
	f.clampRanges()

	if k, ok := ParseSortKey(v.Get("sort")); ok {
		s.Sort = k
	}
	return s
}

// Values encodes s as URL query parameters, omitting inactive dimensions.
func (s State) Values() url.Values {
	v := url.Values{}
	f := s.Filters
	f.clampRanges()
	def := DefaultFilters()

	if f.HasQuery() {
		v.Set(string(DimQuery), f.Query)
	}
	for _, loc := range f.Locations {
		v.Add(string(DimLocation), loc)
	}
	for _, b := range f.Beds {
		v.Add(string(DimBeds), formatNumber(b))
	}
	for _, b := range f.Baths {
		v.Add(string(DimBaths), formatNumber(b))
	}
	for _, ft := range f.FinanceTypes {
		v.Add(string(DimFinanceType), ft)
	}
	if f.NewListingOnly {
		v.Set(string(DimNewListing), "1")
	}
	if f.TrendingOnly {
		v.Set(string(DimTrending), "1")
	}
	if f.Price.Min != def.Price.Min {
		v.Set(string(DimPriceMin), formatNumber(f.Price.Min))
	}
	if f.Price.Max != def.Price.Max {
		v.Set(string(DimPriceMax), formatNumber(f.Price.Max))
	}
	if f.Sqft.Min != def.Sqft.Min {
		v.Set(string(DimSqftMin), formatNumber(f.Sqft.Min))
	}
	if f.Sqft.Max != def.Sqft.Max {
		v.Set(string(DimSqftMax), formatNumber(f.Sqft.Max))
	}
	if s.Sort != "" && s.Sort != SortNewest {
		v.Set("sort", string(s.Sort))
	}
	return v
}

// Href returns path with s encoded as its query string.
func (s State) Href(path string) string {
	q := s.Values().Encode()
	if q == "" {
		return path
	}
	return path + "?" + q
}

func truthy(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	b, err := strconv.ParseBool(raw)
	return err == nil && b
}
