package explore_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Akxssh/property-salahe/internal/explore"
	"github.com/Akxssh/property-salahe/internal/models"
)

func prop(id, location string, price, beds float64, createdAt string) models.Property {
	return models.Property{
		ID:        models.RecordID(id),
		Title:     "Listing " + id,
		Location:  models.Ptr(location),
		Price:     models.Ptr(price),
		Beds:      models.Ptr(beds),
		CreatedAt: models.Ptr(createdAt),
	}
}

// sample is the three-record collection used throughout the examples.
func sample() []models.Property {
	return []models.Property{
		prop("1", "Pune", 5000000, 2, "2024-01-01"),
		prop("2", "Pune", 8000000, 3, "2024-06-01"),
		prop("3", "Mumbai", 3000000, 1, "2024-03-01"),
	}
}

// mixed adds records with absent fields, flags and finance types.
func mixed() []models.Property {
	out := sample()
	out = append(out,
		models.Property{ID: "4", Title: "Bare plot"},
		models.Property{
			ID:          "5",
			Title:       "Sea view flat",
			Name:        models.Ptr("Skyline Towers"),
			Location:    models.Ptr("Mumbai"),
			FinanceType: models.Ptr("Loan"),
			Price:       models.Ptr(12000000.0),
			Baths:       models.Ptr(2.0),
			Sqft:        models.Ptr(1450.0),
			Trending:    models.Ptr(true),
			NewListing:  models.Ptr(true),
			CreatedAt:   models.Ptr("2024-06-01T08:00:00Z"),
		},
		models.Property{
			ID:          "6",
			Title:       "Garden villa",
			Location:    models.Ptr(""),
			FinanceType: models.Ptr("Cash"),
			Beds:        models.Ptr(0.0),
			Sqft:        models.Ptr(3200.0),
			Trending:    models.Ptr(false),
			CreatedAt:   models.Ptr("garbage"),
		},
	)
	return out
}

func ids(records []models.Property) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = string(r.ID)
	}
	return out
}

func withFilters(mut func(f *explore.Filters)) explore.Filters {
	f := explore.DefaultFilters()
	mut(&f)
	return f
}

func TestRun_ExampleScenarios(t *testing.T) {
	t.Run("Pune by price descending", func(t *testing.T) {
		s := explore.DefaultState()
		s.Filters.Locations = []string{"Pune"}
		s.Sort = explore.SortPriceDesc
		assert.Equal(t, []string{"2", "1"}, ids(explore.Run(sample(), s).Properties))
	})

	t.Run("newest", func(t *testing.T) {
		assert.Equal(t, []string{"2", "3", "1"}, ids(explore.Run(sample(), explore.DefaultState()).Properties))
	})

	t.Run("text query", func(t *testing.T) {
		s := explore.DefaultState()
		s.Filters.Query = "mumbai"
		assert.Equal(t, []string{"3"}, ids(explore.Run(sample(), s).Properties))
	})

	t.Run("price range", func(t *testing.T) {
		f := withFilters(func(f *explore.Filters) { f.Price = explore.Range{Min: 4000000, Max: 9000000} })
		assert.Equal(t, []string{"1", "2"}, ids(explore.Apply(sample(), f)))
	})
}

func TestApply_SubsetAndConjunction(t *testing.T) {
	records := mixed()
	filterSets := []explore.Filters{
		explore.DefaultFilters(),
		withFilters(func(f *explore.Filters) { f.Locations = []string{"Mumbai"} }),
		withFilters(func(f *explore.Filters) { f.Beds = []float64{2, 3}; f.Price.Min = 6000000 }),
		withFilters(func(f *explore.Filters) { f.TrendingOnly = true; f.FinanceTypes = []string{"Loan"} }),
		withFilters(func(f *explore.Filters) { f.Query = "SKYLINE"; f.NewListingOnly = true }),
		withFilters(func(f *explore.Filters) { f.Sqft = explore.Range{Min: 1000, Max: 2000} }),
		withFilters(func(f *explore.Filters) { f.Baths = []float64{2}; f.Sqft.Max = 1000 }),
	}

	for _, f := range filterSets {
		out := explore.Apply(records, f)

		seen := map[models.RecordID]bool{}
		for _, r := range out {
			assert.False(t, seen[r.ID], "duplicate record %s", r.ID)
			seen[r.ID] = true
			assert.Contains(t, records, r)
			for i, pred := range explore.Predicates(f) {
				assert.True(t, pred(r), "record %s fails predicate %d", r.ID, i)
			}
		}
		for _, r := range records {
			if !seen[r.ID] {
				assert.False(t, explore.Match(r, f), "record %s matches but was dropped", r.ID)
			}
		}
	}
}

func TestApply_EmptyMultiSelectIsInclusive(t *testing.T) {
	records := mixed()
	f := withFilters(func(f *explore.Filters) {
		f.Locations = []string{}
		f.Beds = nil
		f.Baths = []float64{}
		f.FinanceTypes = nil
	})
	assert.Equal(t, ids(records), ids(explore.Apply(records, f)))
}

func TestApply_AbsentFields(t *testing.T) {
	records := mixed()

	// absent price counts as 0 and falls inside the default range
	all := explore.Apply(records, explore.DefaultFilters())
	assert.Contains(t, ids(all), "4")

	// absent or empty location never matches a location selection
	f := withFilters(func(f *explore.Filters) { f.Locations = []string{""} })
	assert.Empty(t, explore.Apply(records, f))

	// beds=0 is a real value, absent beds is not
	f = withFilters(func(f *explore.Filters) { f.Beds = []float64{0} })
	assert.Equal(t, []string{"6"}, ids(explore.Apply(records, f)))

	// whitespace-only query restricts nothing
	f = withFilters(func(f *explore.Filters) { f.Query = "   " })
	assert.Len(t, explore.Apply(records, f), len(records))

	// query matches title, location or name, case-insensitively
	f = withFilters(func(f *explore.Filters) { f.Query = "towers" })
	assert.Equal(t, []string{"5"}, ids(explore.Apply(records, f)))
	f = withFilters(func(f *explore.Filters) { f.Query = "VILLA" })
	assert.Equal(t, []string{"6"}, ids(explore.Apply(records, f)))

	// surrounding spaces are part of a non-empty query
	f = withFilters(func(f *explore.Filters) { f.Query = "view " })
	assert.Equal(t, []string{"5"}, ids(explore.Apply(records, f)))
	f = withFilters(func(f *explore.Filters) { f.Query = "flat " })
	assert.Empty(t, explore.Apply(records, f))
	f = withFilters(func(f *explore.Filters) { f.Query = " villa" })
	assert.Equal(t, []string{"6"}, ids(explore.Apply(records, f)))
}

func TestSort_Properties(t *testing.T) {
	records := mixed()
	original := ids(records)

	for _, key := range explore.SortKeys() {
		once := explore.Sort(records, key)
		twice := explore.Sort(once, key)
		assert.Equal(t, ids(once), ids(twice), "sort %s is not idempotent", key)
	}
	assert.Equal(t, original, ids(records), "input was mutated")

	// no ties among the sample prices
	asc := ids(explore.Sort(sample(), explore.SortPriceAsc))
	desc := ids(explore.Sort(sample(), explore.SortPriceDesc))
	for i := range asc {
		assert.Equal(t, asc[i], desc[len(desc)-1-i])
	}
	assert.Equal(t, []string{"3", "1", "2"}, asc)
}

func TestSort_NewestMissingDatesLast(t *testing.T) {
	out := ids(explore.Sort(mixed(), explore.SortNewest))
	assert.Equal(t, []string{"5", "2", "3", "1", "4", "6"}, out)
}

func TestSort_TrendingFirstStable(t *testing.T) {
	records := []models.Property{
		{ID: "a", Title: "a"},
		{ID: "b", Title: "b", Trending: models.Ptr(true)},
		{ID: "c", Title: "c", Trending: models.Ptr(false)},
		{ID: "d", Title: "d", Trending: models.Ptr(true)},
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(explore.Sort(records, explore.SortTrending)))
}

func TestSort_UnknownKeyIsNewest(t *testing.T) {
	assert.Equal(t, []string{"2", "3", "1"}, ids(explore.Sort(sample(), explore.SortKey("bogus"))))
	assert.Equal(t, "Newest First", explore.SortKey("bogus").Label())
	assert.Equal(t, "Price: Low → High", explore.SortPriceAsc.Label())
}

func TestDeriveFacets(t *testing.T) {
	facets := explore.DeriveFacets(mixed())

	assert.Equal(t, []explore.Option[string]{
		{Value: "Mumbai", Count: 2},
		{Value: "Pune", Count: 2},
	}, facets.Locations)
	assert.Equal(t, []explore.Option[float64]{
		{Value: 0, Count: 1},
		{Value: 1, Count: 1},
		{Value: 2, Count: 1},
		{Value: 3, Count: 1},
	}, facets.Beds)
	assert.Equal(t, []explore.Option[float64]{{Value: 2, Count: 1}}, facets.Baths)
	assert.Equal(t, []string{"Cash", "Loan"}, explore.Distinct(mixed(), explore.FinanceTypeOf))
	assert.Equal(t, 1, facets.NewListingCount)
	assert.Equal(t, 1, facets.TrendingCount)

	empty := explore.DeriveFacets(nil)
	assert.Empty(t, empty.Locations)
	assert.Empty(t, empty.Beds)
}

func TestTags_OrderAndLabels(t *testing.T) {
	f := explore.Filters{
		Query:          "sea view",
		Locations:      []string{"Pune", "Mumbai"},
		Beds:           []float64{3, 2.5},
		Baths:          []float64{2},
		FinanceTypes:   []string{"EMI"},
		NewListingOnly: true,
		TrendingOnly:   true,
		Price:          explore.Range{Min: 2500000, Max: 9000000},
		Sqft:           explore.Range{Min: 500, Max: 2000},
	}

	var keys, labels []string
	for _, tag := range explore.Tags(f) {
		keys = append(keys, tag.Key)
		labels = append(labels, tag.Label)
	}
	assert.Equal(t, []string{
		"search", "loc-Pune", "loc-Mumbai", "bed-3", "bed-2.5", "bath-2", "ft-EMI",
		"new", "trending", "pmin", "pmax", "smin", "smax",
	}, keys)
	assert.Equal(t, []string{
		`"sea view"`, "Pune", "Mumbai", "3 bed", "2.5 bed", "2 bath", "EMI",
		"New Listing", "Trending", "₹2,500,000+", "Up to ₹9,000,000", "500+ sqft", "Up to 2000 sqft",
	}, labels)
}

func TestTags_NoneWhenInactive(t *testing.T) {
	assert.Empty(t, explore.Tags(explore.DefaultFilters()))
	assert.False(t, explore.DefaultFilters().IsActive())
}

func TestTags_RemoveClearsOnlyThatChip(t *testing.T) {
	f := explore.Filters{
		Query:        "flat",
		Locations:    []string{"Pune", "Mumbai"},
		Beds:         []float64{2, 3},
		FinanceTypes: []string{"Cash"},
		TrendingOnly: true,
		Price:        explore.Range{Min: 100, Max: 200},
		Sqft:         explore.Range{Min: 0, Max: 900},
	}
	tags := explore.Tags(f)
	require.Len(t, tags, 10)

	for i, tag := range tags {
		after := explore.Tags(tag.Remove())
		var remaining []string
		for _, a := range after {
			remaining = append(remaining, a.Key)
		}
		var expected []string
		for j, other := range tags {
			if j != i {
				expected = append(expected, other.Key)
			}
		}
		assert.Equal(t, expected, remaining, "removing %s", tag.Key)
	}

	// the original state is untouched by Remove
	assert.Equal(t, []string{"Pune", "Mumbai"}, f.Locations)
	assert.Len(t, explore.Tags(f), 10)
}

// outsized adds records beyond the default price and area limits.
func outsized() []models.Property {
	return append(mixed(),
		models.Property{ID: "7", Title: "Penthouse", Location: models.Ptr("Mumbai"), Price: models.Ptr(150000000.0)},
		models.Property{ID: "8", Title: "Farm estate", Location: models.Ptr("Pune"), Sqft: models.Ptr(250000.0)},
	)
}

func TestClearAll_RestoresFullCollection(t *testing.T) {
	records := outsized()
	s := explore.State{
		Filters: withFilters(func(f *explore.Filters) {
			f.Query = "pune"
			f.Beds = []float64{2}
			f.TrendingOnly = true
			f.Sqft.Max = 10
		}),
		Sort: explore.SortPriceAsc,
	}

	cleared, err := explore.Reduce(s, explore.ClearAll())
	require.NoError(t, err)
	assert.True(t, cleared.Filters.Equal(explore.DefaultFilters()))
	assert.Equal(t, explore.SortPriceAsc, cleared.Sort, "clear all keeps the sort")
	assert.ElementsMatch(t, ids(records), ids(explore.Apply(records, cleared.Filters)))
	assert.Empty(t, explore.Tags(cleared.Filters))

	res := explore.Run(records, explore.DefaultState())
	assert.Equal(t, res.Total, res.Count())
	assert.ElementsMatch(t, ids(records), ids(explore.Apply(records, explore.DefaultFilters())))
}

func TestApply_RangeBounds(t *testing.T) {
	records := outsized()

	cases := []struct {
		name string
		mut  func(f *explore.Filters)
		want []string
	}{
		{"upper price bound", func(f *explore.Filters) { f.Price.Max = 9000000 }, []string{"1", "2", "3", "4", "6", "8"}},
		{"lower price bound", func(f *explore.Filters) { f.Price.Min = 10000000 }, []string{"5", "7"}},
		{"lower bound at the default ceiling", func(f *explore.Filters) { f.Price.Min = explore.DefaultPriceMax }, []string{"7"}},
		{"upper area bound", func(f *explore.Filters) { f.Sqft.Max = 2000 }, []string{"1", "2", "3", "4", "5", "7"}},
		{"bounds past the defaults", func(f *explore.Filters) { f.Price.Max = 2e8; f.Sqft.Min = -5 }, ids(records)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := explore.Apply(records, withFilters(tc.mut))
			assert.ElementsMatch(t, tc.want, ids(got))
		})
	}
}

func TestReduce_IntentSequence(t *testing.T) {
	s, err := explore.ReduceAll(explore.DefaultState(),
		explore.ApplyFilter(explore.DimLocation, "Pune"),
		explore.ApplyFilter(explore.DimLocation, "Mumbai"),
		explore.ApplyFilter(explore.DimLocation, "Pune"),
		explore.ToggleFilter(explore.DimBeds, "2"),
		explore.ToggleFilter(explore.DimBeds, "3"),
		explore.ToggleFilter(explore.DimBeds, "2"),
		explore.ApplyFilter(explore.DimPriceMin, "4000000"),
		explore.ApplyFilter(explore.DimTrending, ""),
		explore.ToggleFilter(explore.DimTrending, ""),
		explore.ApplyFilter(explore.DimQuery, "view"),
		explore.SetSort(explore.SortPriceDesc),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"Pune", "Mumbai"}, s.Filters.Locations)
	assert.Equal(t, []float64{3}, s.Filters.Beds)
	assert.Equal(t, 4000000.0, s.Filters.Price.Min)
	assert.False(t, s.Filters.TrendingOnly)
	assert.Equal(t, "view", s.Filters.Query)
	assert.Equal(t, explore.SortPriceDesc, s.Sort)

	s, err = explore.ReduceAll(s,
		explore.RemoveValue(explore.DimLocation, "Pune"),
		explore.ClearFilter(explore.DimPriceMin),
		explore.ClearFilter(explore.DimQuery),
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mumbai"}, s.Filters.Locations)
	assert.Equal(t, 0.0, s.Filters.Price.Min)
	assert.Equal(t, "", s.Filters.Query)
}

func TestReduce_Errors(t *testing.T) {
	start := explore.DefaultState()
	start.Filters.Locations = []string{"Pune"}

	cases := []struct {
		in   explore.Intent
		want error
	}{
		{explore.Intent{Op: "explode"}, explore.ErrUnknownOp},
		{explore.ApplyFilter("colour", "red"), explore.ErrUnknownDimension},
		{explore.ClearFilter("colour"), explore.ErrUnknownDimension},
		{explore.ApplyFilter(explore.DimBeds, "two"), explore.ErrInvalidValue},
		{explore.ApplyFilter(explore.DimPriceMax, "NaN"), explore.ErrInvalidValue},
		{explore.ApplyFilter(explore.DimNewListing, "maybe"), explore.ErrInvalidValue},
		{explore.SetSort("cheapest"), explore.ErrInvalidSort},
	}
	for _, tc := range cases {
		got, err := explore.Reduce(start, tc.in)
		assert.ErrorIs(t, err, tc.want, "intent %+v", tc.in)
		assert.Equal(t, start, got, "failed intent must leave state unchanged")
	}
}

func TestState_URLRoundTrip(t *testing.T) {
	s := explore.State{
		Filters: explore.Filters{
			Query:          "sea view",
			Locations:      []string{"Pune", "Navi Mumbai"},
			Beds:           []float64{2, 3},
			Baths:          []float64{1.5},
			FinanceTypes:   []string{"EMI"},
			NewListingOnly: true,
			Price:          explore.Range{Min: 100000, Max: explore.DefaultPriceMax},
			Sqft:           explore.Range{Min: 0, Max: 1200},
		},
		Sort: explore.SortTrending,
	}

	back := explore.ParseValues(s.Values())
	assert.True(t, s.Filters.Equal(back.Filters), "got %+v", back.Filters)
	assert.Equal(t, s.Sort, back.Sort)

	assert.Equal(t, "/explore", explore.DefaultState().Href("/explore"))
}

func TestParseValues_Lenient(t *testing.T) {
	v, err := url.ParseQuery("query=mumbai&beds=x&beds=2&beds=2&price_max=cheap&trending=1&new_listing=no&sort=bogus")
	require.NoError(t, err)

	s := explore.ParseValues(v)
	assert.Equal(t, "mumbai", s.Filters.Query)
	assert.Equal(t, []float64{2}, s.Filters.Beds)
	assert.Equal(t, float64(explore.DefaultPriceMax), s.Filters.Price.Max)
	assert.True(t, s.Filters.TrendingOnly)
	assert.False(t, s.Filters.NewListingOnly)
	assert.Equal(t, explore.SortNewest, s.Sort)
}

func TestParseValues_ClampsRanges(t *testing.T) {
	v, err := url.ParseQuery("price_min=-5&price_max=2e8&sqft_max=500000")
	require.NoError(t, err)

	s := explore.ParseValues(v)
	assert.True(t, s.Filters.Equal(explore.DefaultFilters()), "got %+v", s.Filters)
	assert.False(t, s.Filters.IsActive())
	assert.Empty(t, s.Values())

	v, err = url.ParseQuery("price_min=2e8")
	require.NoError(t, err)
	s = explore.ParseValues(v)
	assert.Equal(t, float64(explore.DefaultPriceMax), s.Filters.Price.Min)
	assert.True(t, s.Filters.IsActive())
	back := explore.ParseValues(s.Values())
	assert.True(t, s.Filters.Equal(back.Filters))
}

func TestFilters_IsActive(t *testing.T) {
	cases := []struct {
		name string
		mut  func(f *explore.Filters)
		want bool
	}{
		{"defaults", func(f *explore.Filters) {}, false},
		{"whitespace query", func(f *explore.Filters) { f.Query = "  " }, false},
		{"bound past the default", func(f *explore.Filters) { f.Price.Max = 2e8; f.Sqft.Min = -1 }, false},
		{"query", func(f *explore.Filters) { f.Query = "pune" }, true},
		{"empty location set", func(f *explore.Filters) { f.Locations = []string{} }, false},
		{"area bound", func(f *explore.Filters) { f.Sqft.Max = 1200 }, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := withFilters(tc.mut)
			assert.Equal(t, tc.want, f.IsActive())
			assert.Equal(t, tc.want, len(explore.Tags(f)) > 0, "tags agree with IsActive")
			assert.Equal(t, tc.want, len(explore.State{Filters: f}.Values()) > 0, "URL agrees with IsActive")
		})
	}
}

func TestReduce_ClampsRanges(t *testing.T) {
	s, err := explore.ReduceAll(explore.DefaultState(),
		explore.ApplyFilter(explore.DimPriceMax, "200000000"),
		explore.ApplyFilter(explore.DimSqftMin, "-10"),
	)
	require.NoError(t, err)
	assert.True(t, s.Filters.Equal(explore.DefaultFilters()))
	assert.False(t, s.Filters.IsActive())
}

func TestState_JSONDefaults(t *testing.T) {
	var s explore.State
	require.NoError(t, json.Unmarshal([]byte(`{"filters":{"locations":["Pune","Pune"]},"sort":"price_asc"}`), &s))
	assert.Equal(t, []string{"Pune"}, s.Filters.Locations)
	assert.Equal(t, float64(explore.DefaultPriceMax), s.Filters.Price.Max)
	assert.Equal(t, float64(explore.DefaultSqftMax), s.Filters.Sqft.Max)
	assert.Equal(t, explore.SortPriceAsc, s.Sort)

	require.NoError(t, json.Unmarshal([]byte(`{}`), &s))
	assert.Equal(t, explore.SortNewest, s.Sort)
}

func TestRun_ResultShape(t *testing.T) {
	s := explore.DefaultState()
	s.Filters.Locations = []string{"Mumbai"}

	res := explore.Run(mixed(), s)
	assert.Equal(t, 6, res.Total)
	assert.Equal(t, 2, res.Count())
	assert.Equal(t, []string{"5", "3"}, ids(res.Properties))
	require.Len(t, res.Tags, 1)
	assert.Equal(t, "loc-Mumbai", res.Tags[0].Key)
	assert.Len(t, res.Facets.Locations, 2, "facets come from the unfiltered collection")
}
