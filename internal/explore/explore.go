package explore

import "github.com/Akxssh/property-salahe/internal/models"

// Result is everything the explore view renders for one State.
type Result struct {
	State      State             `json:"state"`
	Properties []models.Property `json:"properties"`
	Facets     Facets            `json:"facets"`
	Tags       []Tag             `json:"tags"`
	// Total is the size of the unfiltered collection.
	Total int `json:"total"`
}

// Count is the number of records that survived filtering.
func (r Result) Count() int {
	return len(r.Properties)
}

// Run derives facets from the full collection, filters and sorts it for s, and
// projects the active tags. records is not modified.
func Run(records []models.Property, s State) Result {
	if _, ok := ParseSortKey(string(s.Sort)); !ok {
		s.Sort = SortNewest
	}
	tags := Tags(s.Filters)
	if tags == nil {
		tags = []Tag{}
	}
	return Result{
		State:      s,
		Properties: Sort(Apply(records, s.Filters), s.Sort),
		Facets:     DeriveFacets(records),
		Tags:       tags,
		Total:      len(records),
	}
}
