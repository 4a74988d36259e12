package explore

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Op is the kind of state change an Intent requests.
type Op string

const (
	OpApply    Op = "apply"     // set a scalar dimension, or add a value to a set
	OpToggle   Op = "toggle"    // flip set membership or a boolean toggle
	OpRemove   Op = "remove"    // drop one value from a set
	OpClear    Op = "clear"     // reset one dimension
	OpClearAll Op = "clear_all" // reset every filter dimension; sort is kept
	OpSort     Op = "sort"      // change the sort key
)

// Dimension names a filter dimension. The names double as URL parameter names.
type Dimension string

const (
	DimQuery       Dimension = "query"
	DimLocation    Dimension = "location"
	DimBeds        Dimension = "beds"
	DimBaths       Dimension = "baths"
	DimFinanceType Dimension = "finance_type"
	DimNewListing  Dimension = "new_listing"
	DimTrending    Dimension = "trending"
	DimPriceMin    Dimension = "price_min"
	DimPriceMax    Dimension = "price_max"
	DimSqftMin     Dimension = "sqft_min"
	DimSqftMax     Dimension = "sqft_max"
)

var (
	ErrUnknownOp        = errors.New("unknown intent op")
	ErrUnknownDimension = errors.New("unknown filter dimension")
	ErrInvalidValue     = errors.New("invalid filter value")
	ErrInvalidSort      = errors.New("invalid sort key")
)

// Intent is one user action against the explore state.
type Intent struct {
	Op        Op        `json:"op" binding:"required,oneof=apply toggle remove clear clear_all sort"`
	Dimension Dimension `json:"dimension,omitempty"`
	Value     string    `json:"value,omitempty"`
}

// ApplyFilter sets a scalar dimension or adds value to a set dimension.
func ApplyFilter(d Dimension, value string) Intent {
	return Intent{Op: OpApply, Dimension: d, Value: value}
}

// ToggleFilter flips membership of value, or flips a boolean toggle.
func ToggleFilter(d Dimension, value string) Intent {
	return Intent{Op: OpToggle, Dimension: d, Value: value}
}

// RemoveValue drops a single value from a set dimension.
func RemoveValue(d Dimension, value string) Intent {
	return Intent{Op: OpRemove, Dimension: d, Value: value}
}

func ClearFilter(d Dimension) Intent {
	return Intent{Op: OpClear, Dimension: d}
}

func ClearAll() Intent {
	return Intent{Op: OpClearAll}
}

func SetSort(k SortKey) Intent {
	return Intent{Op: OpSort, Value: string(k)}
}

// Reduce applies one intent to s and returns the new state. s is never modified.
func Reduce(s State, in Intent) (State, error) {
	next := State{Filters: s.Filters.clone(), Sort: s.Sort}
	f := &next.Filters

	switch in.Op {
	case OpClearAll:
		next.Filters = DefaultFilters()
		return next, nil
	case OpSort:
		k, ok := ParseSortKey(in.Value)
		if !ok {
			return s, fmt.Errorf("%w: %q", ErrInvalidSort, in.Value)
		}
		next.Sort = k
		return next, nil
	case OpClear:
		if err := clearDimension(f, in.Dimension); err != nil {
			return s, err
		}
		return next, nil
	case OpApply, OpToggle, OpRemove:
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownOp, in.Op)
	}

	switch in.Dimension {
	case DimQuery:
		if in.Op == OpApply {
			f.Query = in.Value
		} else {
			f.Query = ""
		}
	case DimLocation:
		f.Locations = updateSet(f.Locations, in.Op, in.Value)
	case DimFinanceType:
		f.FinanceTypes = updateSet(f.FinanceTypes, in.Op, in.Value)
	case DimBeds, DimBaths:
		n, err := parseNumber(in.Dimension, in.Value)
		if err != nil {
			return s, err
		}
		if in.Dimension == DimBeds {
			f.Beds = updateSet(f.Beds, in.Op, n)
		} else {
			f.Baths = updateSet(f.Baths, in.Op, n)
		}
	case DimNewListing, DimTrending:
		target := &f.NewListingOnly
		if in.Dimension == DimTrending {
			target = &f.TrendingOnly
		}
		switch in.Op {
		case OpToggle:
			*target = !*target
		case OpRemove:
			*target = false
		default:
			on, err := parseFlag(in.Value)
			if err != nil {
				return s, fmt.Errorf("%w: %s=%q", ErrInvalidValue, in.Dimension, in.Value)
			}
			*target = on
		}
	case DimPriceMin, DimPriceMax, DimSqftMin, DimSqftMax:
		if in.Op != OpApply {
			if err := clearDimension(f, in.Dimension); err != nil {
				return s, err
			}
			break
		}
		n, err := parseNumber(in.Dimension, in.Value)
		if err != nil {
			return s, err
		}
		*rangeBound(f, in.Dimension) = n
		f.clampRanges()
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownDimension, in.Dimension)
	}
	return next, nil
}

// ReduceAll folds a sequence of intents, stopping at the first invalid one.
func ReduceAll(s State, intents ...Intent) (State, error) {
	for i, in := range intents {
		next, err := Reduce(s, in)
		if err != nil {
			return s, fmt.Errorf("intent %d: %w", i, err)
		}
		s = next
	}
	return s, nil
}

func updateSet[T comparable](set []T, op Op, v T) []T {
	switch op {
	case OpToggle:
		return toggled(set, v)
	case OpRemove:
		return without(set, v)
	default:
		return with(set, v)
	}
}

func clearDimension(f *Filters, d Dimension) error {
	def := DefaultFilters()
	switch d {
	case DimQuery:
		f.Query = ""
	case DimLocation:
		f.Locations = nil
	case DimBeds:
		f.Beds = nil
	case DimBaths:
		f.Baths = nil
	case DimFinanceType:
		f.FinanceTypes = nil
	case DimNewListing:
		f.NewListingOnly = false
	case DimTrending:
		f.TrendingOnly = false
	case DimPriceMin:
		f.Price.Min = def.Price.Min
	case DimPriceMax:
		f.Price.Max = def.Price.Max
	case DimSqftMin:
		f.Sqft.Min = def.Sqft.Min
	case DimSqftMax:
		f.Sqft.Max = def.Sqft.Max
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDimension, d)
	}
	return nil
}

func rangeBound(f *Filters, d Dimension) *float64 {
	switch d {
	case DimPriceMin:
		return &f.Price.Min
	case DimPriceMax:
		return &f.Price.Max
	case DimSqftMin:
		return &f.Sqft.Min
	default:
		return &f.Sqft.Max
	}
}

func parseNumber(d Dimension, raw string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, d, raw)
	}
	return n, nil
}

func parseFlag(raw string) (bool, error) {
	if strings.TrimSpace(raw) == "" {
		return true, nil
	}
	return strconv.ParseBool(strings.TrimSpace(raw))
}

func formatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}
