package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Akxssh/property-salahe/internal/api/middleware"
	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/explore"
	"github.com/Akxssh/property-salahe/internal/models"
	"github.com/Akxssh/property-salahe/internal/services"
)

// FetchFailedMessage is shown when the collection could not be read and the backend
// gave no message of its own.
const FetchFailedMessage = "Failed to fetch properties"

// Page is the chrome shared by every page.
type Page struct {
	AppName string
	Title   string
	User    *models.User
}

func newPage(c *gin.Context, appName, title string) Page {
	return Page{AppName: appName, Title: title, User: middleware.CurrentUser(c)}
}

// HomeView is the home page.
type HomeView struct {
	Page
	Status     services.PageStatus
	Error      string
	Search     string
	Properties []models.Property
}

// FacetOption is one checkbox of the explore sidebar.
type FacetOption struct {
	Name    string
	Value   string
	Label   string
	Count   int
	Checked bool
}

// Chip is one removable active filter.
type Chip struct {
	Label string
	Href  string
}

// SortOption is one entry of the sort dropdown.
type SortOption struct {
	Value    string
	Label    string
	Selected bool
}

// ExploreView is the explore page.
type ExploreView struct {
	Page
	Status       services.PageStatus
	Error        string
	State        explore.State
	Result       explore.Result
	Locations    []FacetOption
	Beds         []FacetOption
	Baths        []FacetOption
	FinanceTypes []FacetOption
	Sorts        []SortOption
	Chips        []Chip
	ClearAllHref string
	CountText    string
	PriceMin     string
	PriceMax     string
	SqftMin      string
	SqftMax      string
}

// LoginView is the sign-in / register page.
type LoginView struct {
	Page
	Mode    string
	Email   string
	Error   string
	Success string
}

// UploadView is the upload page.
type UploadView struct {
	Page
	Form         services.UploadForm
	FinanceTypes []string
	Preview      models.Property
	Error        string
	Created      *models.Property
}

// fetchErrorMessage is the text a page shows when listing properties fails.
func fetchErrorMessage(err error) string {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return FetchFailedMessage
}

// CountText is the result count line: "1 property" or "N properties".
func CountText(n int) string {
	if n == 1 {
		return "1 property"
	}
	return fmt.Sprintf("%d properties", n)
}

func formatFloat(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func stringOptions(dim explore.Dimension, opts []explore.Option[string], selected []string) []FacetOption {
	out := make([]FacetOption, 0, len(opts))
	for _, o := range opts {
		out = append(out, FacetOption{
			Name:    string(dim),
			Value:   o.Value,
			Label:   o.Value,
			Count:   o.Count,
			Checked: contains(selected, o.Value),
		})
	}
	return out
}

func numberOptions(dim explore.Dimension, suffix string, opts []explore.Option[float64], selected []float64) []FacetOption {
	out := make([]FacetOption, 0, len(opts))
	for _, o := range opts {
		v := formatFloat(o.Value)
		out = append(out, FacetOption{
			Name:    string(dim),
			Value:   v,
			Label:   v + suffix,
			Count:   o.Count,
			Checked: contains(selected, o.Value),
		})
	}
	return out
}

func contains[T comparable](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}

// boundValue renders a range bound for its input, blank when it is the default.
func boundValue(v, def float64) string {
	if v == def {
		return ""
	}
	return formatFloat(v)
}

// newExploreView lays out result for the explore page.
func newExploreView(page Page, result explore.Result) ExploreView {
	s := result.State
	f := s.Filters
	view := ExploreView{
		Page:         page,
		Status:       services.StatusReady,
		State:        s,
		Result:       result,
		Locations:    stringOptions(explore.DimLocation, result.Facets.Locations, f.Locations),
		Beds:         numberOptions(explore.DimBeds, " bed", result.Facets.Beds, f.Beds),
		Baths:        numberOptions(explore.DimBaths, " bath", result.Facets.Baths, f.Baths),
		FinanceTypes: stringOptions(explore.DimFinanceType, result.Facets.FinanceTypes, f.FinanceTypes),
		CountText:    CountText(result.Count()),
		PriceMin:     boundValue(f.Price.Min, explore.DefaultPriceMin),
		PriceMax:     boundValue(f.Price.Max, explore.DefaultPriceMax),
		SqftMin:      boundValue(f.Sqft.Min, explore.DefaultSqftMin),
		SqftMax:      boundValue(f.Sqft.Max, explore.DefaultSqftMax),
	}

	for _, k := range explore.SortKeys() {
		view.Sorts = append(view.Sorts, SortOption{Value: string(k), Label: k.Label(), Selected: k == s.Sort})
	}
	for _, tag := range result.Tags {
		next := explore.State{Filters: tag.Remove(), Sort: s.Sort}
		view.Chips = append(view.Chips, Chip{Label: tag.Label, Href: next.Href("/explore")})
	}
	if cleared, err := explore.Reduce(s, explore.ClearAll()); err == nil {
		view.ClearAllHref = cleared.Href("/explore")
	}
	return view
}
