package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Akxssh/property-salahe/internal/explore"
	"github.com/Akxssh/property-salahe/internal/services"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// PageExploreHandler renders the pages that browse listings.
type PageExploreHandler struct {
	svc     services.IPropertyService
	appName string
}

// NewPageExploreHandler creates a new PageExploreHandler.
func NewPageExploreHandler(svc services.IPropertyService, appName string) *PageExploreHandler {
	return &PageExploreHandler{svc: svc, appName: appName}
}

// Home handles GET /: every listing newest first, optionally narrowed by ?search=.
func (h *PageExploreHandler) Home(c *gin.Context) {
	search := c.Query("search")
	view := HomeView{
		Page:   newPage(c, h.appName, ""),
		Status: services.StatusReady,
		Search: search,
	}

	properties, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		utils.Logger.WithError(err).Error("Home: listing properties failed")
		view.Status = services.StatusError
		view.Error = fetchErrorMessage(err)
		c.HTML(http.StatusBadGateway, "home", view)
		return
	}

	filters := explore.DefaultFilters()
	filters.Query = search
	view.Properties = explore.Apply(properties, filters)
	c.HTML(http.StatusOK, "home", view)
}

// Explore handles GET /explore. The whole view state travels in the query string.
func (h *PageExploreHandler) Explore(c *gin.Context) {
	state := explore.ParseValues(c.Request.URL.Query())
	page := newPage(c, h.appName, "Explore")

	properties, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		utils.Logger.WithError(err).Error("Explore: listing properties failed")
		view := newExploreView(page, explore.Run(nil, state))
		view.Status = services.StatusError
		view.Error = fetchErrorMessage(err)
		c.HTML(http.StatusBadGateway, "explore", view)
		return
	}

	c.HTML(http.StatusOK, "explore", newExploreView(page, explore.Run(properties, state)))
}
