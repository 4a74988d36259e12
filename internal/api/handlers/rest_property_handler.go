package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Akxssh/property-salahe/internal/explore"
	"github.com/Akxssh/property-salahe/internal/services"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// ExploreRequest is the body of POST /v1/explore: a starting state and the intents
// to fold over it, in order.
type ExploreRequest struct {
	State   *explore.State   `json:"state"`
	Intents []explore.Intent `json:"intents" binding:"omitempty,max=100,dive"`
}

// ExploreResponse carries the reduced state, its query-string form and the result.
type ExploreResponse struct {
	explore.Result
	Href      string `json:"href"`
	CountText string `json:"count_text"`
}

// RestPropertyHandler serves the listing collection and the explore computation as JSON.
type RestPropertyHandler struct {
	svc services.IPropertyService
}

// NewRestPropertyHandler creates a new RestPropertyHandler.
func NewRestPropertyHandler(svc services.IPropertyService) *RestPropertyHandler {
	return &RestPropertyHandler{svc: svc}
}

// ListProperties handles GET /v1/properties.
func (h *RestPropertyHandler) ListProperties(c *gin.Context) {
	properties, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		utils.Logger.WithError(err).Error("Error listing properties")
		c.JSON(http.StatusBadGateway, gin.H{"error": fetchErrorMessage(err)})
		return
	}
	c.JSON(http.StatusOK, properties)
}

// GetExplore handles GET /v1/explore with the state in the query string.
func (h *RestPropertyHandler) GetExplore(c *gin.Context) {
	h.respond(c, explore.ParseValues(c.Request.URL.Query()))
}

// PostExplore handles POST /v1/explore.
func (h *RestPropertyHandler) PostExplore(c *gin.Context) {
	var req ExploreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	state := explore.DefaultState()
	if req.State != nil {
		state = *req.State
	}
	state, err := explore.ReduceAll(state, req.Intents...)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, state)
}

func (h *RestPropertyHandler) respond(c *gin.Context, state explore.State) {
	properties, err := h.svc.ListAll(c.Request.Context())
	if err != nil {
		utils.Logger.WithError(err).Error("Error listing properties for explore")
		c.JSON(http.StatusBadGateway, gin.H{"error": fetchErrorMessage(err), "state": state})
		return
	}
	result := explore.Run(properties, state)
	c.JSON(http.StatusOK, ExploreResponse{
		Result:    result,
		Href:      result.State.Href("/explore"),
		CountText: CountText(result.Count()),
	})
}
