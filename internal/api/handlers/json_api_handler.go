package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Akxssh/property-salahe/internal/api/middleware"
	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/services"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// JsonApiRequest defines the expected structure for JSON API requests.
type JsonApiRequest struct {
	Method    string          `json:"method"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// JsonApiResponse defines the structure for JSON API responses.
type JsonApiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ApiError struct {
	Message string
}

func (e *ApiError) Error() string {
	return e.Message
}

func NewApiError(message string) *ApiError {
	return &ApiError{Message: message}
}

// apiMethodFunc defines the signature for handler methods.
type apiMethodFunc func(c *gin.Context, args json.RawMessage) (interface{}, *ApiError)

// CredentialsArgs are the arguments of signIn and signUp.
type CredentialsArgs struct {
	Email           string `json:"email" validate:"omitempty,email,max=320"`
	Password        string `json:"password" validate:"max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"max=72"`
}

// JsonApiHandler dispatches POST /v1/api calls for script and app clients.
type JsonApiHandler struct {
	accounts   services.IAccountService
	properties services.IPropertyService
	validate   *validator.Validate
	methods    map[string]apiMethodFunc
}

// NewJsonApiHandler creates a new handler for the JSON API endpoint.
func NewJsonApiHandler(accounts services.IAccountService, properties services.IPropertyService) *JsonApiHandler {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	h := &JsonApiHandler{
		accounts:   accounts,
		properties: properties,
		validate:   validate,
	}
	h.methods = map[string]apiMethodFunc{
		"ping":           h.ping,
		"signIn":         h.signIn,
		"signUp":         h.signUp,
		"signOut":        h.signOut,
		"currentUser":    h.currentUser,
		"createProperty": h.createProperty,
	}
	return h
}

// HandleRequest is the main entry point for POST /v1/api
func (h *JsonApiHandler) HandleRequest(c *gin.Context) {
	bodyBytes, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.sendErrorResponse(c, "Failed to read request body")
		return
	}

	var req JsonApiRequest
	if err := json.Unmarshal(bodyBytes, &req); err != nil {
		h.sendErrorResponse(c, "Invalid JSON request format")
		return
	}

	handlerFunc, ok := h.methods[req.Method]
	if !ok {
		h.sendErrorResponse(c, fmt.Sprintf("Unknown method: %s", req.Method))
		return
	}
	if methodRequiresAuth(req.Method) && middleware.CurrentUser(c) == nil {
		h.sendErrorResponse(c, "Authorization required")
		return
	}

	result, apiErr := handlerFunc(c, req.Arguments)
	if apiErr != nil {
		h.sendErrorResponse(c, apiErr.Message)
		return
	}
	h.sendSuccessResponse(c, result)
}

// methodRequiresAuth checks if a given API method requires a signed-in caller.
func methodRequiresAuth(method string) bool {
	switch method {
	case "signOut", "currentUser", "createProperty":
		return true
	default:
		return false
	}
}

// --- Private helper methods ---

func (h *JsonApiHandler) sendSuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, JsonApiResponse{Success: true, Data: data})
}

func (h *JsonApiHandler) sendErrorResponse(c *gin.Context, message string) {
	c.JSON(http.StatusOK, JsonApiResponse{Success: false, Error: message})
}

// parseRequiredSingleArgFromArray decodes the first element of the arguments array
// into targetVarPtr and validates it.
func (h *JsonApiHandler) parseRequiredSingleArgFromArray(rawArgPayload json.RawMessage, targetVarPtr interface{}) *ApiError {
	if rawArgPayload == nil {
		return NewApiError("Missing 'arguments' field; expected a JSON array with one argument.")
	}

	var argArray []json.RawMessage
	if err := json.Unmarshal(rawArgPayload, &argArray); err != nil {
		return NewApiError("Invalid 'arguments': expected a JSON array.")
	}
	if len(argArray) == 0 {
		return NewApiError("Invalid 'arguments': array is empty, but one argument is expected.")
	}
	if err := json.Unmarshal(argArray[0], targetVarPtr); err != nil {
		return NewApiError("Invalid format for argument: the first element in 'arguments' array has unexpected structure.")
	}

	if err := h.validate.Struct(targetVarPtr); err != nil {
		return NewApiError(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("invalid %s: must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("invalid %s: must satisfy %s", fe.Field(), fe.Tag())
	}
	return "Invalid arguments"
}

// --- API Method Implementations ---

func (h *JsonApiHandler) ping(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	_ = args
	return "pong", nil
}

func (h *JsonApiHandler) signIn(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var reqArgs CredentialsArgs
	if apiErr := h.parseRequiredSingleArgFromArray(args, &reqArgs); apiErr != nil {
		return nil, apiErr
	}
	session, err := h.accounts.Login(c.Request.Context(), reqArgs.Email, reqArgs.Password)
	if err != nil {
		return nil, NewApiError(backend.Message(err))
	}
	return session, nil
}

func (h *JsonApiHandler) signUp(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	var reqArgs CredentialsArgs
	if apiErr := h.parseRequiredSingleArgFromArray(args, &reqArgs); apiErr != nil {
		return nil, apiErr
	}
	confirm := reqArgs.ConfirmPassword
	if confirm == "" {
		confirm = reqArgs.Password
	}
	session, err := h.accounts.Register(c.Request.Context(), reqArgs.Email, reqArgs.Password, confirm)
	if err != nil {
		return nil, NewApiError(backend.Message(err))
	}
	return gin.H{"message": services.RegisteredMessage, "session": session}, nil
}

func (h *JsonApiHandler) signOut(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	_ = args
	if err := h.accounts.Logout(c.Request.Context(), middleware.AccessToken(c)); err != nil {
		utils.Logger.WithError(err).Warn("JSON API sign-out failed")
		return nil, NewApiError("Sign-out failed")
	}
	return true, nil
}

func (h *JsonApiHandler) currentUser(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	_ = args
	return middleware.CurrentUser(c), nil
}

// createProperty lists a property without an image; images go through the upload page.
func (h *JsonApiHandler) createProperty(c *gin.Context, args json.RawMessage) (interface{}, *ApiError) {
	form := services.NewUploadForm()
	if apiErr := h.parseRequiredSingleArgFromArray(args, &form); apiErr != nil {
		return nil, apiErr
	}
	property, err := h.properties.Create(c.Request.Context(), form, nil)
	if err != nil {
		return nil, NewApiError(backend.Message(err))
	}
	return property, nil
}
