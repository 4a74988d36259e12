package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Akxssh/property-salahe/internal/api/middleware"
	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/config"
	"github.com/Akxssh/property-salahe/internal/models"
	"github.com/Akxssh/property-salahe/internal/services"
	"github.com/Akxssh/property-salahe/internal/utils"
)

const (
	ModeLogin    = "login"
	ModeRegister = "register"
)

// LoginForm is the body of POST /auth/login.
type LoginForm struct {
	Mode            string `form:"mode"`
	Email           string `form:"email"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirm_password"`
}

// PageAuthHandler renders the sign-in page and manages the session cookie.
type PageAuthHandler struct {
	svc services.IAccountService
	cfg *config.Config
}

// NewPageAuthHandler creates a new PageAuthHandler.
func NewPageAuthHandler(svc services.IAccountService, cfg *config.Config) *PageAuthHandler {
	return &PageAuthHandler{svc: svc, cfg: cfg}
}

func parseMode(raw string) string {
	if raw == ModeRegister {
		return ModeRegister
	}
	return ModeLogin
}

// LoginForm handles GET /auth/login. Signed-in users are sent home.
func (h *PageAuthHandler) LoginForm(c *gin.Context) {
	if middleware.CurrentUser(c) != nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "login", LoginView{
		Page: newPage(c, h.cfg.AppName, "Sign in"),
		Mode: parseMode(c.Query("mode")),
	})
}

// Login handles POST /auth/login for both modes.
func (h *PageAuthHandler) Login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		c.HTML(http.StatusBadRequest, "login", LoginView{
			Page:  newPage(c, h.cfg.AppName, "Sign in"),
			Mode:  ModeLogin,
			Error: "Invalid request format",
		})
		return
	}
	mode := parseMode(form.Mode)
	view := LoginView{
		Page:  newPage(c, h.cfg.AppName, "Sign in"),
		Mode:  mode,
		Email: form.Email,
	}
	ctx := c.Request.Context()

	if mode == ModeRegister {
		if _, err := h.svc.Register(ctx, form.Email, form.Password, form.ConfirmPassword); err != nil {
			view.Error = backend.Message(err)
			c.HTML(formErrorStatus(err), "login", view)
			return
		}
		// The new account signs in from the login form.
		view.Mode = ModeLogin
		view.Success = services.RegisteredMessage
		c.HTML(http.StatusOK, "login", view)
		return
	}

	session, err := h.svc.Login(ctx, form.Email, form.Password)
	if err != nil {
		view.Error = backend.Message(err)
		c.HTML(formErrorStatus(err), "login", view)
		return
	}
	h.setSessionCookie(c, session)
	c.Redirect(http.StatusSeeOther, "/")
}

// Logout handles POST /auth/logout.
func (h *PageAuthHandler) Logout(c *gin.Context) {
	if token := middleware.AccessToken(c); token != "" {
		if err := h.svc.Logout(c.Request.Context(), token); err != nil {
			utils.Logger.WithError(err).Warn("Sign-out failed; clearing cookie anyway")
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookieName, "", -1, "/", "", h.cfg.SessionCookieSecure, true)
	c.Redirect(http.StatusSeeOther, "/auth/login")
}

func (h *PageAuthHandler) setSessionCookie(c *gin.Context, session *models.Session) {
	maxAge := session.ExpiresIn
	if maxAge <= 0 {
		maxAge = int(h.cfg.JwtTTL.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cfg.SessionCookieName, session.AccessToken, maxAge, "/", "", h.cfg.SessionCookieSecure, true)
}

// formErrorStatus maps a service failure to the status of the re-rendered form.
func formErrorStatus(err error) int {
	if services.IsValidation(err) {
		return http.StatusUnprocessableEntity
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return apiErr.StatusCode
	}
	return http.StatusBadGateway
}
