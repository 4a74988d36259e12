package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Akxssh/property-salahe/internal/backend"
	"github.com/Akxssh/property-salahe/internal/models"
	"github.com/Akxssh/property-salahe/internal/services"
	"github.com/Akxssh/property-salahe/internal/utils"
)

const (
	// ContextKeyUser holds the signed-in *models.User in Gin context.
	ContextKeyUser = "user"
	// ContextKeyAccessToken holds the caller's access token in Gin context.
	ContextKeyAccessToken = "accessToken"
)

// SessionMiddleware resolves the caller from the session cookie or a Bearer token.
// Anonymous requests pass through; a token the backend rejects is treated as anonymous.
func SessionMiddleware(accounts services.IAccountService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c, cookieName)
		if token == "" {
			c.Next()
			return
		}

		user, err := accounts.CurrentUser(c.Request.Context(), token)
		if err != nil {
			utils.Logger.WithError(err).Warn("Could not resolve session; continuing as guest")
			c.Next()
			return
		}
		if user == nil {
			c.Next()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyAccessToken, token)
		// Row and object requests run as this user.
		c.Request = c.Request.WithContext(backend.WithAccessToken(c.Request.Context(), token))
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context, cookieName string) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie(cookieName); err == nil {
		return cookie
	}
	return ""
}

// CurrentUser returns the user set by SessionMiddleware, or nil for guests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextKeyUser); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// AccessToken returns the token of the signed-in caller.
func AccessToken(c *gin.Context) string {
	return c.GetString(ContextKeyAccessToken)
}

// RequireUserRedirect sends guests to path. Assumes SessionMiddleware runs first.
func RequireUserRedirect(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.Redirect(http.StatusSeeOther, path)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireUser rejects guests with 401. Assumes SessionMiddleware runs first.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization required"})
			return
		}
		c.Next()
	}
}
