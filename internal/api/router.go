package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Akxssh/property-salahe/internal/api/handlers"
	"github.com/Akxssh/property-salahe/internal/api/middleware"
	"github.com/Akxssh/property-salahe/internal/api/templates"
	"github.com/Akxssh/property-salahe/internal/config"
	"github.com/Akxssh/property-salahe/internal/services"
	"github.com/Akxssh/property-salahe/internal/utils"
)

// SetupRouter configures and returns the main Gin engine: the server-rendered pages
// plus the /v1 JSON surface.
func SetupRouter(cfg *config.Config, properties services.IPropertyService, accounts services.IAccountService) (*gin.Engine, *middleware.RateLimiterMiddleware) {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.SetHTMLTemplate(templates.Must())

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Order matters: the rate limiter reads the user resolved by the session.
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middleware.SessionMiddleware(accounts, cfg.SessionCookieName))

	r.StaticFS("/static", http.FS(templates.Static()))

	pageExploreHandler := handlers.NewPageExploreHandler(properties, cfg.AppName)
	pageAuthHandler := handlers.NewPageAuthHandler(accounts, cfg)
	pageUploadHandler := handlers.NewPageUploadHandler(properties, cfg)
	restPropertyHandler := handlers.NewRestPropertyHandler(properties)
	jsonApiHandler := handlers.NewJsonApiHandler(accounts, properties)

	// Pages
	r.GET("/", pageExploreHandler.Home)
	r.GET("/explore", pageExploreHandler.Explore)

	authPages := r.Group("/auth")
	{
		authPages.GET("/login", pageAuthHandler.LoginForm)
		authPages.POST("/login", rateLimiter.Limit(), pageAuthHandler.Login)
		authPages.POST("/logout", pageAuthHandler.Logout)
	}

	uploadPages := r.Group("/upload")
	uploadPages.Use(middleware.RequireUserRedirect("/auth/login"))
	{
		uploadPages.GET("", pageUploadHandler.UploadForm)
		uploadPages.POST("", rateLimiter.Limit(), pageUploadHandler.Upload)
		uploadPages.POST("/preview", pageUploadHandler.Preview)
	}

	v1 := r.Group("/v1")
	{
		v1.POST("/api", rateLimiter.Limit(), jsonApiHandler.HandleRequest)

		v1.GET("/properties", restPropertyHandler.ListProperties)
		v1.GET("/explore", restPropertyHandler.GetExplore)
		v1.POST("/explore", restPropertyHandler.PostExplore)

		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})
	}

	return r, rateLimiter
}

// SetupServiceRouter configures and returns the service Gin engine.
func SetupServiceRouter(shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			utils.Logger.Info("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				utils.Logger.Info("Shutdown signal sent successfully.")
			default:
				utils.Logger.Warn("Shutdown channel already signaled or blocked.")
			}
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
