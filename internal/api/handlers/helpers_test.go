package handlers_test

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"

	"github.com/Akxssh/property-salahe/internal/api/middleware"
	"github.com/Akxssh/property-salahe/internal/api/templates"
	"github.com/Akxssh/property-salahe/internal/config"
	"github.com/Akxssh/property-salahe/internal/models"
)

const testToken = "user-token"

func testConfig() *config.Config {
	return &config.Config{
		AppName:           "TestApp",
		SessionCookieName: "ps_session",
		JwtTTL:            time.Hour,
		UploadMaxSizeMB:   1,
	}
}

// newTestEngine wires the session middleware with accounts, recognising testToken
// as a signed-in user.
func newTestEngine(accounts *MockAccountService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	accounts.On("CurrentUser", mock.Anything, testToken).Return(&models.User{ID: "u1", Email: "agent@example.com"}, nil).Maybe()
	r := gin.New()
	r.SetHTMLTemplate(templates.Must())
	r.Use(middleware.SessionMiddleware(accounts, "ps_session"))
	return r
}

func str(s string) *string   { return &s }
func num(n float64) *float64 { return &n }
func flag(b bool) *bool      { return &b }

func sampleProperties() []models.Property {
	return []models.Property{
		{ID: "3", Title: "Lake House", Location: str("Pune"), Price: num(9000000), Beds: num(3), FinanceType: str("Loan"), Trending: flag(true), CreatedAt: str("2024-05-03T10:00:00Z")},
		{ID: "2", Title: "City Flat", Location: str("Mumbai"), Price: num(15000000), Beds: num(2), FinanceType: str("Cash"), NewListing: flag(true), CreatedAt: str("2024-05-02T10:00:00Z")},
		{ID: "1", Title: "Garden Villa", Location: str("Pune"), Name: str("Green Acres"), Price: num(25000000), Beds: num(4), CreatedAt: str("2024-05-01T10:00:00Z")},
	}
}
