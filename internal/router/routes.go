package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/leads-extractor/internal/auth"
	"github.com/octobees/leads-extractor/internal/config"
	"github.com/octobees/leads-extractor/internal/handler"
	middlewarepkg "github.com/octobees/leads-extractor/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Search *handler.SearchHandler
	Leads  *handler.LeadsHandler
}

// Register wires all HTTP routes for the API. Search and lead routes require
// a bearer token when cfg.AuthRequired is set; admin routes always do.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	api := e.Group("")
	if cfg.AuthRequired {
		api.Use(middlewarepkg.JWT(jwtManager), middlewarepkg.RequireRole(auth.RoleClient, auth.RoleAdmin))
	}

	limiter := middlewarepkg.SearchRateLimiter(cfg.RateLimitSearch)
	api.POST("/search", handlers.Search.Search, limiter)
	api.GET("/search/stream", handlers.Search.Stream, limiter)

	if handlers.Leads != nil {
		api.GET("/leads", handlers.Leads.List)

		admin := e.Group("/admin", middlewarepkg.JWT(jwtManager), middlewarepkg.RequireRole(auth.RoleAdmin))
		admin.GET("/leads", handlers.Leads.ListAdmin)
	}
}
