// Package server exposes the aggregation pipeline over HTTP.
package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"grocery-deals/services"
	"grocery-deals/utils"
)

// Server wraps the echo instance and its dependencies.
type Server struct {
	echo   *echo.Echo
	deals  *services.DealService
	logger *utils.Logger
}

// New builds the HTTP server: CORS-open, GET/OPTIONS only.
func New(deals *services.DealService, logger *utils.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	s := &Server{echo: e, deals: deals, logger: logger}

	e.GET("/api/deals", s.handleDeals)
	e.GET("/healthz", s.handleHealth)

	return s
}

// handleDeals serves the canonical deal list for a postal code, from cache
// when fresh.
func (s *Server) handleDeals(c echo.Context) error {
	postalCode := c.QueryParam("postalCode")
	if strings.TrimSpace(postalCode) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "postalCode query parameter is required",
		})
	}

	result, err := s.deals.GetOrRefresh(c.Request().Context(), postalCode)
	if err != nil {
		s.logger.Error("[server] Aggregation for %q failed: %v", postalCode, err)
		return c.JSON(http.StatusInternalServerError, map[string]string{
			"error": "deal aggregation failed",
		})
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Handler exposes the underlying handler for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
