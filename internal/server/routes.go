package server

import (
	"net/http"

	"github.com/carlmjohnson/versioninfo"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// unhealthy after this many poll intervals without an inverter sample
const healthyIntervals = 3

func (s *Server) RegisterRoutes() http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	if s.httpLog {
		e.Use(middleware.Logger())
	}
	e.Use(middleware.Recover())

	e.GET("/healthcheck", s.HealthCheckHandler)
	e.GET("/version", s.VersionHandler)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	return e
}

func (s *Server) HealthCheckHandler(c echo.Context) error {
	if s.healthy() {
		return c.String(http.StatusOK, "health_check: OK")
	}
	return c.String(http.StatusServiceUnavailable, "health_check: FAIL")
}

func (s *Server) VersionHandler(c echo.Context) error {
	return c.String(http.StatusOK, versioninfo.Short())
}

func (s *Server) healthy() bool {
	if s.health == nil {
		return false
	}
	last := s.health.Health().LastInverterWrite
	if last.IsZero() {
		return false
	}
	return s.now().Sub(last) < healthyIntervals*s.health.Interval()
}
