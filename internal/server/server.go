package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/berfenger/solaredge2influx/internal/config"
	"github.com/berfenger/solaredge2influx/internal/core/service"
)

// HealthSource reports the poll loop progress.
type HealthSource interface {
	Health() service.Health
	Interval() time.Duration
}

type Server struct {
	port    uint
	httpLog bool
	health  HealthSource
	metrics http.Handler
	now     func() time.Time
}

func NewServer(cfg config.Config, health HealthSource, metrics http.Handler) *http.Server {
	NewServer := &Server{
		port:    cfg.HTTP.Port,
		httpLog: cfg.HttpLog,
		health:  health,
		metrics: metrics,
		now:     time.Now,
	}

	// Declare Server config
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", NewServer.port),
		Handler:      NewServer.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}
