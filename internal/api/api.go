// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/lodestarfreight/mailroom/internal/config"
	"github.com/lodestarfreight/mailroom/internal/infrastructure"
	"github.com/lodestarfreight/mailroom/pkg/middleware"
	"github.com/lodestarfreight/mailroom/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(cfg, infra)
	if err != nil {
		return nil, err
	}
	domain := NewDomain(runtime)

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	return m, nil
}
