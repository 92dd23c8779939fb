package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/lodestarfreight/mailroom/internal/api"
	"github.com/lodestarfreight/mailroom/internal/config"
	"github.com/lodestarfreight/mailroom/internal/infrastructure"
	"github.com/lodestarfreight/mailroom/pkg/middleware"
	"github.com/lodestarfreight/mailroom/pkg/module"
	"github.com/lodestarfreight/mailroom/pkg/openapi"
	"github.com/lodestarfreight/mailroom/web/scalar"
)

const specPath = "/openapi.json"

type Modules struct {
	API    *module.Module
	Scalar *module.Module

	spec []byte
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(cfg, infra)
	if err != nil {
		return nil, err
	}

	spec, err := openapi.MarshalJSON(api.BuildSpec(cfg))
	if err != nil {
		return nil, fmt.Errorf("marshal openapi spec: %w", err)
	}

	scalarModule := scalar.NewModule("/scalar", specPath)
	scalarModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API:    apiModule,
		Scalar: scalarModule,
		spec:   spec,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Scalar)
	router.HandleNative("GET "+specPath, openapi.ServeSpec(m.spec))
}

func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !infra.Lifecycle.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not ready"})
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	})

	return router
}
