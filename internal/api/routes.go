package api

import (
	"net/http"

	"github.com/lodestarfreight/mailroom/internal/config"
	"github.com/lodestarfreight/mailroom/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	shipmentHandler := domain.Shipments.Handler()

	routes.Register(
		mux,
		domain.Emails.Handler(cfg.API.MaxUploadSizeBytes()).Routes(),
		domain.Classifications.Handler().Routes(),
		shipmentHandler.Routes(),
		shipmentHandler.WorkflowRoutes(),
		newExtractHandler(runtime, runtime.Logger).routes(),
		newStorageHandler(
			runtime.Storage,
			runtime.Logger,
			cfg.Storage.MaxListSize,
		).routes(),
	)
}
