package api

import (
	"github.com/lodestarfreight/mailroom/internal/classifications"
	"github.com/lodestarfreight/mailroom/internal/emails"
	"github.com/lodestarfreight/mailroom/internal/shipments"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Emails          emails.System
	Classifications classifications.System
	Shipments       shipments.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime) *Domain {
	emailSystem := emails.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	classificationSystem := classifications.New(
		runtime.Database.Connection(),
		runtime.Engine,
		runtime.Extractor,
		runtime.Storage,
		emailSystem,
		runtime.Logger,
		runtime.Pagination,
	)

	shipmentSystem := shipments.New(
		runtime.Database.Connection(),
		runtime.Patterns,
		emailSystem,
		runtime.StateCacheTTL,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Emails:          emailSystem,
		Classifications: classificationSystem,
		Shipments:       shipmentSystem,
	}
}
