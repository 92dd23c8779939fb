package api

import (
	"github.com/lodestarfreight/mailroom/internal/config"
	"github.com/lodestarfreight/mailroom/pkg/openapi"
)

// BuildSpec constructs the OpenAPI document describing the API module's
// routes. Served as JSON by the server and rendered by the Scalar UI.
func BuildSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI.Title, cfg.Version)
	spec.SetDescription(cfg.API.OpenAPI.Description)
	spec.AddServer(cfg.API.BasePath)

	spec.Components.AddSchemas(map[string]*openapi.Schema{
		"Email": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                   {Type: "string", Format: "uuid"},
				"subject":              {Type: "string"},
				"sender_email":         {Type: "string"},
				"true_sender_email":    {Type: "string"},
				"body_text":            {Type: "string"},
				"has_attachments":      {Type: "boolean"},
				"attachment_filenames": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"attachment_key":       {Type: "string"},
				"received_at":          {Type: "string", Format: "date-time"},
				"created_at":           {Type: "string", Format: "date-time"},
			},
		},
		"CreateEmail": {
			Type:     "object",
			Required: []string{"subject", "sender_email"},
			Properties: map[string]*openapi.Schema{
				"subject":              {Type: "string"},
				"sender_email":         {Type: "string"},
				"true_sender_email":    {Type: "string"},
				"body_text":            {Type: "string"},
				"attachment_filenames": {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"received_at":          {Type: "string", Format: "date-time"},
			},
		},
		"Classification": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                  {Type: "string", Format: "uuid"},
				"email_id":            {Type: "string", Format: "uuid"},
				"document_type":       {Type: "string", Example: "booking_confirmation"},
				"sub_type":            {Type: "string"},
				"carrier_id":          {Type: "string", Example: "maersk"},
				"confidence":          {Type: "integer", Minimum: floatPtr(0), Maximum: floatPtr(100)},
				"method":              {Type: "string", Enum: []any{"subject_pattern", "attachment_pattern", "sender_pattern", "body_keyword", "ai", "fallback"}},
				"matched_pattern":     {Type: "string"},
				"direction":           {Type: "string", Enum: []any{"inbound", "outbound", "internal", "unknown"}},
				"workflow_state":      {Type: "string"},
				"needs_manual_review": {Type: "boolean"},
				"reason":              {Type: "string"},
				"entities":            {Type: "array", Items: openapi.SchemaRef("Entity")},
				"quality_score":       {Type: "integer"},
				"classified_at":       {Type: "string", Format: "date-time"},
			},
		},
		"Entity": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"type":  {Type: "string", Example: "container_number"},
				"value": {Type: "string", Example: "MSKU1234565"},
			},
		},
		"Shipment": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":             {Type: "string", Format: "uuid"},
				"reference":      {Type: "string", Example: "LSF-2026-00042"},
				"booking_number": {Type: "string"},
				"bl_number":      {Type: "string"},
				"carrier_id":     {Type: "string"},
				"workflow_state": {Type: "string", Example: "sob_confirmed"},
				"workflow_phase": {Type: "string", Enum: []any{"pre_shipment", "in_transit", "arrival", "delivery"}},
				"created_at":     {Type: "string", Format: "date-time"},
				"updated_at":     {Type: "string", Format: "date-time"},
			},
		},
		"CreateShipment": {
			Type:     "object",
			Required: []string{"reference"},
			Properties: map[string]*openapi.Schema{
				"reference":      {Type: "string"},
				"booking_number": {Type: "string"},
				"bl_number":      {Type: "string"},
				"carrier_id":     {Type: "string"},
			},
		},
		"TransitionCommand": {
			Type:     "object",
			Required: []string{"target_state"},
			Properties: map[string]*openapi.Schema{
				"target_state":    {Type: "string", Example: "si_submitted"},
				"skip_validation": {Type: "boolean"},
			},
		},
		"TransitionResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"success":    {Type: "boolean"},
				"skipped":    {Type: "boolean"},
				"error":      {Type: "string"},
				"from_state": {Type: "string"},
				"to_state":   {Type: "string"},
				"shipment":   openapi.SchemaRef("Shipment"),
			},
		},
		"DocumentCommand": {
			Type:     "object",
			Required: []string{"document_type", "email_id"},
			Properties: map[string]*openapi.Schema{
				"document_type": {Type: "string", Example: "arrival_notice"},
				"email_id":      {Type: "string", Format: "uuid"},
			},
		},
		"ShipmentStatus": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"shipment_id":    {Type: "string", Format: "uuid"},
				"workflow_state": {Type: "string"},
				"workflow_phase": {Type: "string"},
				"progress":       {Type: "integer", Minimum: floatPtr(0), Maximum: floatPtr(100)},
				"is_complete":    {Type: "boolean"},
			},
		},
		"ExtractRequest": {
			Type:     "object",
			Required: []string{"subject"},
			Properties: map[string]*openapi.Schema{
				"subject":       {Type: "string"},
				"body":          {Type: "string"},
				"document_type": {Type: "string", Description: "When set, a completeness score is computed for this type"},
			},
		},
	})

	addEmailPaths(spec)
	addClassificationPaths(spec)
	addShipmentPaths(spec)
	addExtractPaths(spec)

	return spec
}

func addEmailPaths(spec *openapi.Spec) {
	spec.Paths["/emails"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List emails",
			Tags:    []string{"emails"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("sender_email", "string", "Filter by envelope sender", false),
				openapi.QueryParam("has_attachments", "boolean", "Filter by attachment presence", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated emails", "Email"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Register an email",
			Tags:        []string{"emails"},
			RequestBody: openapi.RequestBodyJSON("CreateEmail", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created email", "Email"),
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
	spec.Paths["/emails/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find an email",
			Tags:       []string{"emails"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Email ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Email", "Email"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
		Delete: &openapi.Operation{
			Summary:    "Delete an email",
			Tags:       []string{"emails"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Email ID")},
			Responses: map[int]*openapi.Response{
				204: {Description: "Deleted"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/emails/{id}/attachment"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Upload an attachment",
			Description: "Multipart upload. The file is stored in blob storage and registered on the email.",
			Tags:        []string{"emails"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Email ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Updated email", "Email"),
				400: openapi.ResponseRef("BadRequest"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
}

func addClassificationPaths(spec *openapi.Spec) {
	spec.Paths["/classifications"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List classifications",
			Tags:    []string{"classifications"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("document_type", "string", "Filter by document type", false),
				openapi.QueryParam("carrier_id", "string", "Filter by carrier", false),
				openapi.QueryParam("needs_manual_review", "boolean", "Filter by review flag", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated classifications", "Classification"),
			},
		},
	}
	spec.Paths["/classifications/{emailId}"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Classify an email",
			Description: "Runs the full classification pipeline and replaces any prior result for the email.",
			Tags:        []string{"classifications"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("emailId", "Email ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Classification result", "Classification"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/classifications/email/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find classification by email",
			Tags:       []string{"classifications"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Email ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Classification", "Classification"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/classifications/batch"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Classify a batch of emails",
			Description: "Classifies each email concurrently. Per-email failures are reported inline.",
			Tags:        []string{"classifications"},
			Responses: map[int]*openapi.Response{
				200: {Description: "Batch results"},
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
}

func addShipmentPaths(spec *openapi.Spec) {
	spec.Paths["/shipments"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "List shipments",
			Tags:    []string{"shipments"},
			Parameters: []*openapi.Parameter{
				openapi.QueryParam("workflow_state", "string", "Filter by workflow state", false),
				openapi.QueryParam("carrier_id", "string", "Filter by carrier", false),
			},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Paginated shipments", "Shipment"),
			},
		},
		Post: &openapi.Operation{
			Summary:     "Open a shipment file",
			Tags:        []string{"shipments"},
			RequestBody: openapi.RequestBodyJSON("CreateShipment", true),
			Responses: map[int]*openapi.Response{
				201: openapi.ResponseJSON("Created shipment", "Shipment"),
				400: openapi.ResponseRef("BadRequest"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
	spec.Paths["/shipments/{id}"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Find a shipment",
			Tags:       []string{"shipments"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Shipment ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Shipment", "Shipment"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/shipments/{id}/status"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Workflow position",
			Tags:       []string{"shipments"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Shipment ID")},
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Status", "ShipmentStatus"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/shipments/{id}/transition"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Transition workflow state",
			Description: "Forward-only. An invalid transition returns an unsuccessful result rather than an error; set skip_validation to override.",
			Tags:        []string{"shipments"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Shipment ID")},
			RequestBody: openapi.RequestBodyJSON("TransitionCommand", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Transition result", "TransitionResult"),
				404: openapi.ResponseRef("NotFound"),
				409: openapi.ResponseRef("Conflict"),
			},
		},
	}
	spec.Paths["/shipments/{id}/documents"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Apply a classified document",
			Description: "Derives the target state from the document type and sender direction, then advances the shipment if the result moves it forward.",
			Tags:        []string{"shipments"},
			Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Shipment ID")},
			RequestBody: openapi.RequestBodyJSON("DocumentCommand", true),
			Responses: map[int]*openapi.Response{
				200: openapi.ResponseJSON("Transition result", "TransitionResult"),
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/shipments/{id}/transitions"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary:    "Transition history",
			Tags:       []string{"shipments"},
			Parameters: []*openapi.Parameter{openapi.PathParam("id", "Shipment ID")},
			Responses: map[int]*openapi.Response{
				200: {Description: "Audit log entries, oldest first"},
				404: openapi.ResponseRef("NotFound"),
			},
		},
	}
	spec.Paths["/workflow/states"] = &openapi.PathItem{
		Get: &openapi.Operation{
			Summary: "Workflow state definitions",
			Tags:    []string{"shipments"},
			Responses: map[int]*openapi.Response{
				200: {Description: "Active state definitions in order"},
			},
		},
	}
}

func addExtractPaths(spec *openapi.Spec) {
	spec.Paths["/extract"] = &openapi.PathItem{
		Post: &openapi.Operation{
			Summary:     "Extract entities from text",
			Description: "Stateless. Nothing is persisted.",
			Tags:        []string{"extract"},
			RequestBody: openapi.RequestBodyJSON("ExtractRequest", true),
			Responses: map[int]*openapi.Response{
				200: {Description: "Extracted entities, detected carrier, and optional quality score"},
				400: openapi.ResponseRef("BadRequest"),
			},
		},
	}
}

func floatPtr(v float64) *float64 { return &v }
