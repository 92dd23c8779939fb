package workflow

// Mapping resolves "documentType:direction" keys to workflow state codes.
// Document types without an entry produce no workflow state.
type Mapping map[string]string

// MappingKey builds the lookup key for a document type and direction.
func MappingKey(documentType, direction string) string {
	return documentType + ":" + direction
}

// Shipping-instruction documents are ambiguous by type alone: a carrier
// sending one back is confirming receipt, anyone else is drafting.
const (
	StateSIDraftReceived = "si_draft_received"
	StateSISubmitted     = "si_submitted"
)

// ShippingInstructionState disambiguates SI document types by sender
// identity. The second return is false for non-SI document types, which
// resolve through the mapping table instead.
func ShippingInstructionState(documentType string, senderIsCarrier bool) (string, bool) {
	switch documentType {
	case "si_draft", "si_confirmation":
	default:
		return "", false
	}
	if senderIsCarrier {
		return StateSISubmitted, true
	}
	return StateSIDraftReceived, true
}
