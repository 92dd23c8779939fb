// Package extract implements regex-based entity extraction for shipping
// identifiers, dates, cutoffs, ports, and vessel/voyage from email text and
// extracted PDF content. Extraction is carrier-context-aware: the carrier
// is detected first, and carrier-specific identifier patterns are preferred
// over generic ones.
package extract

import "strings"

// EntityType tags an extracted value.
type EntityType string

// Extracted entity types.
const (
	EntityBookingNumber   EntityType = "booking_number"
	EntityContainerNumber EntityType = "container_number"
	EntityBLNumber        EntityType = "bl_number"
	EntityEntryNumber     EntityType = "entry_number"
	EntityETD             EntityType = "etd"
	EntityETA             EntityType = "eta"
	EntityCutoff          EntityType = "cutoff"
	EntityPort            EntityType = "port"
	EntityVessel          EntityType = "vessel"
	EntityVoyage          EntityType = "voyage"
)

// Entity is one extracted value with its confidence and provenance.
type Entity struct {
	Type       EntityType `json:"type"`
	Value      string     `json:"value"`
	Label      string     `json:"label,omitempty"`
	Confidence int        `json:"confidence"`
	CarrierID  string     `json:"carrier_id,omitempty"`
}

// Extract runs every extractor over subject and body text and returns the
// deduplicated entity set. The carrier is detected once and shared by all
// carrier-aware extractors.
func Extract(subject, body string) []Entity {
	text := subject + "\n" + body
	carrierID := DetectCarrier(text)

	var entities []Entity
	entities = append(entities, ExtractBookingNumbers(text, carrierID)...)
	entities = append(entities, ExtractContainerNumbers(text)...)
	entities = append(entities, ExtractBLNumbers(text, carrierID)...)
	entities = append(entities, ExtractEntryNumbers(text)...)
	entities = append(entities, ExtractDates(text)...)
	entities = append(entities, ExtractCutoffs(text)...)
	entities = append(entities, ExtractPorts(text)...)
	entities = append(entities, ExtractVesselVoyage(text)...)

	return Dedupe(entities)
}

// Dedupe keeps the highest-confidence extraction per (type, value) key.
// Relative order of surviving entities follows first occurrence.
func Dedupe(entities []Entity) []Entity {
	type key struct {
		t EntityType
		v string
	}

	index := make(map[key]int)
	out := make([]Entity, 0, len(entities))

	for _, e := range entities {
		k := key{e.Type, normalizeValue(e.Value)}
		if i, ok := index[k]; ok {
			if e.Confidence > out[i].Confidence {
				out[i] = e
			}
			continue
		}
		index[k] = len(out)
		out = append(out, e)
	}

	return out
}

func normalizeValue(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}
