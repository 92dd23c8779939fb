package extract

import (
	"regexp"
	"strings"
)

var (
	portLabel = regexp.MustCompile(`(?i)\b(?:port of (loading|discharge|receipt|delivery)|POL|POD|place of (receipt|delivery))\s*[:#]?\s*([A-Z][A-Za-z .,'-]{2,40}?)(?:[,;\n\r]|$)`)

	// UN/LOCODE: 2-letter country + 3-char location (INNSA, USLAX)
	locode = regexp.MustCompile(`\b([A-Z]{2}[A-Z2-9]{3})\b`)

	knownLocodes = map[string]bool{
		"INNSA": true, "INMUN": true, "INMAA": true, "INBOM": true,
		"USLAX": true, "USLGB": true, "USNYC": true, "USSAV": true,
		"USHOU": true, "USOAK": true, "USSEA": true, "USCHS": true,
		"NLRTM": true, "DEHAM": true, "BEANR": true, "GBFXT": true,
		"SGSIN": true, "CNSHA": true, "CNNGB": true, "CNSZX": true,
		"KRPUS": true, "JPTYO": true, "AEJEA": true, "LKCMB": true,
	}

	vesselVoyage = regexp.MustCompile(`(?i)\b(?:vessel|m/?v)\s*[:#]?\s*([A-Z][A-Za-z0-9 .'-]{2,40}?)\s*(?:[,;/]|\bvoy(?:age)?)\s*[:#.]?\s*(\d{2,4}[A-Z]{0,2})\b`)

	voyageOnly = regexp.MustCompile(`(?i)\bvoy(?:age)?\s*(?:no)?\s*[:#.]?\s*(\d{2,4}[A-Z]{0,2})\b`)
)

// ExtractPorts returns labeled port names and recognized UN/LOCODE codes.
// Bare five-letter tokens are only accepted when they appear in the known
// LOCODE list; the shape alone collides with too many ordinary words.
func ExtractPorts(text string) []Entity {
	var out []Entity

	for _, m := range portLabel.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[3])
		if name == "" {
			continue
		}
		out = append(out, Entity{
			Type:       EntityPort,
			Value:      name,
			Label:      portRole(m[0]),
			Confidence: 85,
		})
	}

	for _, m := range locode.FindAllStringSubmatch(text, -1) {
		if !knownLocodes[m[1]] {
			continue
		}
		out = append(out, Entity{
			Type:       EntityPort,
			Value:      m[1],
			Confidence: 80,
		})
	}

	return out
}

func portRole(label string) string {
	lowered := strings.ToLower(label)
	switch {
	case strings.Contains(lowered, "loading"), strings.HasPrefix(lowered, "pol"):
		return "port_of_loading"
	case strings.Contains(lowered, "discharge"), strings.HasPrefix(lowered, "pod"):
		return "port_of_discharge"
	case strings.Contains(lowered, "receipt"):
		return "place_of_receipt"
	case strings.Contains(lowered, "delivery"):
		return "place_of_delivery"
	}
	return ""
}

// ExtractVesselVoyage returns vessel names and voyage numbers. The paired
// "VESSEL X VOY 123E" form is preferred; a standalone voyage pattern
// catches the label-only idiom.
func ExtractVesselVoyage(text string) []Entity {
	var out []Entity

	for _, m := range vesselVoyage.FindAllStringSubmatch(text, -1) {
		out = append(out,
			Entity{Type: EntityVessel, Value: strings.TrimSpace(m[1]), Confidence: 88},
			Entity{Type: EntityVoyage, Value: m[2], Confidence: 88},
		)
	}

	if len(out) == 0 {
		for _, m := range voyageOnly.FindAllStringSubmatch(text, -1) {
			out = append(out, Entity{Type: EntityVoyage, Value: m[1], Confidence: 75})
		}
	}

	return out
}
