package extract

import "regexp"

// carrierBoost is the confidence bump for carrier-specific identifier
// patterns over generic ones.
const carrierBoost = 5

type identifierPattern struct {
	re         *regexp.Regexp
	confidence int
	carrierID  string
}

// Carrier-specific booking number shapes, preferred over the generic
// keyword-anchored pattern when the carrier context matches.
var bookingPatterns = []identifierPattern{
	{regexp.MustCompile(`\b(\d{9})\b`), 80, "maersk"},
	{regexp.MustCompile(`\b(EBKG\d{8})\b`), 90, "msc"},
	{regexp.MustCompile(`\b(CMD\d{9,10})\b`), 88, "cma-cgm"},
	{regexp.MustCompile(`\b(\d{8})\b`), 78, "hapag"},
	{regexp.MustCompile(`\b([A-Z]{3}[A-Z0-9]\d{8})\b`), 82, "one"},
}

var genericBooking = regexp.MustCompile(`(?i)booking\s*(?:no|number|ref(?:erence)?)?\s*[:#]?\s*([A-Z0-9][A-Z0-9-]{5,16})\b`)

// bolPrefixes are SCAC-style BL prefixes per carrier.
var bolPatterns = []identifierPattern{
	{regexp.MustCompile(`\b(MAEU\d{9})\b`), 92, "maersk"},
	{regexp.MustCompile(`\b(MEDU[A-Z0-9]{8,9})\b`), 92, "msc"},
	{regexp.MustCompile(`\b(CMDU[A-Z0-9]{9})\b`), 92, "cma-cgm"},
	{regexp.MustCompile(`\b(HLCU[A-Z0-9]{10})\b`), 92, "hapag"},
	{regexp.MustCompile(`\b(ONEY[A-Z0-9]{10,12})\b`), 92, "one"},
	{regexp.MustCompile(`\b(EGLV\d{12})\b`), 92, "evergreen"},
	{regexp.MustCompile(`\b(COSU\d{10})\b`), 92, "cosco"},
	{regexp.MustCompile(`\b(ZIMU[A-Z0-9]{9,12})\b`), 92, "zim"},
}

var genericBOL = regexp.MustCompile(`(?i)\b(?:b/?l|bill of lading)\s*(?:no|number)?\s*[:#]?\s*([A-Z]{4}[A-Z0-9]{6,12})\b`)

// CBP entry numbers: 3-char filer code, 8 digits, check digit
// (formatted XXX-NNNNNNN-N or bare).
var entryNumber = regexp.MustCompile(`\b([A-Z0-9]{3}-\d{7}-\d|\b[A-Z0-9]{3}\d{8})\b`)

// ExtractBookingNumbers returns booking numbers found in text. When
// carrierID is set, that carrier's shape patterns run first with a
// confidence boost; the generic keyword-anchored pattern always runs.
func ExtractBookingNumbers(text, carrierID string) []Entity {
	var out []Entity

	if carrierID != "" {
		for _, p := range bookingPatterns {
			if p.carrierID != carrierID {
				continue
			}
			for _, m := range p.re.FindAllStringSubmatch(text, -1) {
				out = append(out, Entity{
					Type:       EntityBookingNumber,
					Value:      m[1],
					Confidence: p.confidence + carrierBoost,
					CarrierID:  carrierID,
				})
			}
		}
	}

	for _, m := range genericBooking.FindAllStringSubmatch(text, -1) {
		out = append(out, Entity{
			Type:       EntityBookingNumber,
			Value:      m[1],
			Confidence: 75,
			CarrierID:  carrierID,
		})
	}

	return out
}

// ExtractBLNumbers returns bill-of-lading numbers. Carrier SCAC-prefixed
// shapes are matched for every carrier regardless of context (the prefix
// itself is unambiguous); the context carrier's hits get the boost.
func ExtractBLNumbers(text, carrierID string) []Entity {
	var out []Entity

	for _, p := range bolPatterns {
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			conf := p.confidence
			if p.carrierID == carrierID {
				conf += carrierBoost
			}
			out = append(out, Entity{
				Type:       EntityBLNumber,
				Value:      m[1],
				Confidence: conf,
				CarrierID:  p.carrierID,
			})
		}
	}

	for _, m := range genericBOL.FindAllStringSubmatch(text, -1) {
		out = append(out, Entity{
			Type:       EntityBLNumber,
			Value:      m[1],
			Confidence: 72,
			CarrierID:  carrierID,
		})
	}

	return out
}

// ExtractEntryNumbers returns US customs entry numbers (CBP 7501 format).
func ExtractEntryNumbers(text string) []Entity {
	var out []Entity
	for _, m := range entryNumber.FindAllStringSubmatch(text, -1) {
		out = append(out, Entity{
			Type:       EntityEntryNumber,
			Value:      m[1],
			Confidence: 80,
		})
	}
	return out
}
