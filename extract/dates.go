package extract

import (
	"regexp"
	"strings"
	"time"
)

// Keyword proximity windows. Carriers usually place the value after the
// label, so the after-window is searched first and is wider.
const (
	afterWindow  = 120
	beforeWindow = 80
	afterBoost   = 5
)

var datePattern = regexp.MustCompile(
	`(\d{4}-\d{2}-\d{2})` +
		`|(\d{1,2}[-/ ][A-Za-z]{3,9}[-/ ]\d{2,4})` +
		`|([A-Za-z]{3,9}\.?\s+\d{1,2},?\s+\d{4})` +
		`|(\d{1,2}/\d{1,2}/\d{2,4})`,
)

var dateLayouts = []struct {
	layout     string
	confidence int
}{
	{"2006-01-02", 95},
	{"02-Jan-2006", 92},
	{"2-Jan-2006", 92},
	{"02-Jan-06", 88},
	{"02 Jan 2006", 92},
	{"2 Jan 2006", 92},
	{"02 January 2006", 90},
	{"Jan 2, 2006", 90},
	{"Jan 2 2006", 88},
	{"January 2, 2006", 90},
	{"02/01/2006", 80},
	{"2/1/2006", 78},
	{"02/01/06", 75},
}

type dateKeyword struct {
	keyword    string
	entity     EntityType
	label      string
	confidence int
}

var dateKeywords = []dateKeyword{
	{"estimated time of departure", EntityETD, "etd", 92},
	{"etd", EntityETD, "etd", 90},
	{"sailing date", EntityETD, "etd", 85},
	{"departure date", EntityETD, "etd", 85},
	{"estimated time of arrival", EntityETA, "eta", 92},
	{"eta", EntityETA, "eta", 90},
	{"arrival date", EntityETA, "eta", 85},
}

var cutoffKeywords = []dateKeyword{
	{"si cutoff", EntityCutoff, "si_cutoff", 92},
	{"si cut-off", EntityCutoff, "si_cutoff", 92},
	{"doc cutoff", EntityCutoff, "doc_cutoff", 90},
	{"documentation cut-off", EntityCutoff, "doc_cutoff", 90},
	{"vgm cutoff", EntityCutoff, "vgm_cutoff", 92},
	{"vgm cut-off", EntityCutoff, "vgm_cutoff", 92},
	{"cy cutoff", EntityCutoff, "cy_cutoff", 90},
	{"cy cut-off", EntityCutoff, "cy_cutoff", 90},
	{"gate cutoff", EntityCutoff, "gate_cutoff", 88},
	{"gate cut-off", EntityCutoff, "gate_cutoff", 88},
	{"cargo cutoff", EntityCutoff, "cargo_cutoff", 88},
}

// ExtractDates returns ETD/ETA dates anchored on keyword proximity.
func ExtractDates(text string) []Entity {
	return extractAnchored(text, dateKeywords)
}

// ExtractCutoffs returns cutoff dates (SI, VGM, CY, gate, documentation)
// anchored on keyword proximity. The window after the keyword is searched
// first; when both windows hold a parseable date the after-side wins and
// earns a small boost. Confidence is the average of the keyword confidence
// and the date-pattern confidence.
func ExtractCutoffs(text string) []Entity {
	return extractAnchored(text, cutoffKeywords)
}

func extractAnchored(text string, keywords []dateKeyword) []Entity {
	lowered := strings.ToLower(text)

	var out []Entity
	for _, kw := range keywords {
		from := 0
		for {
			idx := strings.Index(lowered[from:], kw.keyword)
			if idx < 0 {
				break
			}
			idx += from
			from = idx + len(kw.keyword)

			if e, ok := dateNear(text, idx, idx+len(kw.keyword), kw); ok {
				out = append(out, e)
			}
		}
	}
	return out
}

func dateNear(text string, start, end int, kw dateKeyword) (Entity, bool) {
	hi := min(end+afterWindow, len(text))
	if value, conf, ok := firstDate(text[end:hi]); ok {
		return Entity{
			Type:       kw.entity,
			Value:      value,
			Label:      kw.label,
			Confidence: (kw.confidence+conf)/2 + afterBoost,
		}, true
	}

	lo := max(start-beforeWindow, 0)
	if value, conf, ok := firstDate(text[lo:start]); ok {
		return Entity{
			Type:       kw.entity,
			Value:      value,
			Label:      kw.label,
			Confidence: (kw.confidence + conf) / 2,
		}, true
	}

	return Entity{}, false
}

// firstDate finds the first parseable date in the window and returns it
// normalized to ISO form.
func firstDate(window string) (string, int, bool) {
	for _, raw := range datePattern.FindAllString(window, -1) {
		if t, conf, ok := parseDate(raw); ok {
			return t.Format("2006-01-02"), conf, true
		}
	}
	return "", 0, false
}

func parseDate(raw string) (time.Time, int, bool) {
	raw = strings.TrimSpace(raw)
	for _, l := range dateLayouts {
		if t, err := time.Parse(l.layout, raw); err == nil {
			return t, l.confidence, true
		}
	}
	return time.Time{}, 0, false
}
