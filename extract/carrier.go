package extract

import "strings"

// carrierKeywords maps carrier IDs to the keywords that reveal them in
// subject or body text. Declaration order decides ties.
var carrierKeywords = []struct {
	id       string
	keywords []string
}{
	{"maersk", []string{"maersk", "sealand"}},
	{"msc", []string{"msc ", "mediterranean shipping", "medu"}},
	{"cma-cgm", []string{"cma cgm", "cma-cgm", "cmdu"}},
	{"hapag", []string{"hapag", "hlag", "hlcu"}},
	{"one", []string{"ocean network express", "one line", "oney"}},
	{"evergreen", []string{"evergreen", "eglv"}},
	{"cosco", []string{"cosco", "cosu"}},
	{"hmm", []string{"hmm ", "hyundai merchant", "hdmu"}},
	{"yangming", []string{"yang ming", "ymlu"}},
	{"zim", []string{"zim ", "zimu"}},
}

// DetectCarrier scans text for carrier keywords and returns the first
// carrier ID in declaration order with a hit, or "" when none matches.
func DetectCarrier(text string) string {
	lowered := strings.ToLower(text)
	for _, c := range carrierKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lowered, kw) {
				return c.id
			}
		}
	}
	return ""
}
