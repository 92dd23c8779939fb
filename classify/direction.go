package classify

import (
	"regexp"
	"strings"
)

var replyPrefix = regexp.MustCompile(`(?i)^\s*(RE|FW|FWD)\s*:`)

// IsThreadReply reports whether the subject carries a reply/forward prefix.
// Thread-reply subjects are inherited and stale, so the orchestrator treats
// them as untrusted for subject-based signals.
func IsThreadReply(subject string) bool {
	return replyPrefix.MatchString(subject)
}

// stripReplyPrefix removes leading RE:/FW:/FWD: prefixes, repeatedly, so
// relay override patterns see the carrier's original template subject.
func stripReplyPrefix(subject string) string {
	for {
		stripped := replyPrefix.ReplaceAllString(subject, "")
		stripped = strings.TrimSpace(stripped)
		if stripped == subject {
			return stripped
		}
		subject = stripped
	}
}

// DetectDirection classifies a sender address (plus optional subject) as
// inbound or outbound.
//
// The ordering is load-bearing: the carrier-domain check must precede the
// internal-domain check because some ingestion rows carry a carrier's true
// originating address even when routed through an internal relay field.
func (p *PatternSet) DetectDirection(sender, subject string) Direction {
	if strings.TrimSpace(sender) == "" {
		return DirectionInbound
	}

	if p.CarrierByAddress(sender) != nil {
		return DirectionInbound
	}

	// mailing-list forward idiom: "Maersk Notifications via Ops <...>"
	if display := displayName(sender); strings.Contains(strings.ToLower(display), " via ") {
		return DirectionInbound
	}

	if p.internalDomains[addressDomain(sender)] {
		addr := strings.ToLower(extractAddress(sender))
		if p.relaySenders[addr] {
			template := stripReplyPrefix(subject)
			for i := range p.relayOverrides {
				if p.relayOverrides[i].Matches(template) {
					return DirectionInbound
				}
			}
		}
		return DirectionOutbound
	}

	return DirectionInbound
}

func displayName(sender string) string {
	if open := strings.LastIndex(sender, "<"); open > 0 {
		return strings.TrimSpace(sender[:open])
	}
	return ""
}
