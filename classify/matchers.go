package classify

import (
	"fmt"
	"strings"
)

// Signal source tags stamped on match candidates.
const (
	SourceAttachment      = "attachment"
	SourceBody            = "body"
	SourceContent         = "content"
	SourceCarrierSubject  = "carrier_subject"
	SourceSubject         = "subject"
	SourceInternalSubject = "internal_subject"
	SourcePartnerSubject  = "partner_subject"
)

// optionalBoost is the per-term confidence boost for optional content
// marker terms; boostCap bounds the total boost and confidenceCap bounds
// the final content-marker confidence.
const (
	optionalBoost = 2
	boostCap      = 8
	confidenceCap = 99
)

// AttachmentMatcher tests every attachment filename against the attachment
// pattern table and keeps the highest-priority match across all filenames.
type AttachmentMatcher struct {
	patterns *PatternSet
}

// Match implements SignalMatcher.
func (m *AttachmentMatcher) Match(in *Input) (*MatchCandidate, bool) {
	var best *Rule
	var bestFile string

	for _, name := range in.AttachmentFilenames {
		for i := range m.patterns.attachment {
			r := &m.patterns.attachment[i]
			if !r.Matches(name) {
				continue
			}
			if best == nil || r.Priority > best.Priority {
				best = r
				bestFile = name
			}
		}
	}

	if best == nil {
		return nil, false
	}

	return &MatchCandidate{
		DocumentType: best.Type,
		Confidence:   defaultConfidence(best.Confidence, 100),
		Priority:     best.Priority,
		Pattern:      best.Pattern,
		Source:       SourceAttachment,
		Reason:       fmt.Sprintf("attachment %q matched %q", bestFile, best.Pattern),
	}, true
}

// BodyMatcher tests free-text body phrases against the body indicator table.
type BodyMatcher struct {
	patterns *PatternSet
}

// Match implements SignalMatcher.
func (m *BodyMatcher) Match(in *Input) (*MatchCandidate, bool) {
	if in.BodyText == "" {
		return nil, false
	}

	best := bestMatch(m.patterns.body, in.BodyText)
	if best == nil {
		return nil, false
	}

	return &MatchCandidate{
		DocumentType: best.Type,
		Confidence:   defaultConfidence(best.Confidence, 90),
		Priority:     best.Priority,
		Pattern:      best.Pattern,
		Source:       SourceBody,
		Reason:       fmt.Sprintf("body indicator matched %q", best.Pattern),
	}, true
}

// ContentMatcher evaluates document-type marker groups against extracted
// PDF text. A rule matches only when every required term is present and no
// exclude term is; each optional term found adds a small capped boost.
type ContentMatcher struct {
	patterns *PatternSet
}

// Match implements SignalMatcher.
func (m *ContentMatcher) Match(in *Input) (*MatchCandidate, bool) {
	if in.AttachmentContent == "" {
		return nil, false
	}

	text := strings.ToLower(in.AttachmentContent)

	var best *MatchCandidate
	for gi := range m.patterns.markers {
		group := &m.patterns.markers[gi]
		conf, ok := scoreMarkerGroup(group, text)
		if !ok {
			continue
		}
		if best == nil || conf > best.Confidence {
			best = &MatchCandidate{
				DocumentType: group.Type,
				Confidence:   conf,
				Priority:     conf,
				Pattern:      group.Type,
				Source:       SourceContent,
				Reason:       fmt.Sprintf("content markers matched %s", group.Type),
			}
		}
	}

	if best == nil {
		return nil, false
	}
	return best, true
}

func scoreMarkerGroup(group *MarkerGroup, text string) (int, bool) {
	bestConf := 0
	matched := false

rules:
	for _, rule := range group.Rules {
		for _, term := range rule.Required {
			if !strings.Contains(text, term) {
				continue rules
			}
		}
		for _, term := range rule.Exclude {
			if strings.Contains(text, term) {
				continue rules
			}
		}

		boost := 0
		for _, term := range rule.Optional {
			if strings.Contains(text, term) {
				boost += optionalBoost
			}
		}
		if boost > boostCap {
			boost = boostCap
		}

		conf := rule.Confidence + boost
		if conf > confidenceCap {
			conf = confidenceCap
		}
		if conf > bestConf {
			bestConf = conf
			matched = true
		}
	}

	return bestConf, matched
}

// CarrierMatcher applies the sender carrier's subject rules in priority
// order. Rules gated on PDF presence or a content-marker hit are skipped
// when the gate fails, falling through to the next-priority rule.
type CarrierMatcher struct {
	patterns *PatternSet
}

// Match implements SignalMatcher.
func (m *CarrierMatcher) Match(in *Input) (*MatchCandidate, bool) {
	carrier := m.patterns.CarrierByAddress(in.Sender())
	if carrier == nil {
		return nil, false
	}

	rules := m.patterns.carrierRules[carrier.ID]
	hasPDF := hasPDFAttachment(in)

	for i := range rules {
		r := &rules[i]
		if !r.re.MatchString(in.Subject) {
			continue
		}
		if r.RequiresPDF && !hasPDF {
			continue
		}
		if r.ContentMarker != "" && !m.markerMatches(r.ContentMarker, in.AttachmentContent) {
			continue
		}

		return &MatchCandidate{
			DocumentType: r.Type,
			CarrierID:    carrier.ID,
			Confidence:   defaultConfidence(r.Confidence, 85),
			Priority:     r.Priority,
			Pattern:      r.Pattern,
			Source:       SourceCarrierSubject,
			Reason:       fmt.Sprintf("%s subject rule matched %q", carrier.Name, r.Pattern),
		}, true
	}

	return nil, false
}

func (m *CarrierMatcher) markerMatches(markerType, content string) bool {
	if content == "" {
		return false
	}
	text := strings.ToLower(content)
	for i := range m.patterns.markers {
		if m.patterns.markers[i].Type != markerType {
			continue
		}
		_, ok := scoreMarkerGroup(&m.patterns.markers[i], text)
		return ok
	}
	return false
}

// SubjectMatcher tests the subject against one of the subject pattern
// tables. The orchestrator instantiates it over the curated global table
// and, direction-gated, over the internal-team or partner tables.
type SubjectMatcher struct {
	rules  []Rule
	source string
}

// Match implements SignalMatcher.
func (m *SubjectMatcher) Match(in *Input) (*MatchCandidate, bool) {
	best := bestMatch(m.rules, in.Subject)
	if best == nil {
		return nil, false
	}

	return &MatchCandidate{
		DocumentType: best.Type,
		Confidence:   defaultConfidence(best.Confidence, 85),
		Priority:     best.Priority,
		Pattern:      best.Pattern,
		Source:       m.source,
		Reason:       fmt.Sprintf("subject matched %q", best.Pattern),
	}, true
}

func hasPDFAttachment(in *Input) bool {
	for _, name := range in.AttachmentFilenames {
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			return true
		}
	}
	// extracted text implies a PDF attachment even when filenames were
	// not carried through ingestion
	return in.HasAttachments && in.AttachmentContent != ""
}

func defaultConfidence(conf, fallback int) int {
	if conf > 0 {
		return conf
	}
	return fallback
}
