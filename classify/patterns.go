package classify

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sort"
	"strings"
)

//go:embed patterns.json
var defaultPatterns []byte

// Rule is one compiled pattern table row. Priority breaks ties when multiple
// rules in the same category match; among equal priorities the row declared
// first wins.
type Rule struct {
	Pattern    string
	Type       string
	Priority   int
	Confidence int

	re *regexp.Regexp
}

// Matches reports whether the rule's pattern matches s.
func (r *Rule) Matches(s string) bool {
	return r.re.MatchString(s)
}

// Carrier identifies a shipping line by its sending domains and the
// keywords that reveal it inside subject or body text.
type Carrier struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Domains  []string `json:"domains"`
	Keywords []string `json:"keywords"`
}

// MarkerRule matches extracted PDF (or body) text against term lists:
// every required term must be present, any exclude term voids the rule,
// and each optional term found adds a small capped confidence boost.
type MarkerRule struct {
	Required   []string
	Optional   []string
	Exclude    []string
	Confidence int
}

// MarkerGroup is the ordered set of marker rules for one document type.
type MarkerGroup struct {
	Type  string
	Rules []MarkerRule
}

// CarrierRule is a carrier-scoped subject rule. RequiresPDF gates the rule
// on a PDF attachment being present; ContentMarker additionally requires a
// marker group match on the attachment text. When a gate fails the rule is
// skipped and the next-priority rule is tried.
type CarrierRule struct {
	Carrier       string
	Pattern       string
	Type          string
	Priority      int
	Confidence    int
	RequiresPDF   bool
	ContentMarker string

	re *regexp.Regexp
}

// PatternSet holds all compiled pattern tables for one configuration
// version. It is immutable after Load and safe for concurrent use.
type PatternSet struct {
	Version string

	internalDomains map[string]bool
	relaySenders    map[string]bool
	relayOverrides  []Rule

	carriers        []Carrier
	carrierByDomain map[string]*Carrier

	attachment      []Rule
	body            []Rule
	markers         []MarkerGroup
	carrierRules    map[string][]CarrierRule
	subject         []Rule
	internalSubject []Rule
	partnerSubject  []Rule
}

type ruleJSON struct {
	Pattern    string `json:"pattern"`
	Type       string `json:"type"`
	Priority   int    `json:"priority"`
	Confidence int    `json:"confidence"`
}

type markerRuleJSON struct {
	Required   []string `json:"required"`
	Optional   []string `json:"optional"`
	Exclude    []string `json:"exclude"`
	Confidence int      `json:"confidence"`
}

type markerGroupJSON struct {
	Type  string           `json:"type"`
	Rules []markerRuleJSON `json:"rules"`
}

type carrierRuleJSON struct {
	Carrier       string `json:"carrier"`
	Pattern       string `json:"pattern"`
	Type          string `json:"type"`
	Priority      int    `json:"priority"`
	Confidence    int    `json:"confidence"`
	RequiresPDF   bool   `json:"requires_pdf"`
	ContentMarker string `json:"content_marker"`
}

type patternFile struct {
	Version                 string            `json:"version"`
	InternalDomains         []string          `json:"internal_domains"`
	RelaySenders            []string          `json:"relay_senders"`
	RelaySubjectOverrides   []ruleJSON        `json:"relay_subject_overrides"`
	Carriers                []Carrier         `json:"carriers"`
	AttachmentPatterns      []ruleJSON        `json:"attachment_patterns"`
	BodyIndicators          []ruleJSON        `json:"body_indicators"`
	ContentMarkers          []markerGroupJSON `json:"content_markers"`
	CarrierSubjectRules     []carrierRuleJSON `json:"carrier_subject_rules"`
	SubjectPatterns         []ruleJSON        `json:"subject_patterns"`
	InternalSubjectPatterns []ruleJSON        `json:"internal_subject_patterns"`
	PartnerSubjectPatterns  []ruleJSON        `json:"partner_subject_patterns"`
}

// Load compiles the embedded default pattern configuration.
func Load(logger *slog.Logger) (*PatternSet, error) {
	return parse(defaultPatterns, logger)
}

// LoadFile compiles a pattern configuration from an external file,
// allowing carriers and document types to be added without a code change.
func LoadFile(path string, logger *slog.Logger) (*PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns: %w", err)
	}
	return parse(data, logger)
}

func parse(data []byte, logger *slog.Logger) (*PatternSet, error) {
	var f patternFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse patterns: %w", err)
	}

	if f.Version == "" {
		return nil, fmt.Errorf("patterns missing version")
	}

	p := &PatternSet{
		Version:         f.Version,
		internalDomains: toSet(f.InternalDomains),
		relaySenders:    toSet(f.RelaySenders),
		carriers:        f.Carriers,
		carrierByDomain: make(map[string]*Carrier),
		carrierRules:    make(map[string][]CarrierRule),
	}

	for i := range p.carriers {
		for _, d := range p.carriers[i].Domains {
			p.carrierByDomain[strings.ToLower(d)] = &p.carriers[i]
		}
	}

	p.relayOverrides = compileRules(f.RelaySubjectOverrides, "relay_subject_overrides", logger)
	p.attachment = compileRules(f.AttachmentPatterns, "attachment_patterns", logger)
	p.body = compileRules(f.BodyIndicators, "body_indicators", logger)
	p.subject = compileRules(f.SubjectPatterns, "subject_patterns", logger)
	p.internalSubject = compileRules(f.InternalSubjectPatterns, "internal_subject_patterns", logger)
	p.partnerSubject = compileRules(f.PartnerSubjectPatterns, "partner_subject_patterns", logger)

	for _, g := range f.ContentMarkers {
		group := MarkerGroup{Type: g.Type}
		for _, r := range g.Rules {
			group.Rules = append(group.Rules, MarkerRule{
				Required:   lowerAll(r.Required),
				Optional:   lowerAll(r.Optional),
				Exclude:    lowerAll(r.Exclude),
				Confidence: r.Confidence,
			})
		}
		p.markers = append(p.markers, group)
	}

	for _, r := range f.CarrierSubjectRules {
		re, err := regexp.Compile("(?i)" + r.Pattern)
		if err != nil {
			logger.Warn("dropping malformed pattern",
				"table", "carrier_subject_rules",
				"carrier", r.Carrier,
				"pattern", r.Pattern,
				"error", err,
			)
			continue
		}
		p.carrierRules[r.Carrier] = append(p.carrierRules[r.Carrier], CarrierRule{
			Carrier:       r.Carrier,
			Pattern:       r.Pattern,
			Type:          r.Type,
			Priority:      r.Priority,
			Confidence:    r.Confidence,
			RequiresPDF:   r.RequiresPDF,
			ContentMarker: r.ContentMarker,
			re:            re,
		})
	}

	// rules within a carrier are evaluated highest priority first;
	// SliceStable preserves declaration order among equal priorities
	for id := range p.carrierRules {
		rules := p.carrierRules[id]
		sort.SliceStable(rules, func(i, j int) bool {
			return rules[i].Priority > rules[j].Priority
		})
	}

	return p, nil
}

func compileRules(rows []ruleJSON, table string, logger *slog.Logger) []Rule {
	rules := make([]Rule, 0, len(rows))
	for _, row := range rows {
		re, err := regexp.Compile("(?i)" + row.Pattern)
		if err != nil {
			logger.Warn("dropping malformed pattern",
				"table", table,
				"pattern", row.Pattern,
				"error", err,
			)
			continue
		}
		rules = append(rules, Rule{
			Pattern:    row.Pattern,
			Type:       row.Type,
			Priority:   row.Priority,
			Confidence: row.Confidence,
			re:         re,
		})
	}
	return rules
}

// CarrierByAddress returns the carrier whose domain matches the given
// email address, or nil when the sender is not a known shipping line.
func (p *PatternSet) CarrierByAddress(addr string) *Carrier {
	domain := addressDomain(addr)
	if domain == "" {
		return nil
	}
	if c, ok := p.carrierByDomain[domain]; ok {
		return c
	}
	// match registered parent domains (notify.maersk.com -> maersk.com)
	for d, c := range p.carrierByDomain {
		if strings.HasSuffix(domain, "."+d) {
			return c
		}
	}
	return nil
}

// DetectCarrier scans subject and body text for carrier keywords and
// returns the first carrier in declaration order with a keyword hit.
func (p *PatternSet) DetectCarrier(text string) *Carrier {
	lowered := strings.ToLower(text)
	for i := range p.carriers {
		for _, kw := range p.carriers[i].Keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				return &p.carriers[i]
			}
		}
	}
	return nil
}

// bestMatch scans an ordered rule table against text and returns the
// highest-priority matching rule. Stable: equal priorities resolve to the
// earlier row.
func bestMatch(rules []Rule, text string) *Rule {
	var best *Rule
	for i := range rules {
		if !rules[i].Matches(text) {
			continue
		}
		if best == nil || rules[i].Priority > best.Priority {
			best = &rules[i]
		}
	}
	return best
}

func toSet(vals []string) map[string]bool {
	set := make(map[string]bool, len(vals))
	for _, v := range vals {
		set[strings.ToLower(strings.TrimSpace(v))] = true
	}
	return set
}

func lowerAll(vals []string) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = strings.ToLower(v)
	}
	return out
}

func addressDomain(addr string) string {
	addr = extractAddress(addr)
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return strings.ToLower(addr[i+1:])
	}
	return ""
}

// extractAddress pulls the bare address out of a display-form sender
// ("Maersk Notifications <noreply@maersk.com>").
func extractAddress(sender string) string {
	sender = strings.TrimSpace(sender)
	if open := strings.LastIndex(sender, "<"); open >= 0 {
		if close := strings.Index(sender[open:], ">"); close > 0 {
			return strings.TrimSpace(sender[open+1 : open+close])
		}
	}
	return sender
}
