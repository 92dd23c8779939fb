// Package workflow defines the shipment lifecycle state machine: ordered
// state definitions grouped into phases, the document-to-state mapping,
// and pure transition validation. It holds no persistence; the shipments
// system layers storage, caching, and audit logging on top.
package workflow

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

//go:embed states.json
var defaultStates []byte

// Phase groups workflow states into coarse lifecycle stages. Phases are
// ordered; a state's order must never decrease across a phase boundary.
type Phase string

const (
	PhasePreShipment Phase = "pre_shipment"
	PhaseInTransit   Phase = "in_transit"
	PhaseArrival     Phase = "arrival"
	PhaseDelivery    Phase = "delivery"
)

var phaseRank = map[Phase]int{
	PhasePreShipment: 0,
	PhaseInTransit:   1,
	PhaseArrival:     2,
	PhaseDelivery:    3,
}

// Rank returns the phase's position in lifecycle order, or -1 for an
// unknown phase.
func (p Phase) Rank() int {
	if r, ok := phaseRank[p]; ok {
		return r
	}
	return -1
}

// StateDefinition describes one point in the shipment lifecycle.
//
// Order imposes a strict total order over all states. Optional states may
// be skipped without violating forward-only progression. Terminal states
// accept no outgoing transitions and always report 100% progress.
type StateDefinition struct {
	Code          string   `json:"code"`
	Label         string   `json:"label"`
	Phase         Phase    `json:"phase"`
	Order         int      `json:"order"`
	DocumentTypes []string `json:"document_types"`
	Direction     string   `json:"direction"`
	Optional      bool     `json:"optional,omitempty"`
	Milestone     bool     `json:"milestone,omitempty"`
	Terminal      bool     `json:"terminal,omitempty"`
	NextStates    []string `json:"next_states,omitempty"`
}

// StateSet is a validated, order-sorted collection of state definitions
// plus the document-to-state mapping.
type StateSet struct {
	version  string
	states   []StateDefinition
	byCode   map[string]int
	mapping  Mapping
	minOrder int
	maxOrder int
}

type stateFile struct {
	Version          string            `json:"version"`
	States           []StateDefinition `json:"states"`
	DocumentMappings Mapping           `json:"document_mappings"`
}

// Load parses the embedded default state table.
func Load() (*StateSet, error) {
	var file stateFile
	if err := json.Unmarshal(defaultStates, &file); err != nil {
		return nil, fmt.Errorf("parse embedded workflow states: %w", err)
	}

	set, err := New(file.States, file.DocumentMappings)
	if err != nil {
		return nil, err
	}
	set.version = file.Version
	return set, nil
}

// New builds a StateSet from explicit definitions, validating code
// uniqueness, order uniqueness, and phase monotonicity. Used when state
// definitions come from the database instead of the embedded defaults.
func New(defs []StateDefinition, mapping Mapping) (*StateSet, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("workflow state table is empty")
	}

	states := make([]StateDefinition, len(defs))
	copy(states, defs)
	sort.SliceStable(states, func(i, j int) bool {
		return states[i].Order < states[j].Order
	})

	byCode := make(map[string]int, len(states))
	for i, s := range states {
		if s.Code == "" {
			return nil, fmt.Errorf("workflow state at order %d has no code", s.Order)
		}
		if _, dup := byCode[s.Code]; dup {
			return nil, fmt.Errorf("duplicate workflow state %q", s.Code)
		}
		if s.Phase.Rank() < 0 {
			return nil, fmt.Errorf("workflow state %q has unknown phase %q", s.Code, s.Phase)
		}
		if i > 0 {
			prev := states[i-1]
			if s.Order == prev.Order {
				return nil, fmt.Errorf("workflow states %q and %q share order %d", prev.Code, s.Code, s.Order)
			}
			if s.Phase.Rank() < prev.Phase.Rank() {
				return nil, fmt.Errorf("workflow state %q regresses phase after %q", s.Code, prev.Code)
			}
		}
		byCode[s.Code] = i
	}

	for _, s := range states {
		for _, next := range s.NextStates {
			if _, ok := byCode[next]; !ok {
				return nil, fmt.Errorf("workflow state %q references unknown next state %q", s.Code, next)
			}
		}
	}

	if mapping == nil {
		mapping = Mapping{}
	}
	for key, code := range mapping {
		if _, ok := byCode[code]; !ok {
			return nil, fmt.Errorf("document mapping %q targets unknown state %q", key, code)
		}
	}

	return &StateSet{
		states:   states,
		byCode:   byCode,
		mapping:  mapping,
		minOrder: states[0].Order,
		maxOrder: states[len(states)-1].Order,
	}, nil
}

// Version reports the version tag of the embedded table, empty for sets
// built from explicit definitions.
func (s *StateSet) Version() string {
	return s.version
}

// Get returns the definition for a state code.
func (s *StateSet) Get(code string) (StateDefinition, bool) {
	i, ok := s.byCode[code]
	if !ok {
		return StateDefinition{}, false
	}
	return s.states[i], true
}

// States returns all definitions in ascending order.
func (s *StateSet) States() []StateDefinition {
	out := make([]StateDefinition, len(s.states))
	copy(out, s.states)
	return out
}

// Entry returns the lowest-order state, the only valid target for a
// shipment with no workflow state.
func (s *StateSet) Entry() StateDefinition {
	return s.states[0]
}

// IsTerminal reports whether code names a terminal state. Unknown codes
// are not terminal.
func (s *StateSet) IsTerminal(code string) bool {
	def, ok := s.Get(code)
	return ok && def.Terminal
}

// Mapping returns the document-to-state mapping table.
func (s *StateSet) Mapping() Mapping {
	return s.mapping
}

// StateFor resolves (documentType, direction) to a workflow state code via
// the mapping table. An exact directional key is tried first, then the
// direction-agnostic "any" key.
func (s *StateSet) StateFor(documentType, direction string) (string, bool) {
	if code, ok := s.mapping[MappingKey(documentType, direction)]; ok {
		return code, true
	}
	if code, ok := s.mapping[MappingKey(documentType, "any")]; ok {
		return code, true
	}
	return "", false
}

// CandidateStates returns every state whose document type set contains
// documentType, ascending by order.
func (s *StateSet) CandidateStates(documentType string) []StateDefinition {
	var out []StateDefinition
	for _, def := range s.states {
		for _, dt := range def.DocumentTypes {
			if strings.EqualFold(dt, documentType) {
				out = append(out, def)
				break
			}
		}
	}
	return out
}
