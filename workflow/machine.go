package workflow

import "fmt"

// ValidateTransition checks whether a shipment may move from one state to
// another. An empty from means the shipment has no workflow state yet; the
// only valid first target is the entry state.
//
// Forward rules: the target's order must strictly exceed the source's, and
// the target must either appear in the source's next-state list or every
// state strictly between the two orders must be optional.
func (s *StateSet) ValidateTransition(from, to string) error {
	target, ok := s.Get(to)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, to)
	}

	if from == "" {
		if entry := s.Entry(); to != entry.Code {
			return fmt.Errorf("%w: expected %q, got %q", ErrNotEntryState, entry.Code, to)
		}
		return nil
	}

	source, ok := s.Get(from)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownState, from)
	}
	if source.Terminal {
		return fmt.Errorf("%w: %q", ErrTerminalState, from)
	}
	if target.Order <= source.Order {
		return fmt.Errorf("%w: %q (order %d) to %q (order %d)",
			ErrBackwardTransition, from, source.Order, to, target.Order)
	}

	for _, next := range source.NextStates {
		if next == to {
			return nil
		}
	}

	for _, between := range s.states {
		if between.Order <= source.Order {
			continue
		}
		if between.Order >= target.Order {
			break
		}
		if !between.Optional {
			return fmt.Errorf("%w: %q (order %d) between %q and %q",
				ErrSkippedRequiredState, between.Code, between.Order, from, to)
		}
	}

	return nil
}

// Progress reports a shipment's completion percentage for a state code:
// linear interpolation of the state's order between the minimum and
// maximum defined orders, clamped to [0,100]. Terminal states always
// report 100. An unknown or empty code reports 0.
func (s *StateSet) Progress(code string) int {
	def, ok := s.Get(code)
	if !ok {
		return 0
	}
	if def.Terminal {
		return 100
	}
	if s.maxOrder == s.minOrder {
		return 100
	}

	pct := (def.Order - s.minOrder) * 100 / (s.maxOrder - s.minOrder)
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// NextForward returns the nearest state past currentOrder whose document
// type set contains documentType. Used when the mapping table has no entry
// for a document but the state table still names its type.
func (s *StateSet) NextForward(currentOrder int, documentType string) (StateDefinition, bool) {
	for _, def := range s.CandidateStates(documentType) {
		if def.Order > currentOrder {
			return def, true
		}
	}
	return StateDefinition{}, false
}
