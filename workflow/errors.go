package workflow

import "errors"

var (
	ErrUnknownState         = errors.New("unknown workflow state")
	ErrTerminalState        = errors.New("terminal state has no outgoing transitions")
	ErrBackwardTransition   = errors.New("transition moves backward in workflow order")
	ErrSkippedRequiredState = errors.New("transition skips a required intermediate state")
	ErrNotEntryState        = errors.New("first transition must target the workflow entry state")
)
