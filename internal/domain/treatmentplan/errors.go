package treatmentplan

import "errors"

var (
	ErrPlanNotFound    = errors.New("treatment plan not found")
	ErrActionNotFound  = errors.New("plan action not found")
	ErrPlanOnHold      = errors.New("plan is on hold")
	ErrPlanNotOnHold   = errors.New("plan is not on hold")
	ErrPlanTerminal    = errors.New("plan is completed or cancelled")
	ErrPlanNotTerminal = errors.New("plan is still open")
	ErrActionCompleted = errors.New("action already completed")
	ErrActionRemoved   = errors.New("action has been removed")
)
