package planner

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedResponse indicates generated content that is not a usable plan or meal list.
	ErrMalformedResponse = errors.New("malformed generation response")

	// ErrMealCountMismatch indicates the regeneration returned a different number of meals than requested.
	ErrMealCountMismatch = errors.New("incorrect number of meals")

	// ErrNothingToRegenerate indicates no selected coordinate resolved against the current plan.
	ErrNothingToRegenerate = errors.New("could not identify valid meals to replace")

	// ErrNoPlan indicates regeneration was requested without a current plan.
	ErrNoPlan = errors.New("no meal plan to regenerate")

	// ErrStalePlan indicates the plan changed shape while replacements were being generated.
	ErrStalePlan = errors.New("meal plan changed while regenerating")
)

// MalformedResponseError carries the raw content that could not be used.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("invalid response received: %v. Response: %s", e.Err, e.Raw)
}

func (e *MalformedResponseError) Unwrap() []error {
	return []error{ErrMalformedResponse, e.Err}
}
