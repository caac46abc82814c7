package app

import (
	"errors"

	"dont-get-fat/internal/imagegen"
	"dont-get-fat/internal/llm"
	"dont-get-fat/internal/planner"
	"dont-get-fat/internal/preferences"
)

// UserMessage renders err as the text shown next to the failed operation.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, preferences.ErrNoProfile):
		return preferences.NoProfileMessage
	case errors.Is(err, ErrMissingData):
		return ErrMissingData.Error()
	case errors.Is(err, planner.ErrNoPlan):
		return "There is no meal plan yet. Generate one first."
	case errors.Is(err, planner.ErrNothingToRegenerate):
		return "Could not identify valid meals to replace from keys."
	case errors.Is(err, planner.ErrStalePlan):
		return "The meal plan changed while new meals were being generated. Please select the meals again."
	case errors.Is(err, llm.ErrUnauthorized):
		return "Invalid OpenAI API key or access denied."
	case errors.Is(err, llm.ErrNotConfigured):
		return "Meal generation is not configured."
	case errors.Is(err, imagegen.ErrNotConfigured):
		return imagegen.ErrNotConfigured.Error()
	}
	return err.Error()
}
