package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mealsEnvelope struct {
	Meals []struct {
		Name string `json:"name"`
	} `json:"meals"`
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"Plain", `{"meals":[{"name":"Soup"}]}`},
		{"Fenced", "```json\n{\"meals\":[{\"name\":\"Soup\"}]}\n```"},
		{"SurroundingText", "Here you go:\n{\"meals\":[{\"name\":\"Soup\"}]}\nEnjoy!"},
		{"BracesInStrings", `{"meals":[{"name":"Soup"}],"note":"use {fresh} herbs \"}\""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON[mealsEnvelope](tt.raw)
			require.NoError(t, err)
			require.Len(t, got.Meals, 1)
			assert.Equal(t, "Soup", got.Meals[0].Name)
		})
	}
}

func TestExtractJSONInvalid(t *testing.T) {
	for _, raw := range []string{"", "no json here", `{"meals": [`, `{"meals": "nope"}`} {
		_, err := ExtractJSON[mealsEnvelope](raw)
		assert.ErrorIs(t, err, ErrInvalidOutput, "input %q", raw)
	}
}
