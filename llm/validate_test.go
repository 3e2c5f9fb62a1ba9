package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{
			name:     "bare object",
			response: `{"score": 0.8}`,
			want:     `{"score": 0.8}`,
		},
		{
			name:     "json fence",
			response: "```json\n{\"score\": 0.8}\n```",
			want:     `{"score": 0.8}`,
		},
		{
			name:     "plain fence",
			response: "```\n{\"score\": 0.8}\n```",
			want:     `{"score": 0.8}`,
		},
		{
			name:     "leading prose",
			response: `Here is the result: {"score": 0.8} hope that helps`,
			want:     `{"score": 0.8}`,
		},
		{
			name:     "surrounding whitespace",
			response: "  \n{\"score\": 0.8}\n  ",
			want:     `{"score": 0.8}`,
		},
		{
			name:     "no object at all",
			response: "no json here",
			want:     "no json here",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSONResponse(tt.response))
		})
	}
}

type scoredPayload struct {
	Score   float64 `json:"score" validate:"gte=0,lte=1"`
	Verdict string  `json:"verdict" validate:"required"`
}

func TestValidateStruct(t *testing.T) {
	require.NoError(t, Validate(scoredPayload{Score: 0.8, Verdict: "pass"}))

	err := Validate(scoredPayload{Score: 1.5, Verdict: "pass"})
	require.Error(t, err)

	err = Validate(scoredPayload{Score: 0.5})
	require.Error(t, err)
}

func TestGenerateSchema(t *testing.T) {
	schema, err := GenerateSchema(scoredPayload{})
	require.NoError(t, err)

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "score")
	assert.Contains(t, props, "verdict")
}
