package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	apperrors "ninjserv/pkg/errors"
)

var testSchema = Schema{
	Name: "player_fact",
	Fields: map[string]FieldKind{
		"fact":             KindString,
		"confidence_score": KindNumber,
		"tags":             KindStringList,
	},
}

type testResult struct {
	Fact            string   `json:"fact"`
	ConfidenceScore float64  `json:"confidence_score"`
	Tags            []string `json:"tags"`
}

func TestDecodeAgainstSchema(t *testing.T) {
	var out testResult
	raw := `{"fact": "Did you know?", "confidence_score": 0.9, "tags": ["gaming", "raids"]}`

	err := decodeAgainstSchema(raw, testSchema, &out)
	assert.NoError(t, err)
	assert.Equal(t, "Did you know?", out.Fact)
	assert.InDelta(t, 0.9, out.ConfidenceScore, 1e-9)
	assert.Equal(t, []string{"gaming", "raids"}, out.Tags)
}

func TestDecodeAgainstSchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "a plain sentence"},
		{"missing field", `{"fact": "x", "tags": []}`},
		{"wrong string type", `{"fact": 42, "confidence_score": 0.9, "tags": []}`},
		{"wrong number type", `{"fact": "x", "confidence_score": "high", "tags": []}`},
		{"wrong list type", `{"fact": "x", "confidence_score": 0.9, "tags": "gaming"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out testResult
			err := decodeAgainstSchema(tt.raw, testSchema, &out)
			assert.Error(t, err)
			assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypeSchema))
		})
	}
}

func TestDecodeAgainstSchemaToleratesExtraFields(t *testing.T) {
	var out testResult
	raw := `{"fact": "x", "confidence_score": 1, "tags": [], "extra": true}`
	assert.NoError(t, decodeAgainstSchema(raw, testSchema, &out))
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"a": 1}`, `{"a": 1}`},
		{"json fence", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"plain fence", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  {\"a\": 1}\n", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripCodeFence(tt.in))
		})
	}
}

func TestSchemaInstructionNamesEveryField(t *testing.T) {
	instruction := schemaInstruction(testSchema)
	assert.Contains(t, instruction, `"fact"`)
	assert.Contains(t, instruction, `"confidence_score"`)
	assert.Contains(t, instruction, `"tags"`)
	assert.Contains(t, instruction, "array of strings")
}
