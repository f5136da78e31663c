package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"ninjserv/pkg/errors"
	"ninjserv/pkg/logger"
)

const generateTimeout = 30 * time.Second

// FieldKind describes the expected JSON type of a schema field.
type FieldKind string

const (
	KindString     FieldKind = "string"
	KindNumber     FieldKind = "number"
	KindStringList FieldKind = "string_list"
)

// Schema names the fields a structured generation result must carry.
// Every listed field is required.
type Schema struct {
	Name   string
	Fields map[string]FieldKind
}

// GenAI handles structured generation against the OpenAI chat completions API.
type GenAI struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewGenAI creates a new generative text adapter
func NewGenAI(client *openai.Client, model string) *GenAI {
	return &GenAI{
		client: client,
		model:  model,
		logger: logger.Get(),
	}
}

// Model returns the configured model id
func (g *GenAI) Model() string {
	return g.model
}

// GenerateStructured sends the prompt, requires a JSON response, validates it
// against schema and unmarshals it into out. Transport failures are retried
// with backoff; a response that does not match the schema fails with a
// schema error after the retry budget is spent.
func (g *GenAI) GenerateStructured(ctx context.Context, prompt string, schema Schema, out any, maxTokens int, temperature float32) error {
	req := openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: schemaInstruction(schema),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	}

	maxRetries := 3
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * time.Second
			g.logger.Warn("Retrying generation request",
				zap.Int("attempt", attempt+1),
				zap.Duration("backoff", backoff),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return errors.NewGenerationFailed(g.model, attempt, ctx.Err())
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, generateTimeout)
		resp, err := g.client.CreateChatCompletion(callCtx, req)
		cancel()
		if err != nil {
			lastErr = err
			g.logger.Error("Generation request failed",
				zap.Error(err),
				zap.Int("attempt", attempt+1),
				zap.String("model", g.model),
			)
			continue
		}

		if len(resp.Choices) == 0 {
			lastErr = errors.ErrGenerationEmpty
			continue
		}

		content := resp.Choices[0].Message.Content
		if err := decodeAgainstSchema(content, schema, out); err != nil {
			// Malformed structured output; one more attempt may produce valid JSON
			lastErr = err
			g.logger.Warn("Structured response failed schema validation",
				zap.String("schema", schema.Name),
				zap.Error(err),
			)
			continue
		}

		g.logger.Debug("Structured response generated",
			zap.String("model", g.model),
			zap.String("schema", schema.Name),
		)
		return nil
	}

	return errors.NewGenerationFailed(g.model, maxRetries, lastErr)
}

// schemaInstruction renders the system message that pins the response shape.
func schemaInstruction(schema Schema) string {
	var b strings.Builder
	b.WriteString("Respond with a single JSON object containing exactly these fields:\n")
	for name, kind := range schema.Fields {
		switch kind {
		case KindNumber:
			fmt.Fprintf(&b, "- %q: a number\n", name)
		case KindStringList:
			fmt.Fprintf(&b, "- %q: an array of strings\n", name)
		default:
			fmt.Fprintf(&b, "- %q: a string\n", name)
		}
	}
	b.WriteString("Do not include any other fields, markdown, or prose outside the JSON object.")
	return b.String()
}

// decodeAgainstSchema validates raw JSON against the schema, then unmarshals
// it into out. Absent or wrongly-typed fields fail with a schema error.
func decodeAgainstSchema(raw string, schema Schema, out any) error {
	raw = stripCodeFence(raw)

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return errors.NewSchemaMismatch(schema.Name, "", "response is not a JSON object")
	}

	for name, kind := range schema.Fields {
		rawField, ok := fields[name]
		if !ok {
			return errors.NewSchemaMismatch(schema.Name, name, "is missing")
		}
		switch kind {
		case KindString:
			var s string
			if err := json.Unmarshal(rawField, &s); err != nil {
				return errors.NewSchemaMismatch(schema.Name, name, "is not a string")
			}
		case KindNumber:
			var f float64
			if err := json.Unmarshal(rawField, &f); err != nil {
				return errors.NewSchemaMismatch(schema.Name, name, "is not a number")
			}
		case KindStringList:
			var list []string
			if err := json.Unmarshal(rawField, &list); err != nil {
				return errors.NewSchemaMismatch(schema.Name, name, "is not a string array")
			}
		}
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return errors.NewSchemaMismatch(schema.Name, "", "does not decode into result type")
	}
	return nil
}

// stripCodeFence removes a surrounding ```json fence some models emit even in
// JSON mode.
func stripCodeFence(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
