package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

var validate = validator.New()

// Validate checks a struct against its `validate` tags. Used on parsed LLM
// JSON payloads before they are trusted.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// GenerateSchema reflects a JSON schema for the given struct, suitable for
// providers with structured-output support.
func GenerateSchema(v any) (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(v)

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("failed to rebuild schema: %w", err)
	}
	return out, nil
}

// appendSchemaHint embeds the schema in the prompt for providers without a
// structured-output mode.
func appendSchemaHint(prompt string, schema any) string {
	schemaJSON, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return prompt
	}
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\nRespond with JSON matching this schema:\n")
	sb.Write(schemaJSON)
	return sb.String()
}

// CleanJSONResponse strips markdown fences and leading prose from a model
// response expected to contain a JSON object.
func CleanJSONResponse(response string) string {
	response = strings.TrimPrefix(strings.TrimSpace(response), "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(strings.TrimSpace(response), "```")
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, "{") {
		return response
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start != -1 && end != -1 && end > start {
		return response[start : end+1]
	}
	return response
}
