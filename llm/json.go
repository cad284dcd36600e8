package llm

import (
	"encoding/json"
	"strings"

	"github.com/gianmatteo-arcana/engine-lever-sub006/errors"
)

// MarshalSchema renders a schema map as indented JSON for prompt embedding.
func MarshalSchema(schema map[string]interface{}) string {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// DecodeJSON parses a model response that was asked for FormatJSON.
// Models wrap JSON in markdown fences or leading prose often enough that
// this tolerates both; anything else is an LLM_RESPONSE error the caller
// may retry, never a panic.
func DecodeJSON(content string, v interface{}) error {
	trimmed := stripFences(content)

	// Fall back to the outermost braces when prose surrounds the object.
	if !strings.HasPrefix(trimmed, "{") {
		start := strings.Index(trimmed, "{")
		end := strings.LastIndex(trimmed, "}")
		if start == -1 || end <= start {
			return errors.LLMResponse("response contains no JSON object")
		}
		trimmed = trimmed[start : end+1]
	}

	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		return errors.WrapWithCode(err, errors.ErrCodeLLMResponse, "response is not valid JSON")
	}
	return nil
}

// stripFences removes a surrounding markdown code fence, if present.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
