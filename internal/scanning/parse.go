package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rowsPayload is the JSON shape we ask every model for
type rowsPayload struct {
	Rows []RawLineItem `json:"rows"`
}

// parseLineItemJSON parses the JSON response from an LLM provider.
// Models routinely wrap their output in markdown fences or surround it with
// prose despite the prompt, so the first {...} span is sliced out before
// unmarshaling. A response that decodes but carries no "rows" key yields an
// empty slice, not an error.
func parseLineItemJSON(text string) ([]RawLineItem, error) {
	text = strings.TrimSpace(text)

	// Remove markdown code blocks if present
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	// Find the JSON object boundaries - look for first { and last }
	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}

	text = text[startIdx : endIdx+1]

	var payload rowsPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	if payload.Rows == nil {
		return []RawLineItem{}, nil
	}
	return payload.Rows, nil
}
