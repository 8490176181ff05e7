package llm

import (
	"encoding/json"
	"log"
	"strings"
)

// ExtractJSON pulls the JSON payload out of a raw model response,
// stripping markdown code fences and any prose around the payload.
func ExtractJSON(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	// Strip markdown code fences
	if strings.HasPrefix(text, "```") {
		lines := strings.Split(text, "\n")
		endIdx := len(lines) - 1
		for i := len(lines) - 1; i > 0; i-- {
			if strings.TrimSpace(lines[i]) == "```" {
				endIdx = i
				break
			}
		}
		text = strings.TrimSpace(strings.Join(lines[1:endIdx], "\n"))
	}

	// Trim leading/trailing prose around the first JSON value.
	lines := strings.Split(text, "\n")
	start, end := -1, -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if start == -1 && (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) {
			start = i
		}
		if strings.HasSuffix(trimmed, "}") || strings.HasSuffix(trimmed, "]") {
			end = i
		}
	}
	if start == -1 || end < start {
		return text
	}
	return strings.TrimSpace(strings.Join(lines[start:end+1], "\n"))
}

// ParseObject parses an LLM response as a JSON object, or nil if the
// response cannot be parsed.
func ParseObject(text string) map[string]any {
	payload := ExtractJSON(text)
	if payload == "" {
		return nil
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		log.Printf("Failed to parse LLM response as JSON object: %v", err)
		return nil
	}
	return result
}

// ParseArray parses an LLM response as a JSON array, or nil if the
// response cannot be parsed.
func ParseArray(text string) []any {
	payload := ExtractJSON(text)
	if payload == "" {
		return nil
	}

	var result []any
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		log.Printf("Failed to parse LLM response as JSON array: %v", err)
		return nil
	}
	return result
}
