package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// jsonObjectRe greedily matches the first '{' through the last '}' so that
// a JSON object survives being wrapped in prose on either side.
var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// FirstJSONObject locates and parses the first JSON object embedded in a
// model answer. Models routinely wrap their JSON in Markdown fences or
// explanatory prose even when told not to, so the raw text is cleaned
// before the regex runs. Returns ok=false when nothing parseable is found;
// it never returns an error because every caller has a fallback record.
func FirstJSONObject(raw string) (map[string]interface{}, bool) {
	candidate := jsonObjectRe.FindString(stripFences(raw))
	if candidate == "" {
		return nil, false
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(candidate), &parsed); err != nil {
		return nil, false
	}
	return parsed, true
}

// stripFences removes ```json ... ``` wrappers the model adds despite
// instructions to return raw JSON.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)

		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
	}

	return strings.TrimSpace(s)
}

// stringField returns the first non-empty string value among the given
// keys. Model output alternates between Portuguese and English field names
// depending on how much of the prompt it respected.
func stringField(m map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// numberField returns the first value among the given keys that can be
// read as a number, tolerating numbers that arrived as locale-formatted
// strings ("45,50").
func numberField(m map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		v, ok := m[key]
		if !ok || v == nil {
			continue
		}
		if f, ok := coerceNumber(v); ok {
			return f, true
		}
	}
	return 0, false
}

func boolField(m map[string]interface{}, keys ...string) (bool, bool) {
	for _, key := range keys {
		if v, ok := m[key]; ok {
			if b, ok := v.(bool); ok {
				return b, true
			}
		}
	}
	return false, false
}
