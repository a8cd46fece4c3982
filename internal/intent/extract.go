package intent

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object found in response")

// routerPayload is the shape the classifier is instructed to return. The
// model is not trusted: every field is revalidated after decoding.
type routerPayload struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Entities   map[string]any `json:"entities"`
}

// ExtractJSONObject returns the first well-formed JSON object embedded in s,
// tolerating surrounding prose and markdown fences. It is a pure function
// with no side effects.
func ExtractJSONObject(s string) (string, error) {
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(s[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			// Decode succeeds for any JSON value; only objects qualify.
			if len(raw) > 0 && raw[0] == '{' {
				return string(raw), nil
			}
		}
	}
	return "", errNoJSONObject
}

// decodeRouterPayload parses classifier output into a routerPayload.
func decodeRouterPayload(response string) (*routerPayload, error) {
	obj, err := ExtractJSONObject(response)
	if err != nil {
		return nil, err
	}
	var payload routerPayload
	if err := json.Unmarshal([]byte(obj), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// stringEntities keeps only the entity values that are plain strings; the
// model occasionally nests objects or numbers where strings belong.
func stringEntities(raw map[string]any) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out[k] = s
		}
	}
	return out
}
