package getsafe

import "encoding/json"

// String returns payload[key] as text. Absent and null keys yield fallback;
// non-string values are rendered as their JSON encoding.
func String(payload map[string]any, key string, fallback string) string {
	v, ok := payload[key]
	if !ok || v == nil {
		return fallback
	}

	if s, ok := v.(string); ok {
		return s
	}

	bs, err := json.Marshal(v)
	if err != nil {
		return fallback
	}

	return string(bs)
}
