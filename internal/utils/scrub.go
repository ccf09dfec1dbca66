package utils

import "strings"

// ScrubMask replaces sensitive values.
const ScrubMask = "******"

// DefaultScrubbedFields are matched case-insensitively as substrings of map keys.
var DefaultScrubbedFields = []string{
	"password",
	"secret",
	"passwd",
	"api_key",
	"apikey",
	"bk_token",
	"access_token",
	"auth",
	"credentials",
	"bk_app_secret",
	"cookie",
	"bearer",
}

// IsSensitiveKey reports whether key names a sensitive value.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, f := range DefaultScrubbedFields {
		if strings.Contains(k, f) {
			return true
		}
	}
	return false
}

// Scrub returns a copy of v in which the value of every sensitive map key is
// masked, at any nesting depth. Non-container values are returned unchanged.
func Scrub(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if IsSensitiveKey(k) {
				out[k] = ScrubMask
				continue
			}
			out[k] = Scrub(item)
		}
		return out
	case map[string]string:
		out := make(map[string]string, len(val))
		for k, item := range val {
			if IsSensitiveKey(k) {
				item = ScrubMask
			}
			out[k] = item
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Scrub(item)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(val))
		for i, item := range val {
			out[i] = Scrub(item).(map[string]any)
		}
		return out
	default:
		return v
	}
}
