package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrubNested(t *testing.T) {
	in := map[string]any{
		"username": "admin",
		"Password": "s3cret",
		"server_config": map[string]any{
			"server_base_url": "https://example.com",
			"retries":         3,
		},
		"auth_config": map[string]any{"method": "bearer_token"},
		"items": []any{
			map[string]any{"name": "a", "X-Api-Key": "k"},
			"plain",
		},
		"headers": map[string]string{"Cookie": "sid=1", "Accept": "json"},
	}

	out := Scrub(in).(map[string]any)

	assert.Equal(t, "admin", out["username"])
	assert.Equal(t, ScrubMask, out["Password"])
	assert.Equal(t, ScrubMask, out["auth_config"])
	assert.Equal(t, map[string]any{"server_base_url": "https://example.com", "retries": 3}, out["server_config"])

	items := out["items"].([]any)
	assert.Equal(t, map[string]any{"name": "a", "X-Api-Key": ScrubMask}, items[0])
	assert.Equal(t, "plain", items[1])

	assert.Equal(t, map[string]string{"Cookie": ScrubMask, "Accept": "json"}, out["headers"])

	// the input is left untouched
	assert.Equal(t, "s3cret", in["Password"])
}

func TestScrubScalars(t *testing.T) {
	assert.Equal(t, "x", Scrub("x"))
	assert.Equal(t, 3, Scrub(3))
	assert.Nil(t, Scrub(nil))
}

func TestIsSensitiveKey(t *testing.T) {
	for _, k := range []string{"BK_APP_SECRET", "bearer_token", "ACCESS_TOKEN", "credentials", "passwd"} {
		assert.True(t, IsSensitiveKey(k), k)
	}
	for _, k := range []string{"username", "email", "phone"} {
		assert.False(t, IsSensitiveKey(k), k)
	}
}
