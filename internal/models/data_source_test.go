package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDataSourceUserExtra(t *testing.T) {
	u := &DataSourceUser{Extras: map[string]any{
		"nickname": "ls",
		"level":    float64(3),
		"ratio":    0.5,
		"active":   true,
		"retired":  false,
		"tags":     []any{"a", "it's", float64(2), true},
		"address":  map[string]any{"city": "SZ", "zip": float64(518000)},
		"unset":    nil,
	}}

	tests := []struct {
		field, want string
		ok          bool
	}{
		{"nickname", "ls", true},
		{"level", "3", true},
		{"ratio", "0.5", true},
		{"active", "True", true},
		{"retired", "False", true},
		{"tags", `['a', 'it\'s', 2, True]`, true},
		{"address", "{'city': 'SZ', 'zip': 518000}", true},
		{"unset", "", false},
		{"missing", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := u.Extra(tt.field)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
