// Package plugins decodes data source plugin configuration into the variant
// selected by the plugin id.
package plugins

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/models/shared"
	"github.com/identity-tenancy-api/internal/plugins/general"
	"github.com/identity-tenancy-api/internal/plugins/local"
	"github.com/identity-tenancy-api/internal/utils"
)

// Decode parses raw into the config type of pluginID and validates it.
func Decode(pluginID shared.PluginID, raw []byte) (models.PluginConfig, error) {
	var cfg models.PluginConfig
	switch pluginID {
	case shared.PluginLocal:
		cfg = &local.Config{}
	case shared.PluginGeneral:
		cfg = &general.Config{}
	default:
		return nil, fmt.Errorf("unsupported plugin %q", pluginID)
	}

	if len(raw) > 0 {
		if err := json.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s plugin config: %w", pluginID, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, models.NewValidationError("plugin_config", err.Error(), err)
	}
	return cfg, nil
}

// Encode serializes cfg for storage.
func Encode(cfg models.PluginConfig) ([]byte, error) {
	if cfg == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s plugin config: %w", cfg.PluginID(), err)
	}
	return data, nil
}

// sensitiveFields lists dotted paths holding secrets, per plugin.
var sensitiveFields = map[shared.PluginID][]string{
	shared.PluginLocal:   {"password_initial.fixed_password"},
	shared.PluginGeneral: {"auth_config.bearer_token", "auth_config.password"},
}

// Masked returns cfg as a generic document with its secrets replaced.
func Masked(cfg models.PluginConfig) (map[string]any, error) {
	data, err := Encode(cfg)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode plugin config: %w", err)
	}
	if cfg == nil {
		return doc, nil
	}
	for _, path := range sensitiveFields[cfg.PluginID()] {
		maskPath(doc, strings.Split(path, "."))
	}
	return doc, nil
}

func maskPath(doc map[string]any, path []string) {
	v, ok := doc[path[0]]
	if !ok {
		return
	}
	if len(path) == 1 {
		if s, isStr := v.(string); isStr && s == "" {
			return
		}
		doc[path[0]] = utils.ScrubMask
		return
	}
	if child, isMap := v.(map[string]any); isMap {
		maskPath(child, path[1:])
	}
}
