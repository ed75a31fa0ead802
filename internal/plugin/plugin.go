// Package plugin defines the delivery-plugin contract and the registry the
// dispatcher resolves plugin names through. Plugins are registered from a
// static list at startup; there is no dynamic loading.
package plugin

import (
	"context"

	"github.com/alttch/roboger/pkg/models"
)

// Config is an endpoint's opaque plugin configuration. The core never
// interprets it; each plugin validates and reads its own keys.
type Config map[string]interface{}

// GetString returns a string value from the config, "" when absent or not
// a string.
func (c Config) GetString(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Sender delivers events over one transport. Implementations must be safe
// for concurrent use: Send is called from multiple pool workers at once.
type Sender interface {
	// Name is the registry key, matched against endpoint.plugin_name.
	Name() string
	// ValidateConfig rejects endpoint configs missing required keys. It
	// runs synchronously at endpoint create/update.
	ValidateConfig(cfg Config) error
	// Send delivers one event. Errors are logged by the dispatcher and
	// never retried there; any retrying happens inside the plugin.
	Send(ctx context.Context, cfg Config, event *models.EventContext) error
}
