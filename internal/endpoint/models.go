package endpoint

import (
	"time"

	"github.com/alttch/roboger/internal/plugin"
)

// Endpoint is a delivery target owned by an addr. Its config is opaque to
// the broker and interpreted only by the named plugin.
type Endpoint struct {
	ID          string        `json:"id"`
	AddrID      string        `json:"addr_id"`
	PluginName  string        `json:"plugin_name"`
	Config      plugin.Config `json:"config"`
	Active      bool          `json:"active"`
	Description string        `json:"description"`
	SkipDups    int           `json:"skip_dups"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type CreateRequest struct {
	AddrID      string        `json:"addr_id"`
	PluginName  string        `json:"plugin_name"`
	Type        interface{}   `json:"type"`
	Config      plugin.Config `json:"config"`
	Active      *bool         `json:"active"`
	Description string        `json:"description"`
	SkipDups    int           `json:"skip_dups"`
}

type UpdateRequest struct {
	Config      *plugin.Config `json:"config"`
	Active      *bool          `json:"active"`
	Description *string        `json:"description"`
	SkipDups    *int           `json:"skip_dups"`
}
