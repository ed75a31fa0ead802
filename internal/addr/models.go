package addr

import "time"

// Addr is the tenant identity. The token is the only public-facing handle;
// the id never leaves the administrative surface.
type Addr struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Active    bool      `json:"active"`
	LimCount  int64     `json:"lim_count"`
	LimSize   int64     `json:"lim_size"`
	CreatedAt time.Time `json:"created_at"`
}

type CreateRequest struct {
	Active   *bool `json:"active"`
	LimCount int64 `json:"lim_count"`
	LimSize  int64 `json:"lim_size"`
}

type UpdateLimitsRequest struct {
	LimCount *int64 `json:"lim_count"`
	LimSize  *int64 `json:"lim_size"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}
