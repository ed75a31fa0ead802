package subscription

import "time"

// Subscription is a matching rule attached to an endpoint. An event pushed
// to the owning addr is delivered through the endpoint when any of its
// subscriptions matches.
type Subscription struct {
	ID         string    `json:"id"`
	EndpointID string    `json:"endpoint_id"`
	AddrID     string    `json:"addr_id"`
	Active     bool      `json:"active"`
	Location   string    `json:"location"`
	Tags       []string  `json:"tags"`
	Senders    []string  `json:"senders"`
	Level      int       `json:"level"`
	LevelMatch string    `json:"level_match"`
	Filter     string    `json:"filter,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CreateRequest struct {
	EndpointID string      `json:"endpoint_id"`
	Active     *bool       `json:"active"`
	Location   string      `json:"location"`
	Tags       []string    `json:"tags"`
	Senders    []string    `json:"senders"`
	Level      interface{} `json:"level"`
	LevelMatch string      `json:"level_match"`
	Filter     string      `json:"filter"`
}

type UpdateRequest struct {
	Active     *bool       `json:"active"`
	Location   *string     `json:"location"`
	Tags       []string    `json:"tags"`
	Senders    []string    `json:"senders"`
	Level      interface{} `json:"level"`
	LevelMatch *string     `json:"level_match"`
	Filter     *string     `json:"filter"`
}
