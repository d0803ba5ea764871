package webhooks

import (
	"time"
)

// Endpoint is a registered webhook target. Secret signs every delivery;
// Events holds the event names the endpoint subscribes to, matched by plain
// string comparison.
type Endpoint struct {
	ID        int64     `json:"id"`
	TeamID    int64     `json:"team_id"`
	URL       string    `json:"url"`
	Secret    string    `json:"-"`
	Events    []string  `json:"events"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Subscribes reports whether the endpoint wants the named event.
func (e Endpoint) Subscribes(event string) bool {
	for _, name := range e.Events {
		if name == event {
			return true
		}
	}
	return false
}
