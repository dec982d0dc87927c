package model

import "time"

type Role struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ClaimEntry is a single (type, value) assertion about a subject. Claims are
// attached to users directly or inherited through roles.
type ClaimEntry struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
