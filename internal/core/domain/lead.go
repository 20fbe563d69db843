package domain

import "time"

// Lead is a contact request captured from a conversation.
type Lead struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact"`
	Notes     string    `json:"notes"`
	Source    string    `json:"source"`
	CreatedAt time.Time `json:"timestamp"`
}
