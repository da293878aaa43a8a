package core

import "time"

// Message is the domain model for a user-authored chat message.
type Message struct {
	From      string
	To        string
	Group     string
	Text      string
	CreatedAt time.Time
}
