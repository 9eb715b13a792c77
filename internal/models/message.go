package models

import "time"

// Role identifies who authored a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the conversation transcript. Turns are never
// modified after they are appended.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a Turn stamped with at
func NewTurn(role Role, text string, at time.Time) Turn {
	return Turn{Role: role, Text: text, Timestamp: at}
}
