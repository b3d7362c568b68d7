package models

import "time"

// Status change event kinds.
const (
	EventTreeUpdated   = "tree.updated"
	EventStackCreated  = "stack.created"
	EventStackReverted = "stack.reverted"
	EventTreeCreated   = "tree.created"
	EventTreeDeleted   = "tree.deleted"
)

// StatusChangeEvent is published after a committed status mutation.
type StatusChangeEvent struct {
	ID      string    `json:"id"`
	Kind    string    `json:"kind"`
	Trees   []string  `json:"trees"`
	Status  string    `json:"status,omitempty"`
	Reason  string    `json:"reason,omitempty"`
	Who     string    `json:"who"`
	When    time.Time `json:"when"`
	StackID *int64    `json:"stack_id,omitempty"`
}
