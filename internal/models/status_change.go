package models

import "time"

// StatusChange is a stack: one bulk status edit across several trees.
type StatusChange struct {
	ID     int64              `json:"id"`
	Who    string             `json:"who"`
	Reason string             `json:"reason"`
	When   time.Time          `json:"when"`
	Status string             `json:"status"`
	Trees  []StatusChangeTree `json:"trees"`
}

// StatusChangeTree is the snapshot of a single tree inside a stack.
type StatusChangeTree struct {
	ID        int64     `json:"id"`
	StackID   int64     `json:"-"`
	Tree      string    `json:"tree"`
	LastState LastState `json:"last_state"`
}

// TreeNames returns member tree names in snapshot order.
func (s *StatusChange) TreeNames() []string {
	names := make([]string, 0, len(s.Trees))
	for _, t := range s.Trees {
		names = append(names, t.Tree)
	}
	return names
}
