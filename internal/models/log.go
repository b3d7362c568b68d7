package models

import (
	"encoding/json"
	"time"

	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
)

// Log is one append-only status edit of a tree.
type Log struct {
	ID     int64     `json:"id"`
	Tree   string    `json:"tree"`
	When   time.Time `json:"when"`
	Who    string    `json:"who"`
	Status string    `json:"status"`
	Reason string    `json:"reason"`
	Tags   []string  `json:"tags"`
}

// EncodeTags serialises tags for the TEXT column. nil is stored as an empty list.
func EncodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", appErrors.WrapAs(appErrors.ErrDecode, err, "failed to encode tags")
	}
	return string(raw), nil
}

// DecodeTags reverses EncodeTags preserving order.
func DecodeTags(raw string) ([]string, error) {
	tags := []string{}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, appErrors.WrapAs(appErrors.ErrDecode, err, "malformed tags payload")
	}
	if tags == nil {
		return nil, appErrors.Clone(appErrors.ErrDecode, "malformed tags payload")
	}
	return tags, nil
}
