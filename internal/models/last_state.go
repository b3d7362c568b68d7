package models

import (
	"encoding/json"
	"strings"

	appErrors "github.com/noah-isme/treestatus-api/pkg/errors"
)

const currentPrefix = "current_"

// LastStateFields lists every key a decoded last_state carries.
var LastStateFields = []string{
	"status",
	"reason",
	"tags",
	"log_id",
	"current_status",
	"current_reason",
	"current_tags",
	"current_log_id",
}

// LastState holds a tree's state before a stack was applied (status, reason,
// tags, log_id) and the values the stack applied (current_*).
type LastState struct {
	Status        string   `json:"status"`
	Reason        string   `json:"reason"`
	Tags          []string `json:"tags"`
	LogID         *int64   `json:"log_id"`
	CurrentStatus string   `json:"current_status"`
	CurrentReason string   `json:"current_reason"`
	CurrentTags   []string `json:"current_tags"`
	CurrentLogID  *int64   `json:"current_log_id"`
}

// Encode serialises the state for storage.
func (s LastState) Encode() (string, error) {
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.CurrentTags == nil {
		s.CurrentTags = []string{}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		return "", appErrors.WrapAs(appErrors.ErrDecode, err, "failed to encode last state")
	}
	return string(raw), nil
}

// LoadLastState decodes a stored last_state, filling fields missing from
// older payloads with DefaultTree values. Fields present in the payload are
// kept as stored.
func LoadLastState(raw string) (LastState, error) {
	return loadLastState(raw, DefaultTree)
}

func loadLastState(raw string, defaults TreeDefaults) (LastState, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return LastState{}, appErrors.WrapAs(appErrors.ErrDecode, err, "malformed last_state payload")
	}
	if fields == nil {
		return LastState{}, appErrors.Clone(appErrors.ErrDecode, "malformed last_state payload")
	}

	var defaultFields map[string]interface{}
	for _, field := range LastStateFields {
		if _, ok := fields[field]; ok {
			continue
		}
		if defaultFields == nil {
			defaultFields = defaults.fields()
		}
		value, err := json.Marshal(defaultFields[strings.TrimPrefix(field, currentPrefix)])
		if err != nil {
			return LastState{}, appErrors.WrapAs(appErrors.ErrDecode, err, "failed to apply last_state defaults")
		}
		fields[field] = value
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return LastState{}, appErrors.WrapAs(appErrors.ErrDecode, err, "malformed last_state payload")
	}
	var state LastState
	if err := json.Unmarshal(merged, &state); err != nil {
		return LastState{}, appErrors.WrapAs(appErrors.ErrDecode, err, "malformed last_state payload")
	}
	return state, nil
}
