package dto

import "github.com/noah-isme/treestatus-api/internal/models"

// UpdateTreesResponse is returned by bulk updates. Stack is set when the
// update was remembered.
type UpdateTreesResponse struct {
	Trees []models.Tree        `json:"trees"`
	Stack *models.StatusChange `json:"stack,omitempty"`
}

// VersionResponse is served by __version__.
type VersionResponse struct {
	Source  string `json:"source"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Build   string `json:"build"`
}
