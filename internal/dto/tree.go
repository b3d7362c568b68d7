package dto

// CreateTreeRequest describes the optional initial state of a new tree.
type CreateTreeRequest struct {
	Status          string `json:"status" validate:"omitempty,tree_status"`
	Reason          string `json:"reason"`
	MessageOfTheDay string `json:"message_of_the_day"`
}

// UpdateTreesRequest applies a status and/or message of the day to several
// trees. Remember records the change as a revertible stack.
type UpdateTreesRequest struct {
	Trees           []string `json:"trees" validate:"required,min=1,dive,required,max=32"`
	Status          *string  `json:"status" validate:"omitempty,tree_status"`
	Reason          string   `json:"reason"`
	Tags            []string `json:"tags" validate:"omitempty,dive,required"`
	MessageOfTheDay *string  `json:"message_of_the_day"`
	Remember        bool     `json:"remember"`
}

// TreeLogsQuery selects how much history is returned.
type TreeLogsQuery struct {
	All bool `form:"all"`
}
