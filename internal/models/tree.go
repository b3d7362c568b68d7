package models

// Known tree statuses. The column itself is free-form.
const (
	TreeStatusOpen             = "open"
	TreeStatusClosed           = "closed"
	TreeStatusApprovalRequired = "approval required"
)

// KnownTreeStatuses lists the statuses accepted by the API.
var KnownTreeStatuses = []string{TreeStatusOpen, TreeStatusClosed, TreeStatusApprovalRequired}

// Tree is one tracked repository.
type Tree struct {
	Tree            string `db:"tree" json:"tree"`
	Status          string `db:"status" json:"status"`
	Reason          string `db:"reason" json:"reason"`
	MessageOfTheDay string `db:"message_of_the_day" json:"message_of_the_day"`
}

// TreeDefaults holds the values a freshly created tree starts with. Older
// last_state payloads are completed from it.
type TreeDefaults struct {
	Status          string
	Reason          string
	Tags            []string
	LogID           *int64
	MessageOfTheDay string
}

// DefaultTree is the canonical default tree configuration.
var DefaultTree = TreeDefaults{
	Status:          TreeStatusOpen,
	Reason:          "",
	Tags:            []string{},
	LogID:           nil,
	MessageOfTheDay: "",
}

// NewTree returns a tree initialised from DefaultTree.
func NewTree(name string) Tree {
	return Tree{
		Tree:            name,
		Status:          DefaultTree.Status,
		Reason:          DefaultTree.Reason,
		MessageOfTheDay: DefaultTree.MessageOfTheDay,
	}
}

func (d TreeDefaults) fields() map[string]interface{} {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return map[string]interface{}{
		"status":             d.Status,
		"reason":             d.Reason,
		"tags":               tags,
		"log_id":             d.LogID,
		"message_of_the_day": d.MessageOfTheDay,
	}
}
