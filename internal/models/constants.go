package models

// Event statuses.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Bus directions.
const (
	DirectionOutbound = "outbound"
	DirectionReturn   = "return"
)

// User roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidStatuses lists the statuses an event may carry.
var ValidStatuses = []string{StatusDraft, StatusPublished, StatusCompleted, StatusCancelled}

func ValidStatus(s string) bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func ValidDirection(d string) bool {
	return d == DirectionOutbound || d == DirectionReturn
}
