package models

import (
	"strings"
	"time"
)

type Comment struct {
	ID            int64     `json:"id"`
	ReservationID int64     `json:"reservation_id"`
	UserID        int64     `json:"user_id"`
	EventID       int64     `json:"event_id"`
	Rating        *int64    `json:"rating,omitempty"`
	Review        string    `json:"review,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsEmpty reports whether the comment carries neither a rating nor a
// review. A whitespace-only review counts as no review.
func (c *Comment) IsEmpty() bool {
	return c.Rating == nil && strings.TrimSpace(c.Review) == ""
}

// RatingSummary aggregates the comments of one event.
type RatingSummary struct {
	EventID      int64    `json:"event_id"`
	AvgRating    *float64 `json:"avg_rating,omitempty"`
	CommentCount int      `json:"comment_count"`
}
