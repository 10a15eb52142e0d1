package models

import "time"

type Event struct {
	ID          int64     `json:"id"`
	OrganizerID int64     `json:"organizer_id"`
	Title       string    `json:"title"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	Capacity    int64     `json:"capacity"`
	Category    string    `json:"category"`
	Status      string    `json:"status"` // draft, published, completed, cancelled
	CreatedAt   time.Time `json:"created_at"`
}

// EventSummary is an Event enriched with derived occupancy and rating
// figures for listing screens. SeatsRemaining is the raw signed
// difference capacity-taken; display layers may floor it at zero.
type EventSummary struct {
	Event
	SeatsTaken     int      `json:"seats_taken"`
	SeatsRemaining int      `json:"seats_remaining"`
	AvgRating      *float64 `json:"avg_rating,omitempty"`
	CommentCount   int      `json:"comment_count"`
}

// EventStats aggregates an event's reservations for the admin
// statistics view.
type EventStats struct {
	EventID           int64    `json:"event_id"`
	Reservations      int      `json:"reservations"`
	OutboundBusTaken  int      `json:"outbound_bus_taken"`
	ReturnBusTaken    int      `json:"return_bus_taken"`
	Members           int      `json:"members"`
	DesignatedDrivers int      `json:"designated_drivers"`
	Drinks            int      `json:"drinks"`
	AvgRating         *float64 `json:"avg_rating,omitempty"`
	CommentCount      int      `json:"comment_count"`
}

// BusPool reports one direction's configured capacity and occupancy.
// Configured == 0 means no bus is offered for that direction, which is
// distinct from a full bus.
type BusPool struct {
	Configured int `json:"configured"`
	Taken      int `json:"taken"`
	Remaining  int `json:"remaining"`
}

// CapacityReport bundles the three pool states of a single event.
type CapacityReport struct {
	EventID        int64   `json:"event_id"`
	Capacity       int64   `json:"capacity"`
	SeatsTaken     int     `json:"seats_taken"`
	SeatsRemaining int     `json:"seats_remaining"`
	Outbound       BusPool `json:"outbound"`
	Return         BusPool `json:"return"`
}
