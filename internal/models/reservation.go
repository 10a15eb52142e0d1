package models

import "time"

type Reservation struct {
	ID               int64     `json:"id"`
	UserID           int64     `json:"user_id"`
	EventID          int64     `json:"event_id"`
	OutboundBus      bool      `json:"outbound_bus"`
	ReturnBus        bool      `json:"return_bus"`
	Member           bool      `json:"member"`
	DesignatedDriver bool      `json:"designated_driver"`
	Drink            bool      `json:"drink"`
	CreatedAt        time.Time `json:"created_at"`
}

// ReservationDetail is a Reservation joined with its event for the
// "my reservations" listing.
type ReservationDetail struct {
	Reservation
	EventTitle string    `json:"event_title"`
	EventCity  string    `json:"event_city"`
	EventDate  time.Time `json:"event_date"`
}

// RosterEntry is one attendee row of an event roster as seen by an
// admin.
type RosterEntry struct {
	ReservationID    int64     `json:"reservation_id"`
	UserID           int64     `json:"user_id"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Email            string    `json:"email"`
	OutboundBus      bool      `json:"outbound_bus"`
	ReturnBus        bool      `json:"return_bus"`
	Member           bool      `json:"member"`
	DesignatedDriver bool      `json:"designated_driver"`
	Drink            bool      `json:"drink"`
	CreatedAt        time.Time `json:"created_at"`
}
