package models

type Bus struct {
	ID          int64  `json:"id"`
	EventID     int64  `json:"event_id"`
	VehicleTag  string `json:"vehicle_tag"`
	Seats       int64  `json:"seats"`
	Direction   string `json:"direction"` // outbound, return
	Description string `json:"description"`
}
