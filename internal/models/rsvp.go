package models

import (
	"gorm.io/gorm"
)

// DriverInfo describes the vehicle a driver is offering. Capacity counts
// rider seats, not the driver's own.
type DriverInfo struct {
	CarType  string `json:"car_type"`
	CarColor string `json:"car_color"`
	Capacity int    `json:"capacity"`
}

// RSVP records a member's attendance and transportation intent for one
// event. There is deliberately no uniqueness constraint on (event, user):
// historical duplicate writes are tolerated and resolved latest-wins by
// carpool.Deduplicate.
type RSVP struct {
	gorm.Model
	EventID       uint  `json:"event_id" gorm:"index:idx_rsvp_event_user"`
	UserID        uint  `json:"user_id" gorm:"index:idx_rsvp_event_user"`
	User          User  `gorm:"foreignKey:UserID"`
	ShiftID       *uint `json:"shift_id,omitempty"`
	NeedsRide     bool  `json:"needs_ride"`
	CanDrive      bool  `json:"can_drive"`
	SelfTransport bool  `json:"self_transport"`
	DriverInfo    `gorm:"embedded"`
}
