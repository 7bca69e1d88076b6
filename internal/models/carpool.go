package models

import (
	"gorm.io/gorm"
)

const (
	CarpoolStatusDraft     = "draft"
	CarpoolStatusFinalized = "finalized"
)

// Carpool is one driver's car for one event. All carpools for an event are
// produced together by generation and share a lifecycle: draft (editable)
// until finalized (locked, eligible for notification).
type Carpool struct {
	gorm.Model
	EventID      uint            `json:"event_id" gorm:"index"`
	DriverRSVPID uint            `json:"driver_rsvp_id"`
	DriverRSVP   RSVP            `gorm:"foreignKey:DriverRSVPID"`
	Status       string          `json:"status"`
	Members      []CarpoolMember `json:"members"`
}

// CarpoolMember seats one rider RSVP in one carpool. A rider belongs to at
// most one carpool per event; membership count never exceeds the driver's
// declared capacity.
type CarpoolMember struct {
	gorm.Model
	CarpoolID uint `json:"carpool_id" gorm:"index"`
	RSVPID    uint `json:"rsvp_id" gorm:"index"`
	RSVP      RSVP `gorm:"foreignKey:RSVPID"`
}
