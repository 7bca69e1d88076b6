package models

import (
	"time"

	"gorm.io/gorm"
)

type Event struct {
	gorm.Model
	Title       string    `json:"title"`
	Slug        string    `json:"slug" gorm:"uniqueIndex"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	// Offsite events are held away from the home venue and are the only
	// events for which carpool coordination is enabled.
	Offsite bool    `json:"offsite"`
	Shifts  []Shift `json:"shifts"`
}

type Shift struct {
	gorm.Model
	EventID   uint      `json:"event_id" gorm:"index"`
	Label     string    `json:"label"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}
