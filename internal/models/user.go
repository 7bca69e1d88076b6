package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	DiscordID      string `gorm:"uniqueIndex"`
	Username       string
	Email          string
	Avatar         string
	Phone          string
	CampusLocation string
	// Refreshed on every login from the member's Discord guild roles.
	IsBoard bool
}
