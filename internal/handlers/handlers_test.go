package handlers

import (
	"fmt"
	"testing"
	"time"

	"github.com/clubsite/club-api/internal/auth"
	"github.com/clubsite/club-api/internal/config"
	"github.com/clubsite/club-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Shift{},
		&models.RSVP{},
		&models.Carpool{},
		&models.CarpoolMember{},
		&models.APIKey{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	return db
}

func newTestAuth(t *testing.T, db *gorm.DB) *auth.AuthHandler {
	t.Helper()
	return auth.NewAuthHandler(&config.Config{JWTSecret: "test-secret"}, db, nil)
}

func createUser(t *testing.T, db *gorm.DB, name string, board bool) models.User {
	t.Helper()

	user := models.User{
		DiscordID: name + "-discord",
		Username:  name,
		Email:     name + "@example.com",
		Phone:     "555-0123",
		IsBoard:   board,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

func cookieFor(t *testing.T, authHandler *auth.AuthHandler, user models.User) string {
	t.Helper()

	token, err := authHandler.GenerateToken(user.ID)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return "auth_token=" + token
}

func createOffsiteEvent(t *testing.T, db *gorm.DB) models.Event {
	t.Helper()

	event := models.Event{
		Title:     "Beach Cleanup",
		Slug:      fmt.Sprintf("beach-cleanup-%d", time.Now().UnixNano()),
		Location:  "Crystal Cove",
		StartTime: time.Now().Add(7 * 24 * time.Hour),
		EndTime:   time.Now().Add(7*24*time.Hour + 4*time.Hour),
		Offsite:   true,
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

type rsvpOpts struct {
	needsRide     bool
	canDrive      bool
	selfTransport bool
	capacity      int
	createdAt     time.Time
}

func createRSVP(t *testing.T, db *gorm.DB, event models.Event, user models.User, opts rsvpOpts) models.RSVP {
	t.Helper()

	rsvp := models.RSVP{
		EventID:       event.ID,
		UserID:        user.ID,
		NeedsRide:     opts.needsRide,
		CanDrive:      opts.canDrive,
		SelfTransport: opts.selfTransport,
	}
	if opts.canDrive {
		rsvp.DriverInfo = models.DriverInfo{CarType: "Sedan", CarColor: "Blue", Capacity: opts.capacity}
	}
	if !opts.createdAt.IsZero() {
		rsvp.CreatedAt = opts.createdAt
	}
	if err := db.Create(&rsvp).Error; err != nil {
		t.Fatalf("failed to create RSVP: %v", err)
	}
	return rsvp
}

func memberCount(t *testing.T, db *gorm.DB, carpoolID uint) int {
	t.Helper()

	var count int64
	if err := db.Model(&models.CarpoolMember{}).Where("carpool_id = ?", carpoolID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count members: %v", err)
	}
	return int(count)
}
