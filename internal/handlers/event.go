package handlers

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/clubsite/club-api/internal/auth"
	"github.com/clubsite/club-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type EventHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewEventHandler(db *gorm.DB, authHandler *auth.AuthHandler) *EventHandler {
	return &EventHandler{db: db, authHandler: authHandler}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(slug, "-")
}

type ShiftInput struct {
	Label     string    `json:"label" required:"true"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

type CreateEventRequest struct {
	auth.AuthInput
	Body struct {
		Title       string       `json:"title" required:"true"`
		Description string       `json:"description"`
		Location    string       `json:"location"`
		StartTime   time.Time    `json:"start_time" required:"true"`
		EndTime     time.Time    `json:"end_time" required:"true"`
		Offsite     bool         `json:"offsite" doc:"Offsite events get carpool coordination"`
		Shifts      []ShiftInput `json:"shifts,omitempty"`
	}
}

type EventResponse struct {
	Body EventView
}

type EventView struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Location  string    `json:"location"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Offsite   bool      `json:"offsite"`
}

func eventView(e models.Event) EventView {
	return EventView{
		ID:        e.ID,
		Title:     e.Title,
		Slug:      e.Slug,
		Location:  e.Location,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		Offsite:   e.Offsite,
	}
}

func (h *EventHandler) HandleCreateEvent(ctx context.Context, input *CreateEventRequest) (*EventResponse, error) {
	if _, err := h.authHandler.RequireBoard(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	if input.Body.StartTime.After(input.Body.EndTime) {
		return nil, huma.Error400BadRequest("Event cannot end before it starts")
	}

	event := models.Event{
		Title:       input.Body.Title,
		Slug:        slugify(input.Body.Title),
		Description: input.Body.Description,
		Location:    input.Body.Location,
		StartTime:   input.Body.StartTime,
		EndTime:     input.Body.EndTime,
		Offsite:     input.Body.Offsite,
	}
	for _, s := range input.Body.Shifts {
		event.Shifts = append(event.Shifts, models.Shift{
			Label:     s.Label,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		})
	}

	if err := h.db.Create(&event).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to create event: " + err.Error())
	}

	return &EventResponse{Body: eventView(event)}, nil
}

type ListEventsRequest struct{}

type ListEventsResponse struct {
	Body struct {
		Events []EventView `json:"events"`
	}
}

func (h *EventHandler) HandleListEvents(ctx context.Context, input *ListEventsRequest) (*ListEventsResponse, error) {
	var events []models.Event
	if err := h.db.Order("start_time asc").Find(&events).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to list events")
	}

	res := &ListEventsResponse{}
	for _, e := range events {
		res.Body.Events = append(res.Body.Events, eventView(e))
	}
	return res, nil
}

type GetEventRequest struct {
	Slug string `path:"slug"`
}

func (h *EventHandler) HandleGetEvent(ctx context.Context, input *GetEventRequest) (*EventResponse, error) {
	var event models.Event
	if err := h.db.Preload("Shifts").Where("slug = ?", input.Slug).First(&event).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}
	return &EventResponse{Body: eventView(event)}, nil
}

type DeleteEventRequest struct {
	auth.AuthInput
	EventID uint `path:"eventId"`
}

// HandleDeleteEvent removes an event and everything it owns: shifts, RSVPs,
// carpools and their memberships.
func (h *EventHandler) HandleDeleteEvent(ctx context.Context, input *DeleteEventRequest) (*struct{}, error) {
	if _, err := h.authHandler.RequireBoard(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var event models.Event
	if err := h.db.First(&event, input.EventID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("carpool_id IN (?)",
			tx.Model(&models.Carpool{}).Select("id").Where("event_id = ?", event.ID),
		).Delete(&models.CarpoolMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.Carpool{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.RSVP{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.Shift{}).Error; err != nil {
			return err
		}
		return tx.Delete(&event).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to delete event: " + err.Error())
	}

	return nil, nil
}
