package handlers

import (
	"context"
	"errors"

	"github.com/clubsite/club-api/internal/auth"
	"github.com/clubsite/club-api/internal/carpool"
	"github.com/clubsite/club-api/internal/mailer"
	"github.com/clubsite/club-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type CarpoolHandler struct {
	db          *gorm.DB
	mailer      mailer.Mailer
	authHandler *auth.AuthHandler
	// Upper bound on concurrent provider calls during email dispatch.
	mailConcurrency int
}

func NewCarpoolHandler(db *gorm.DB, m mailer.Mailer, authHandler *auth.AuthHandler, mailConcurrency int) *CarpoolHandler {
	if mailConcurrency < 1 {
		mailConcurrency = 1
	}
	return &CarpoolHandler{db: db, mailer: m, authHandler: authHandler, mailConcurrency: mailConcurrency}
}

type GenerateCarpoolsRequest struct {
	auth.AuthInput
	EventID uint `path:"eventId"`
}

type GenerateCarpoolsResponse struct {
	Body struct {
		CarpoolsCreated  int `json:"carpools_created"`
		RidersAssigned   int `json:"riders_assigned"`
		RidersUnassigned int `json:"riders_unassigned"`
	}
}

// HandleGenerateCarpools re-derives the full carpool set for an offsite
// event from its current RSVPs. Any prior draft carpools are deleted and
// rebuilt in the same transaction; if a finalized carpool already exists
// the operation refuses rather than silently destroying locked assignments.
func (h *CarpoolHandler) HandleGenerateCarpools(ctx context.Context, input *GenerateCarpoolsRequest) (*GenerateCarpoolsResponse, error) {
	if _, err := h.authHandler.RequireBoard(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var event models.Event
	if err := h.db.First(&event, input.EventID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}
	if !event.Offsite {
		return nil, huma.Error409Conflict("Carpools only apply to offsite events")
	}

	var finalized int64
	if err := h.db.Model(&models.Carpool{}).
		Where("event_id = ? AND status = ?", event.ID, models.CarpoolStatusFinalized).
		Count(&finalized).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to check carpool state")
	}
	if finalized > 0 {
		return nil, huma.Error409Conflict("Event has finalized carpools; they must be kept as assigned")
	}

	var rsvps []models.RSVP
	if err := h.db.Where("event_id = ?", event.ID).
		Order("created_at asc, id asc").Find(&rsvps).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load RSVPs")
	}

	plan, err := carpool.BuildPlan(rsvps)
	if err != nil {
		if errors.Is(err, carpool.ErrNoDrivers) {
			return nil, huma.Error422UnprocessableEntity("No drivers available for this event")
		}
		return nil, huma.Error500InternalServerError("Failed to build assignment: " + err.Error())
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("carpool_id IN (?)",
			tx.Model(&models.Carpool{}).Select("id").Where("event_id = ?", event.ID),
		).Delete(&models.CarpoolMember{}).Error; err != nil {
			return err
		}
		if err := tx.Where("event_id = ?", event.ID).Delete(&models.Carpool{}).Error; err != nil {
			return err
		}

		for _, a := range plan.Assignments {
			pool := models.Carpool{
				EventID:      event.ID,
				DriverRSVPID: a.Driver.ID,
				Status:       models.CarpoolStatusDraft,
			}
			if err := tx.Create(&pool).Error; err != nil {
				return err
			}
			for _, rider := range a.Riders {
				member := models.CarpoolMember{CarpoolID: pool.ID, RSVPID: rider.ID}
				if err := tx.Create(&member).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to persist carpools: " + err.Error())
	}

	res := &GenerateCarpoolsResponse{}
	res.Body.CarpoolsCreated = len(plan.Assignments)
	res.Body.RidersAssigned = plan.RidersAssigned()
	res.Body.RidersUnassigned = len(plan.Unassigned)
	return res, nil
}

type RiderView struct {
	RSVPID         uint   `json:"rsvp_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	CampusLocation string `json:"campus_location,omitempty"`
}

type DriverView struct {
	RSVPID         uint   `json:"rsvp_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	CampusLocation string `json:"campus_location,omitempty"`
	CarType        string `json:"car_type"`
	CarColor       string `json:"car_color"`
	Capacity       int    `json:"capacity"`
}

type CarpoolView struct {
	CarpoolID uint        `json:"carpool_id"`
	Status    string      `json:"status"`
	Driver    DriverView  `json:"driver"`
	Riders    []RiderView `json:"riders"`
}

type GetCarpoolsRequest struct {
	auth.AuthInput
	EventID uint `path:"eventId"`
}

type GetCarpoolsResponse struct {
	Body struct {
		Carpools []CarpoolView `json:"carpools"`
	}
}

// HandleGetCarpools is board-only: the payload carries contact details the
// public attendee view deliberately omits.
func (h *CarpoolHandler) HandleGetCarpools(ctx context.Context, input *GetCarpoolsRequest) (*GetCarpoolsResponse, error) {
	if _, err := h.authHandler.RequireBoard(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var event models.Event
	if err := h.db.First(&event, input.EventID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}

	carpools, err := h.loadCarpools(event.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load carpools")
	}

	res := &GetCarpoolsResponse{}
	for _, pool := range carpools {
		view := CarpoolView{
			CarpoolID: pool.ID,
			Status:    pool.Status,
			Driver: DriverView{
				RSVPID:         pool.DriverRSVP.ID,
				Name:           pool.DriverRSVP.User.Username,
				Email:          pool.DriverRSVP.User.Email,
				Phone:          pool.DriverRSVP.User.Phone,
				CampusLocation: pool.DriverRSVP.User.CampusLocation,
				CarType:        pool.DriverRSVP.CarType,
				CarColor:       pool.DriverRSVP.CarColor,
				Capacity:       pool.DriverRSVP.Capacity,
			},
		}
		for _, m := range pool.Members {
			view.Riders = append(view.Riders, RiderView{
				RSVPID:         m.RSVP.ID,
				Name:           m.RSVP.User.Username,
				Email:          m.RSVP.User.Email,
				Phone:          m.RSVP.User.Phone,
				CampusLocation: m.RSVP.User.CampusLocation,
			})
		}
		res.Body.Carpools = append(res.Body.Carpools, view)
	}

	return res, nil
}

func (h *CarpoolHandler) loadCarpools(eventID uint) ([]models.Carpool, error) {
	var carpools []models.Carpool
	err := h.db.
		Preload("DriverRSVP.User").
		Preload("Members", func(db *gorm.DB) *gorm.DB { return db.Order("carpool_members.id asc") }).
		Preload("Members.RSVP.User").
		Where("event_id = ?", eventID).
		Order("id asc").
		Find(&carpools).Error
	return carpools, err
}
