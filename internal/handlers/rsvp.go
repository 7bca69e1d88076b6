package handlers

import (
	"context"

	"github.com/clubsite/club-api/internal/auth"
	"github.com/clubsite/club-api/internal/carpool"
	"github.com/clubsite/club-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

type RSVPHandler struct {
	db          *gorm.DB
	authHandler *auth.AuthHandler
}

func NewRSVPHandler(db *gorm.DB, authHandler *auth.AuthHandler) *RSVPHandler {
	return &RSVPHandler{db: db, authHandler: authHandler}
}

type UpsertRSVPRequest struct {
	auth.AuthInput
	EventID uint `path:"eventId"`
	Body    struct {
		ShiftID       *uint  `json:"shift_id,omitempty" doc:"Optional volunteer shift"`
		NeedsRide     bool   `json:"needs_ride"`
		CanDrive      bool   `json:"can_drive"`
		SelfTransport bool   `json:"self_transport"`
		CarType       string `json:"car_type,omitempty"`
		CarColor      string `json:"car_color,omitempty"`
		Capacity      int    `json:"capacity,omitempty" doc:"Rider seats offered, required when can_drive"`
	}
}

type UpsertRSVPResponse struct {
	Body struct {
		RSVPID  uint   `json:"rsvp_id"`
		Message string `json:"message"`
	}
}

func (h *RSVPHandler) HandleUpsertRSVP(ctx context.Context, input *UpsertRSVPRequest) (*UpsertRSVPResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var event models.Event
	if err := h.db.First(&event, input.EventID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}

	if input.Body.ShiftID != nil {
		var shift models.Shift
		if err := h.db.Where("id = ? AND event_id = ?", *input.Body.ShiftID, event.ID).First(&shift).Error; err != nil {
			return nil, huma.Error404NotFound("Shift not found for this event")
		}
	}

	// Transportation intents are mutually exclusive.
	if input.Body.NeedsRide && input.Body.CanDrive {
		return nil, huma.Error400BadRequest("Cannot both need a ride and offer to drive")
	}
	if input.Body.SelfTransport && (input.Body.NeedsRide || input.Body.CanDrive) {
		return nil, huma.Error400BadRequest("Self-transport excludes needing a ride or driving")
	}
	if input.Body.CanDrive && input.Body.Capacity < 1 {
		return nil, huma.Error400BadRequest("Drivers must declare vehicle capacity of at least 1")
	}

	var rsvp models.RSVP
	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(models.RSVP{EventID: event.ID, UserID: userID}).
			Order("created_at desc, id desc").FirstOrInit(&rsvp).Error; err != nil {
			return err
		}

		rsvp.EventID = event.ID
		rsvp.UserID = userID
		rsvp.ShiftID = input.Body.ShiftID
		rsvp.NeedsRide = input.Body.NeedsRide
		rsvp.CanDrive = input.Body.CanDrive
		rsvp.SelfTransport = input.Body.SelfTransport
		rsvp.DriverInfo = models.DriverInfo{}
		if input.Body.CanDrive {
			rsvp.DriverInfo = models.DriverInfo{
				CarType:  input.Body.CarType,
				CarColor: input.Body.CarColor,
				Capacity: input.Body.Capacity,
			}
		}

		return tx.Save(&rsvp).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to process RSVP: " + err.Error())
	}

	res := &UpsertRSVPResponse{}
	res.Body.RSVPID = rsvp.ID
	res.Body.Message = "RSVP saved"
	return res, nil
}

type DeleteRSVPRequest struct {
	auth.AuthInput
	EventID uint `path:"eventId"`
	RSVPID  uint `query:"rsvpId" doc:"Board only: delete a specific RSVP instead of your own" required:"false"`
}

func (h *RSVPHandler) HandleDeleteRSVP(ctx context.Context, input *DeleteRSVPRequest) (*struct{}, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var rsvps []models.RSVP
	if input.RSVPID != 0 {
		var rsvp models.RSVP
		if err := h.db.Where("id = ? AND event_id = ?", input.RSVPID, input.EventID).First(&rsvp).Error; err != nil {
			return nil, huma.Error404NotFound("RSVP not found")
		}
		if rsvp.UserID != userID {
			if _, err := h.authHandler.RequireBoard(ctx, input.AuthInput); err != nil {
				return nil, err
			}
		}
		rsvps = []models.RSVP{rsvp}
	} else {
		if err := h.db.Where("event_id = ? AND user_id = ?", input.EventID, userID).Find(&rsvps).Error; err != nil || len(rsvps) == 0 {
			return nil, huma.Error404NotFound("RSVP not found")
		}
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		for _, rsvp := range rsvps {
			// A driver backing a live carpool cannot just vanish; the
			// organizer has to regenerate or reassign first.
			var driving int64
			if err := tx.Model(&models.Carpool{}).Where("driver_rsvp_id = ?", rsvp.ID).Count(&driving).Error; err != nil {
				return err
			}
			if driving > 0 {
				return huma.Error409Conflict("RSVP backs an existing carpool; regenerate carpools first")
			}

			// Finalized rosters have already been announced; a seated rider
			// leaves only through an explicit reassignment.
			var locked int64
			if err := tx.Model(&models.CarpoolMember{}).
				Joins("JOIN carpools ON carpools.id = carpool_members.carpool_id").
				Where("carpool_members.rsvp_id = ? AND carpools.status = ? AND carpools.deleted_at IS NULL",
					rsvp.ID, models.CarpoolStatusFinalized).
				Count(&locked).Error; err != nil {
				return err
			}
			if locked > 0 {
				return huma.Error409Conflict("RSVP is seated in a finalized carpool; reassign the rider first")
			}

			if err := tx.Where("rsvp_id = ?", rsvp.ID).Delete(&models.CarpoolMember{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&rsvp).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(huma.StatusError); ok {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to delete RSVP: " + err.Error())
	}

	return nil, nil
}

// PublicAttendeeView is what any logged-in member sees on the attendee list.
type PublicAttendeeView struct {
	Name          string `json:"name"`
	NeedsRide     bool   `json:"needs_ride"`
	CanDrive      bool   `json:"can_drive"`
	SelfTransport bool   `json:"self_transport"`
}

// BoardAttendeeView adds contact and vehicle details for organizers.
type BoardAttendeeView struct {
	RSVPID         uint   `json:"rsvp_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone,omitempty"`
	CampusLocation string `json:"campus_location,omitempty"`
	ShiftID        *uint  `json:"shift_id,omitempty"`
	NeedsRide      bool   `json:"needs_ride"`
	CanDrive       bool   `json:"can_drive"`
	SelfTransport  bool   `json:"self_transport"`
	CarType        string `json:"car_type,omitempty"`
	CarColor       string `json:"car_color,omitempty"`
	Capacity       int    `json:"capacity,omitempty"`
}

type ListRSVPsRequest struct {
	auth.AuthInput
	EventID uint `path:"eventId"`
}

type ListRSVPsResponse struct {
	Body struct {
		Attendees []PublicAttendeeView `json:"attendees"`
		// Populated only for board members.
		Details []BoardAttendeeView `json:"details,omitempty"`
	}
}

func (h *RSVPHandler) HandleListRSVPs(ctx context.Context, input *ListRSVPsRequest) (*ListRSVPsResponse, error) {
	userID, err := h.authHandler.Authorize(ctx, input.AuthInput)
	if err != nil {
		return nil, err
	}

	var viewer models.User
	if err := h.db.First(&viewer, userID).Error; err != nil {
		return nil, huma.Error401Unauthorized("Unauthorized: unknown user")
	}

	var event models.Event
	if err := h.db.First(&event, input.EventID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}

	var rsvps []models.RSVP
	if err := h.db.Preload("User").Where("event_id = ?", event.ID).
		Order("created_at asc, id asc").Find(&rsvps).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to load RSVPs")
	}

	res := &ListRSVPsResponse{}
	for _, r := range carpool.Deduplicate(rsvps) {
		res.Body.Attendees = append(res.Body.Attendees, PublicAttendeeView{
			Name:          r.User.Username,
			NeedsRide:     r.NeedsRide,
			CanDrive:      r.CanDrive,
			SelfTransport: r.SelfTransport,
		})
		if viewer.IsBoard {
			res.Body.Details = append(res.Body.Details, BoardAttendeeView{
				RSVPID:         r.ID,
				Name:           r.User.Username,
				Email:          r.User.Email,
				Phone:          r.User.Phone,
				CampusLocation: r.User.CampusLocation,
				ShiftID:        r.ShiftID,
				NeedsRide:      r.NeedsRide,
				CanDrive:       r.CanDrive,
				SelfTransport:  r.SelfTransport,
				CarType:        r.CarType,
				CarColor:       r.CarColor,
				Capacity:       r.Capacity,
			})
		}
	}

	return res, nil
}
