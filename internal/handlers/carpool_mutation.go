package handlers

import (
	"context"
	"fmt"

	"github.com/clubsite/club-api/internal/auth"
	"github.com/clubsite/club-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

// Manual correction operations for board members after generation. All of
// them respect the draft/finalized state machine: finalized carpools are
// immutable.

type UpdateAssignmentRequest struct {
	auth.AuthInput
	CarpoolID uint `path:"carpoolId"`
	Body      struct {
		AddRSVPIDs    []uint `json:"add_rsvp_ids,omitempty" doc:"Rider RSVPs to seat in this carpool"`
		RemoveRSVPIDs []uint `json:"remove_rsvp_ids,omitempty" doc:"Rider RSVPs to unseat"`
	}
}

type UpdateAssignmentResponse struct {
	Body struct {
		Message string `json:"message"`
	}
}

func (h *CarpoolHandler) HandleUpdateAssignment(ctx context.Context, input *UpdateAssignmentRequest) (*UpdateAssignmentResponse, error) {
	if _, err := h.authHandler.RequireBoard(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var pool models.Carpool
	if err := h.db.Preload("DriverRSVP").First(&pool, input.CarpoolID).Error; err != nil {
		return nil, huma.Error404NotFound("Carpool not found")
	}
	if pool.Status != models.CarpoolStatusDraft {
		return nil, huma.Error409Conflict("Finalized carpools cannot be edited")
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		// Removals first so a remove+add swap within capacity succeeds.
		for _, rsvpID := range input.Body.RemoveRSVPIDs {
			if err := tx.Where("carpool_id = ? AND rsvp_id = ?", pool.ID, rsvpID).
				Delete(&models.CarpoolMember{}).Error; err != nil {
				return err
			}
		}

		for _, rsvpID := range input.Body.AddRSVPIDs {
			var rsvp models.RSVP
			if err := tx.Where("id = ? AND event_id = ?", rsvpID, pool.EventID).First(&rsvp).Error; err != nil {
				return huma.Error404NotFound(fmt.Sprintf("RSVP %d not found for this event", rsvpID))
			}

			var existing models.CarpoolMember
			err := tx.Joins("JOIN carpools ON carpools.id = carpool_members.carpool_id").
				Where("carpool_members.rsvp_id = ? AND carpools.event_id = ? AND carpools.deleted_at IS NULL", rsvpID, pool.EventID).
				First(&existing).Error
			if err == nil {
				if existing.CarpoolID == pool.ID {
					// Already seated here; nothing to do.
					continue
				}
				return huma.Error409Conflict(fmt.Sprintf("Rider %d already belongs to another carpool; use reassignment", rsvpID))
			}
			if err != gorm.ErrRecordNotFound {
				return err
			}

			var count int64
			if err := tx.Model(&models.CarpoolMember{}).Where("carpool_id = ?", pool.ID).Count(&count).Error; err != nil {
				return err
			}
			if int(count) >= pool.DriverRSVP.Capacity {
				return huma.Error422UnprocessableEntity(fmt.Sprintf("Carpool is at capacity (%d)", pool.DriverRSVP.Capacity))
			}

			if err := tx.Create(&models.CarpoolMember{CarpoolID: pool.ID, RSVPID: rsvpID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if _, ok := err.(huma.StatusError); ok {
			return nil, err
		}
		return nil, huma.Error500InternalServerError("Failed to update carpool: " + err.Error())
	}

	res := &UpdateAssignmentResponse{}
	res.Body.Message = "Carpool updated"
	return res, nil
}

type ReassignRiderRequest struct {
	auth.AuthInput
	EventID uint `path:"eventId"`
	Body    struct {
		RiderRSVPID   uint  `json:"rider_rsvp_id" required:"true"`
		FromCarpoolID *uint `json:"from_carpool_id,omitempty" doc:"Expected current carpool, for verification"`
		ToCarpoolID   *uint `json:"to_carpool_id,omitempty" doc:"Target carpool; omit to unassign"`
	}
}

type ReassignRiderResponse struct {
	Body struct {
		Success       bool  `json:"success"`
		RiderRSVPID   uint  `json:"rider_rsvp_id"`
		FromCarpoolID *uint `json:"from_carpool_id,omitempty"`
		ToCarpoolID   *uint `json:"to_carpool_id,omitempty"`
	}
}

func (h *CarpoolHandler) HandleReassignRider(ctx context.Context, input *ReassignRiderRequest) (*ReassignRiderResponse, error) {
	if _, err := h.authHandler.RequireBoard(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var event models.Event
	if err := h.db.First(&event, input.EventID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}

	var rider models.RSVP
	if err := h.db.Where("id = ? AND event_id = ?", input.Body.RiderRSVPID, event.ID).First(&rider).Error; err != nil {
		return nil, huma.Error404NotFound("Rider RSVP not found for this event")
	}

	// Locate the rider's current seat, if any.
	var current models.CarpoolMember
	var fromPool *models.Carpool
	err := h.db.Joins("JOIN carpools ON carpools.id = carpool_members.carpool_id").
		Where("carpool_members.rsvp_id = ? AND carpools.event_id = ? AND carpools.deleted_at IS NULL", rider.ID, event.ID).
		First(&current).Error
	switch err {
	case nil:
		var pool models.Carpool
		if err := h.db.First(&pool, current.CarpoolID).Error; err != nil {
			return nil, huma.Error500InternalServerError("Failed to load current carpool")
		}
		fromPool = &pool
	case gorm.ErrRecordNotFound:
	default:
		return nil, huma.Error500InternalServerError("Failed to look up membership")
	}

	if input.Body.FromCarpoolID != nil && (fromPool == nil || fromPool.ID != *input.Body.FromCarpoolID) {
		return nil, huma.Error409Conflict("Rider is not a member of the given carpool")
	}
	if fromPool != nil && fromPool.Status != models.CarpoolStatusDraft {
		return nil, huma.Error409Conflict("Cannot reassign riders from finalized carpools")
	}

	var toPool *models.Carpool
	if input.Body.ToCarpoolID != nil {
		var pool models.Carpool
		if err := h.db.Preload("DriverRSVP").First(&pool, *input.Body.ToCarpoolID).Error; err != nil {
			return nil, huma.Error404NotFound("Target carpool not found")
		}
		if pool.EventID != event.ID {
			return nil, huma.Error409Conflict("Target carpool belongs to a different event")
		}
		if pool.Status != models.CarpoolStatusDraft {
			return nil, huma.Error409Conflict("Target carpool is finalized")
		}
		var count int64
		if err := h.db.Model(&models.CarpoolMember{}).Where("carpool_id = ?", pool.ID).Count(&count).Error; err != nil {
			return nil, huma.Error500InternalServerError("Failed to count members")
		}
		if int(count) >= pool.DriverRSVP.Capacity {
			return nil, huma.Error422UnprocessableEntity(fmt.Sprintf("Target carpool is at capacity (%d)", pool.DriverRSVP.Capacity))
		}
		toPool = &pool
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if fromPool != nil {
			if err := tx.Where("carpool_id = ? AND rsvp_id = ?", fromPool.ID, rider.ID).
				Delete(&models.CarpoolMember{}).Error; err != nil {
				return err
			}
		}
		if toPool != nil {
			return tx.Create(&models.CarpoolMember{CarpoolID: toPool.ID, RSVPID: rider.ID}).Error
		}
		return nil
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to reassign rider: " + err.Error())
	}

	res := &ReassignRiderResponse{}
	res.Body.Success = true
	res.Body.RiderRSVPID = rider.ID
	if fromPool != nil {
		res.Body.FromCarpoolID = &fromPool.ID
	}
	if toPool != nil {
		res.Body.ToCarpoolID = &toPool.ID
	}
	return res, nil
}

type FinalizeCarpoolsRequest struct {
	auth.AuthInput
	EventID uint `path:"eventId"`
}

type FinalizeCarpoolsResponse struct {
	Body struct {
		CarpoolsFinalized int `json:"carpools_finalized"`
	}
}

// HandleFinalizeCarpools locks every carpool for the event. Unassigned
// riders do not block finalization; that call is the organizer's to make.
// Running it again is harmless.
func (h *CarpoolHandler) HandleFinalizeCarpools(ctx context.Context, input *FinalizeCarpoolsRequest) (*FinalizeCarpoolsResponse, error) {
	if _, err := h.authHandler.RequireBoard(ctx, input.AuthInput); err != nil {
		return nil, err
	}

	var event models.Event
	if err := h.db.First(&event, input.EventID).Error; err != nil {
		return nil, huma.Error404NotFound("Event not found")
	}

	var total int64
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Carpool{}).Where("event_id = ?", event.ID).
			Update("status", models.CarpoolStatusFinalized).Error; err != nil {
			return err
		}
		return tx.Model(&models.Carpool{}).Where("event_id = ?", event.ID).Count(&total).Error
	})
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to finalize carpools: " + err.Error())
	}

	res := &FinalizeCarpoolsResponse{}
	res.Body.CarpoolsFinalized = int(total)
	return res, nil
}
