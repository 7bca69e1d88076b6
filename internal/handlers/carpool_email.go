package handlers

import (
	"context"
	"log"
	"sync"

	"github.com/clubsite/club-api/internal/auth"
	"github.com/clubsite/club-api/internal/mailer"
	"github.com/clubsite/club-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
)

type SendCarpoolEmailsRequest struct {
	auth.AuthInput
	EventID uint `path:"eventId"`
}

type SendCarpoolEmailsResponse struct {
	Body struct {
		EmailsSent        int `json:"emails_sent"`
		EmailsFailed      int `json:"emails_failed"`
		CarpoolsProcessed int `json:"carpools_processed"`
	}
}

// HandleSendCarpoolEmails notifies every driver and rider in the event's
// finalized carpools. Sends run concurrently up to the configured bound;
// each one succeeds or fails on its own. Failures are counted for the
// organizer to chase up, never retried here, and sent emails are never
// rolled back.
func (h *CarpoolHandler) HandleSendCarpoolEmails(ctx context.Context, input *SendCarpoolEmailsRequest) (*SendCarpoolEmailsResponse, error) {
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

	var emails []mailer.Email
	processed := 0
	for _, pool := range carpools {
		if pool.Status != models.CarpoolStatusFinalized {
			continue
		}
		processed++

		riders := make([]models.RSVP, 0, len(pool.Members))
		for _, m := range pool.Members {
			riders = append(riders, m.RSVP)
		}

		emails = append(emails, mailer.BuildDriverEmail(event, pool.DriverRSVP, riders))
		for _, rider := range riders {
			emails = append(emails, mailer.BuildRiderEmail(event, pool.DriverRSVP, rider, riders))
		}
	}

	sent, failed := h.dispatch(ctx, emails)

	res := &SendCarpoolEmailsResponse{}
	res.Body.EmailsSent = sent
	res.Body.EmailsFailed = failed
	res.Body.CarpoolsProcessed = processed
	return res, nil
}

func (h *CarpoolHandler) dispatch(ctx context.Context, emails []mailer.Email) (sent, failed int) {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, h.mailConcurrency)
	)

	for _, email := range emails {
		wg.Add(1)
		sem <- struct{}{}
		go func(email mailer.Email) {
			defer wg.Done()
			defer func() { <-sem }()

			err := h.mailer.Send(ctx, email)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Failed to send carpool email to %s: %v", email.To, err)
				failed++
				return
			}
			sent++
		}(email)
	}
	wg.Wait()

	return sent, failed
}
