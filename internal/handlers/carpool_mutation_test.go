package handlers

import (
	"context"
	"testing"

	"github.com/clubsite/club-api/internal/models"
	"github.com/danielgtaylor/huma/v2"
	"gorm.io/gorm"
)

// fixture: one offsite event with two draft carpools (capacity 2 and 1) and
// three rider RSVPs, the first two seated in pool A, the third unseated.
type mutationFixture struct {
	db         *gorm.DB
	handler    *CarpoolHandler
	cookie     string
	event      models.Event
	poolA      models.Carpool
	poolB      models.Carpool
	riderRSVPs []models.RSVP
}

func newMutationFixture(t *testing.T) *mutationFixture {
	t.Helper()

	db := setupTestDB(t)
	authHandler := newTestAuth(t, db)
	handler := NewCarpoolHandler(db, nil, authHandler, 1)

	board := createUser(t, db, "organizer", true)
	event := createOffsiteEvent(t, db)

	dA := createUser(t, db, "driverA", false)
	dB := createUser(t, db, "driverB", false)
	dARSVP := createRSVP(t, db, event, dA, rsvpOpts{canDrive: true, capacity: 2})
	dBRSVP := createRSVP(t, db, event, dB, rsvpOpts{canDrive: true, capacity: 1})

	var riders []models.RSVP
	for _, name := range []string{"rider1", "rider2", "rider3"} {
		u := createUser(t, db, name, false)
		riders = append(riders, createRSVP(t, db, event, u, rsvpOpts{needsRide: true}))
	}

	poolA := models.Carpool{EventID: event.ID, DriverRSVPID: dARSVP.ID, Status: models.CarpoolStatusDraft}
	poolB := models.Carpool{EventID: event.ID, DriverRSVPID: dBRSVP.ID, Status: models.CarpoolStatusDraft}
	db.Create(&poolA)
	db.Create(&poolB)
	db.Create(&models.CarpoolMember{CarpoolID: poolA.ID, RSVPID: riders[0].ID})
	db.Create(&models.CarpoolMember{CarpoolID: poolA.ID, RSVPID: riders[1].ID})

	return &mutationFixture{
		db:         db,
		handler:    handler,
		cookie:     cookieFor(t, authHandler, board),
		event:      event,
		poolA:      poolA,
		poolB:      poolB,
		riderRSVPs: riders,
	}
}

func TestHandleUpdateAssignment_AddAndRemove(t *testing.T) {
	f := newMutationFixture(t)

	// Swap rider1 out of pool A and rider3 in, within capacity.
	req := &UpdateAssignmentRequest{CarpoolID: f.poolA.ID}
	req.Cookie = f.cookie
	req.Body.RemoveRSVPIDs = []uint{f.riderRSVPs[0].ID}
	req.Body.AddRSVPIDs = []uint{f.riderRSVPs[2].ID}

	if _, err := f.handler.HandleUpdateAssignment(context.Background(), req); err != nil {
		t.Fatalf("HandleUpdateAssignment returned error: %v", err)
	}

	if n := memberCount(t, f.db, f.poolA.ID); n != 2 {
		t.Errorf("expected 2 members in pool A, got %d", n)
	}

	var gone int64
	f.db.Model(&models.CarpoolMember{}).
		Where("carpool_id = ? AND rsvp_id = ?", f.poolA.ID, f.riderRSVPs[0].ID).Count(&gone)
	if gone != 0 {
		t.Error("expected rider1 to be removed from pool A")
	}
}

func TestHandleUpdateAssignment_CapacityExceeded(t *testing.T) {
	f := newMutationFixture(t)

	// Pool A already holds 2 of 2.
	req := &UpdateAssignmentRequest{CarpoolID: f.poolA.ID}
	req.Cookie = f.cookie
	req.Body.AddRSVPIDs = []uint{f.riderRSVPs[2].ID}

	_, err := f.handler.HandleUpdateAssignment(context.Background(), req)
	if se, ok := err.(huma.StatusError); !ok || se.GetStatus() != 422 {
		t.Fatalf("expected 422 CapacityExceeded, got %v", err)
	}

	if n := memberCount(t, f.db, f.poolA.ID); n != 2 {
		t.Errorf("membership should be unchanged after failed add, got %d", n)
	}
}

func TestHandleUpdateAssignment_ConflictWithOtherCarpool(t *testing.T) {
	f := newMutationFixture(t)

	// rider1 sits in pool A; adding them to pool B must demand reassignment.
	req := &UpdateAssignmentRequest{CarpoolID: f.poolB.ID}
	req.Cookie = f.cookie
	req.Body.AddRSVPIDs = []uint{f.riderRSVPs[0].ID}

	_, err := f.handler.HandleUpdateAssignment(context.Background(), req)
	if se, ok := err.(huma.StatusError); !ok || se.GetStatus() != 409 {
		t.Fatalf("expected 409 Conflict, got %v", err)
	}

	if n := memberCount(t, f.db, f.poolB.ID); n != 0 {
		t.Errorf("pool B should remain empty, got %d members", n)
	}
}

func TestHandleUpdateAssignment_AddExistingMemberIsNoOp(t *testing.T) {
	f := newMutationFixture(t)

	req := &UpdateAssignmentRequest{CarpoolID: f.poolA.ID}
	req.Cookie = f.cookie
	req.Body.AddRSVPIDs = []uint{f.riderRSVPs[0].ID}

	if _, err := f.handler.HandleUpdateAssignment(context.Background(), req); err != nil {
		t.Fatalf("re-adding an existing member should be a no-op, got %v", err)
	}
	if n := memberCount(t, f.db, f.poolA.ID); n != 2 {
		t.Errorf("expected 2 members, got %d", n)
	}
}

func TestHandleUpdateAssignment_FinalizedImmutable(t *testing.T) {
	f := newMutationFixture(t)
	f.db.Model(&f.poolA).Update("status", models.CarpoolStatusFinalized)

	req := &UpdateAssignmentRequest{CarpoolID: f.poolA.ID}
	req.Cookie = f.cookie
	req.Body.RemoveRSVPIDs = []uint{f.riderRSVPs[0].ID}

	_, err := f.handler.HandleUpdateAssignment(context.Background(), req)
	if se, ok := err.(huma.StatusError); !ok || se.GetStatus() != 409 {
		t.Fatalf("expected 409 for finalized carpool, got %v", err)
	}
	if n := memberCount(t, f.db, f.poolA.ID); n != 2 {
		t.Errorf("finalized membership must be unchanged, got %d", n)
	}
}

func TestHandleReassignRider_Move(t *testing.T) {
	f := newMutationFixture(t)

	req := &ReassignRiderRequest{EventID: f.event.ID}
	req.Cookie = f.cookie
	req.Body.RiderRSVPID = f.riderRSVPs[0].ID
	req.Body.ToCarpoolID = &f.poolB.ID

	resp, err := f.handler.HandleReassignRider(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleReassignRider returned error: %v", err)
	}

	if !resp.Body.Success {
		t.Error("expected success")
	}
	if resp.Body.FromCarpoolID == nil || *resp.Body.FromCarpoolID != f.poolA.ID {
		t.Errorf("expected from carpool %d, got %v", f.poolA.ID, resp.Body.FromCarpoolID)
	}
	if resp.Body.ToCarpoolID == nil || *resp.Body.ToCarpoolID != f.poolB.ID {
		t.Errorf("expected to carpool %d, got %v", f.poolB.ID, resp.Body.ToCarpoolID)
	}

	if n := memberCount(t, f.db, f.poolA.ID); n != 1 {
		t.Errorf("expected 1 member left in pool A, got %d", n)
	}
	if n := memberCount(t, f.db, f.poolB.ID); n != 1 {
		t.Errorf("expected 1 member in pool B, got %d", n)
	}
}

func TestHandleReassignRider_Unassign(t *testing.T) {
	f := newMutationFixture(t)

	req := &ReassignRiderRequest{EventID: f.event.ID}
	req.Cookie = f.cookie
	req.Body.RiderRSVPID = f.riderRSVPs[0].ID
	// No target: remove from current carpool without placing elsewhere.

	resp, err := f.handler.HandleReassignRider(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleReassignRider returned error: %v", err)
	}
	if resp.Body.ToCarpoolID != nil {
		t.Errorf("expected no target carpool, got %v", *resp.Body.ToCarpoolID)
	}
	if n := memberCount(t, f.db, f.poolA.ID); n != 1 {
		t.Errorf("expected rider removed from pool A, got %d members", n)
	}
}

func TestHandleReassignRider_TargetAtCapacity(t *testing.T) {
	f := newMutationFixture(t)

	// Fill pool B (capacity 1) with rider3.
	f.db.Create(&models.CarpoolMember{CarpoolID: f.poolB.ID, RSVPID: f.riderRSVPs[2].ID})

	req := &ReassignRiderRequest{EventID: f.event.ID}
	req.Cookie = f.cookie
	req.Body.RiderRSVPID = f.riderRSVPs[0].ID
	req.Body.ToCarpoolID = &f.poolB.ID

	_, err := f.handler.HandleReassignRider(context.Background(), req)
	if se, ok := err.(huma.StatusError); !ok || se.GetStatus() != 422 {
		t.Fatalf("expected 422 CapacityExceeded, got %v", err)
	}

	// Original membership untouched.
	var still int64
	f.db.Model(&models.CarpoolMember{}).
		Where("carpool_id = ? AND rsvp_id = ?", f.poolA.ID, f.riderRSVPs[0].ID).Count(&still)
	if still != 1 {
		t.Error("rider's original membership should be untouched after failed reassignment")
	}
}

func TestHandleReassignRider_FromFinalized(t *testing.T) {
	f := newMutationFixture(t)
	f.db.Model(&f.poolA).Update("status", models.CarpoolStatusFinalized)

	req := &ReassignRiderRequest{EventID: f.event.ID}
	req.Cookie = f.cookie
	req.Body.RiderRSVPID = f.riderRSVPs[0].ID
	req.Body.ToCarpoolID = &f.poolB.ID

	_, err := f.handler.HandleReassignRider(context.Background(), req)
	if se, ok := err.(huma.StatusError); !ok || se.GetStatus() != 409 {
		t.Fatalf("expected 409 for finalized source carpool, got %v", err)
	}
	if n := memberCount(t, f.db, f.poolA.ID); n != 2 {
		t.Errorf("finalized membership must be unchanged, got %d", n)
	}
}

func TestHandleReassignRider_WrongEventTarget(t *testing.T) {
	f := newMutationFixture(t)

	other := createOffsiteEvent(t, f.db)
	stranger := createUser(t, f.db, "stranger", false)
	strangerRSVP := createRSVP(t, f.db, other, stranger, rsvpOpts{canDrive: true, capacity: 3})
	foreign := models.Carpool{EventID: other.ID, DriverRSVPID: strangerRSVP.ID, Status: models.CarpoolStatusDraft}
	f.db.Create(&foreign)

	req := &ReassignRiderRequest{EventID: f.event.ID}
	req.Cookie = f.cookie
	req.Body.RiderRSVPID = f.riderRSVPs[0].ID
	req.Body.ToCarpoolID = &foreign.ID

	_, err := f.handler.HandleReassignRider(context.Background(), req)
	if se, ok := err.(huma.StatusError); !ok || se.GetStatus() != 409 {
		t.Fatalf("expected 409 for cross-event target, got %v", err)
	}
}

func TestHandleFinalizeCarpools(t *testing.T) {
	f := newMutationFixture(t)

	req := &FinalizeCarpoolsRequest{EventID: f.event.ID}
	req.Cookie = f.cookie

	resp, err := f.handler.HandleFinalizeCarpools(context.Background(), req)
	if err != nil {
		t.Fatalf("HandleFinalizeCarpools returned error: %v", err)
	}
	if resp.Body.CarpoolsFinalized != 2 {
		t.Errorf("expected 2 carpools finalized, got %d", resp.Body.CarpoolsFinalized)
	}

	var drafts int64
	f.db.Model(&models.Carpool{}).
		Where("event_id = ? AND status = ?", f.event.ID, models.CarpoolStatusDraft).Count(&drafts)
	if drafts != 0 {
		t.Errorf("expected no drafts left, got %d", drafts)
	}

	// Finalizing again is safe and reports the same count.
	again, err := f.handler.HandleFinalizeCarpools(context.Background(), req)
	if err != nil {
		t.Fatalf("second finalize returned error: %v", err)
	}
	if again.Body.CarpoolsFinalized != 2 {
		t.Errorf("expected idempotent count 2, got %d", again.Body.CarpoolsFinalized)
	}
}
