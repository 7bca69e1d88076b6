package carpool

import (
	"github.com/clubsite/club-api/internal/models"
)

// Deduplicate collapses duplicate RSVPs from the same member for one event
// down to the most recent one (greatest CreatedAt). Duplicate writes are
// tolerated at the storage layer, so every reader of RSVP data goes through
// here. If two RSVPs carry the exact same timestamp the one with the higher
// record ID wins, so the result is deterministic.
//
// The returned slice preserves the input's relative order: each surviving
// RSVP occupies the position where its member first appeared. That position
// is the member's registration order, which downstream assignment treats as
// first-come-first-seated.
func Deduplicate(rsvps []models.RSVP) []models.RSVP {
	byUser := make(map[uint]int, len(rsvps))
	result := make([]models.RSVP, 0, len(rsvps))

	for _, r := range rsvps {
		idx, seen := byUser[r.UserID]
		if !seen {
			byUser[r.UserID] = len(result)
			result = append(result, r)
			continue
		}
		kept := result[idx]
		if r.CreatedAt.After(kept.CreatedAt) ||
			(r.CreatedAt.Equal(kept.CreatedAt) && r.ID > kept.ID) {
			result[idx] = r
		}
	}

	return result
}
