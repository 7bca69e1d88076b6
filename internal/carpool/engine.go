package carpool

import (
	"errors"

	"github.com/clubsite/club-api/internal/models"
)

// ErrNoDrivers is returned by Plan when riders are waiting but nobody has
// offered to drive. The caller must not commit any carpool state in this case.
var ErrNoDrivers = errors.New("no drivers available")

// Assignment is one driver's planned carpool: the driver RSVP plus the rider
// RSVPs seated with them, at most Capacity of them.
type Assignment struct {
	Driver models.RSVP
	Riders []models.RSVP
}

// Plan holds the outcome of one assignment run over an event's RSVPs.
type Plan struct {
	Assignments []Assignment
	Unassigned  []models.RSVP
}

// RidersAssigned counts the riders seated across all assignments.
func (p *Plan) RidersAssigned() int {
	n := 0
	for _, a := range p.Assignments {
		n += len(a.Riders)
	}
	return n
}

// Partition splits deduplicated RSVPs into drivers and riders, preserving
// registration order. Members handling their own transport are excluded from
// both pools. A driver must have declared a vehicle with at least one seat.
func Partition(rsvps []models.RSVP) (drivers, riders []models.RSVP) {
	for _, r := range rsvps {
		switch {
		case r.SelfTransport:
		case r.CanDrive && r.Capacity > 0:
			drivers = append(drivers, r)
		case r.NeedsRide:
			riders = append(riders, r)
		}
	}
	return drivers, riders
}

// BuildPlan runs the greedy first-come-first-seated assignment: drivers are
// taken in registration order and each pulls riders off the front of the
// rider queue (also registration order) until their declared capacity is
// reached or the queue is empty. Every driver gets an assignment, with zero
// riders if the queue ran dry. Riders left over stay unassigned; they are
// reported, not retried.
//
// Greedy fill by registration order is the product requirement: the first
// member to sign up gets seated first. It does not minimize the number of
// cars and makes no attempt at distance or preference matching.
func BuildPlan(rsvps []models.RSVP) (*Plan, error) {
	deduped := Deduplicate(rsvps)
	drivers, riders := Partition(deduped)

	if len(drivers) == 0 && len(riders) > 0 {
		return nil, ErrNoDrivers
	}

	plan := &Plan{}
	queue := riders
	for _, d := range drivers {
		seats := d.Capacity
		if seats > len(queue) {
			seats = len(queue)
		}
		plan.Assignments = append(plan.Assignments, Assignment{
			Driver: d,
			Riders: queue[:seats],
		})
		queue = queue[seats:]
	}
	plan.Unassigned = queue

	return plan, nil
}
