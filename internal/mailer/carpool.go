package mailer

import (
	"fmt"
	"html"
	"strings"

	"github.com/clubsite/club-api/internal/models"
)

// Carpool notification bodies are plain string-built HTML. Drivers get the
// full roster with contact details; riders get the driver's contact details
// plus their co-riders' names only.

func eventHeader(event models.Event) string {
	return fmt.Sprintf(
		"<h2>%s</h2><p><strong>When:</strong> %s – %s<br><strong>Where:</strong> %s</p>",
		html.EscapeString(event.Title),
		event.StartTime.Format("Monday, January 2 at 3:04 PM"),
		event.EndTime.Format("3:04 PM"),
		html.EscapeString(event.Location),
	)
}

func contactLine(u models.User) string {
	line := fmt.Sprintf(`<a href="mailto:%s">%s</a>`, u.Email, html.EscapeString(u.Email))
	if u.Phone != "" {
		line += " · " + html.EscapeString(u.Phone)
	}
	if u.CampusLocation != "" {
		line += " · " + html.EscapeString(u.CampusLocation)
	}
	return line
}

func vehicleLine(info models.DriverInfo) string {
	return fmt.Sprintf("%s %s (%d rider seats)",
		html.EscapeString(info.CarColor), html.EscapeString(info.CarType), info.Capacity)
}

// BuildDriverEmail renders the notification for a carpool's driver.
func BuildDriverEmail(event models.Event, driver models.RSVP, riders []models.RSVP) Email {
	var b strings.Builder
	b.WriteString(eventHeader(event))
	b.WriteString(fmt.Sprintf("<p>Hi %s, you're driving! Your vehicle: %s.</p>",
		html.EscapeString(driver.User.Username), vehicleLine(driver.DriverInfo)))

	if len(riders) == 0 {
		b.WriteString("<p>No riders are assigned to your car yet.</p>")
	} else {
		b.WriteString("<p><strong>Your passengers:</strong></p><ul>")
		for _, r := range riders {
			b.WriteString(fmt.Sprintf("<li>%s — %s</li>",
				html.EscapeString(r.User.Username), contactLine(r.User)))
		}
		b.WriteString("</ul>")
	}

	return Email{
		To:      driver.User.Email,
		Subject: fmt.Sprintf("You're driving for %s", event.Title),
		HTML:    b.String(),
	}
}

// BuildRiderEmail renders the notification for one rider in a carpool. The
// co-rider list excludes the recipient.
func BuildRiderEmail(event models.Event, driver models.RSVP, rider models.RSVP, riders []models.RSVP) Email {
	var b strings.Builder
	b.WriteString(eventHeader(event))
	b.WriteString(fmt.Sprintf("<p>Hi %s, you have a ride!</p>",
		html.EscapeString(rider.User.Username)))
	b.WriteString(fmt.Sprintf("<p><strong>Your driver:</strong> %s — %s<br><strong>Vehicle:</strong> %s</p>",
		html.EscapeString(driver.User.Username), contactLine(driver.User), vehicleLine(driver.DriverInfo)))

	var others []string
	for _, r := range riders {
		if r.ID == rider.ID {
			continue
		}
		others = append(others, html.EscapeString(r.User.Username))
	}
	if len(others) > 0 {
		b.WriteString(fmt.Sprintf("<p><strong>Riding with you:</strong> %s</p>",
			strings.Join(others, ", ")))
	}

	return Email{
		To:      rider.User.Email,
		Subject: fmt.Sprintf("Your carpool for %s", event.Title),
		HTML:    b.String(),
	}
}
