// Package calendar renders bookings as calendar artifacts: an .ics file and
// prefilled Google/Outlook event links.
package calendar

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"navalha/internal/models"
)

const icsTimeLayout = "20060102T150405"

// BuildICS renders a booking as an iCalendar event with a 20-minute
// reminder alarm.
func BuildICS(b *models.Booking, shopName, location string) string {
	summary := fmt.Sprintf("%s - %s", shopName, b.ServiceName)
	description := fmt.Sprintf("Service: %s\nBarber: %s\nClient: %s", b.ServiceName, b.BarberName, b.ClientName)

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//navalha//booking//EN",
		"BEGIN:VEVENT",
		"UID:" + b.ID + "@navalha",
		"DTSTAMP:" + time.Now().UTC().Format(icsTimeLayout) + "Z",
		"DTSTART:" + b.StartTime.Format(icsTimeLayout),
		"DTEND:" + b.EndTime.Format(icsTimeLayout),
		"SUMMARY:" + escapeICS(summary),
		"DESCRIPTION:" + escapeICS(description),
		"LOCATION:" + escapeICS(location),
		"STATUS:CONFIRMED",
		"BEGIN:VALARM",
		"TRIGGER:-PT20M",
		"ACTION:DISPLAY",
		"DESCRIPTION:" + escapeICS(summary),
		"END:VALARM",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

// escapeICS escapes text per RFC 5545: backslash, semicolon, comma and
// newlines.
func escapeICS(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
	)
	return r.Replace(s)
}

// GoogleURL returns a prefilled Google Calendar event link.
func GoogleURL(b *models.Booking, shopName, location string) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", fmt.Sprintf("%s - %s", shopName, b.ServiceName))
	q.Set("dates", fmt.Sprintf("%s/%s", b.StartTime.Format(icsTimeLayout), b.EndTime.Format(icsTimeLayout)))
	q.Set("details", fmt.Sprintf("Service: %s\nBarber: %s", b.ServiceName, b.BarberName))
	q.Set("location", location)
	return "https://calendar.google.com/calendar/render?" + q.Encode()
}

// OutlookURL returns a prefilled Outlook web event link.
func OutlookURL(b *models.Booking, shopName, location string) string {
	q := url.Values{}
	q.Set("path", "/calendar/action/compose")
	q.Set("rru", "addevent")
	q.Set("subject", fmt.Sprintf("%s - %s", shopName, b.ServiceName))
	q.Set("startdt", b.StartTime.Format(time.RFC3339))
	q.Set("enddt", b.EndTime.Format(time.RFC3339))
	q.Set("body", fmt.Sprintf("Service: %s\nBarber: %s", b.ServiceName, b.BarberName))
	q.Set("location", location)
	return "https://outlook.live.com/calendar/0/deeplink/compose?" + q.Encode()
}
