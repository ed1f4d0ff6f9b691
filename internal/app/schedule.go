package app

import (
	"fmt"
	"strings"
	"time"
)

// EventDuration is the fixed length of every booked session.
const EventDuration = time.Hour

// eventWindow combines a booking's YYYY-MM-DD date and HH:MM time into the
// session start in loc, and returns start and start+EventDuration.
func eventWindow(date, clock string, loc *time.Location) (time.Time, time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid date: %s", date)
	}
	tod, err := parseHHMM(clock)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	year, month, dayNum := day.Date()
	start := time.Date(year, month, dayNum, tod.Hour(), tod.Minute(), 0, 0, loc)
	return start, start.Add(EventDuration), nil
}

func parseHHMM(s string) (time.Time, error) {
	tt, err := time.Parse("15:04", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time: %s", s)
	}
	return tt, nil
}

// eventSummary and eventDescription build the calendar text for a booking.
func eventSummary(b *Booking) string {
	return fmt.Sprintf("Booking: %s - %s", b.ServiceName, b.Name)
}

func eventDescription(b *Booking) string {
	lines := []string{
		"Service: " + b.ServiceName,
		"Client: " + b.Name,
		"Email: " + b.Email,
		"Phone: " + b.Phone,
	}
	return strings.Join(lines, "\n")
}
