package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
)

// CanTransitionTo reports whether moving to target is allowed. Only
// pending -> confirmed is a real transition; confirming twice is a no-op.
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	switch s {
	case StatusPending:
		return target == StatusPending || target == StatusConfirmed
	case StatusConfirmed:
		return target == StatusConfirmed
	}
	return false
}

// NoMeetLink is stored when the calendar returns no conference entry point.
const NoMeetLink = "No meet link"

// Amount keeps a price exactly as the client sent it, either a JSON string
// or a JSON number, and writes it back the same way.
type Amount struct {
	raw json.RawMessage
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		a.raw = nil
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("price must be a string or a number")
		}
	}
	a.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if len(a.raw) == 0 {
		return []byte("null"), nil
	}
	return a.raw, nil
}

// String renders the amount for display; quoted strings are unquoted.
func (a Amount) String() string {
	if len(a.raw) == 0 {
		return ""
	}
	if a.raw[0] == '"' {
		var s string
		if err := json.Unmarshal(a.raw, &s); err == nil {
			return s
		}
	}
	return string(a.raw)
}

func (a Amount) IsZero() bool {
	return len(a.raw) == 0
}

// NewAmount builds an Amount holding a JSON string.
func NewAmount(s string) Amount {
	raw, _ := json.Marshal(s)
	return Amount{raw: raw}
}

type Booking struct {
	BookingID       string        `json:"bookingId"`
	Service         string        `json:"service,omitempty"`
	ServiceName     string        `json:"serviceName,omitempty"`
	Price           Amount        `json:"price,omitzero"`
	PriceUSD        Amount        `json:"priceUSD,omitzero"`
	Name            string        `json:"name"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone"`
	Date            string        `json:"date"`
	Time            string        `json:"time"`
	CreatedAt       time.Time     `json:"createdAt"`
	Status          BookingStatus `json:"status"`
	PaymentVerified bool          `json:"paymentVerified,omitempty"`
	TransactionID   string        `json:"transactionId,omitempty"`
	CalendarEventID string        `json:"calendarEventId,omitempty"`
	MeetLink        string        `json:"meetLink,omitempty"`
}

// HasMeetLink reports whether a usable conference link was recorded.
func (b *Booking) HasMeetLink() bool {
	return b.MeetLink != "" && b.MeetLink != NoMeetLink
}

// BookingRequest is the body of POST /api/create-booking.
type BookingRequest struct {
	Service     string `json:"service"`
	ServiceName string `json:"serviceName"`
	Price       Amount `json:"price,omitzero"`
	PriceUSD    Amount `json:"priceUSD,omitzero"`
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone" validate:"required"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,datetime=15:04"`
}

// ScheduledEvent is what create-calendar-event reports back.
type ScheduledEvent struct {
	EventID  string `json:"eventId"`
	MeetLink string `json:"meetLink"`
}
