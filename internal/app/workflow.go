package app

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// CreateBooking validates req and stores a new pending booking. Identical
// requests produce distinct bookings.
func (a *App) CreateBooking(ctx context.Context, req BookingRequest) (string, error) {
	if err := a.validate.StructCtx(ctx, req); err != nil {
		return "", validationFromTags(err)
	}

	b := &Booking{
		BookingID:   a.newID(),
		Service:     req.Service,
		ServiceName: req.ServiceName,
		Price:       req.Price,
		PriceUSD:    req.PriceUSD,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Date:        req.Date,
		Time:        req.Time,
		CreatedAt:   a.now(),
		Status:      StatusPending,
	}
	if err := a.Store.Insert(ctx, b); err != nil {
		return "", fmt.Errorf("store booking: %w", err)
	}

	a.Log.Info("booking created", zap.String("booking_id", b.BookingID))
	return b.BookingID, nil
}

// VerifyPayment confirms the booking on the caller's word. No payment
// gateway is consulted. An empty transactionID gets a DEMO_ placeholder.
func (a *App) VerifyPayment(ctx context.Context, id, transactionID string) (*Booking, error) {
	unlock, err := a.lockBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if transactionID == "" {
		transactionID = "DEMO_" + strconv.FormatInt(a.now().UnixMilli(), 10)
	}

	b, err := a.Store.Update(ctx, id, func(b *Booking) error {
		if !b.Status.CanTransitionTo(StatusConfirmed) {
			return fmt.Errorf("booking %s cannot move from %s to %s", id, b.Status, StatusConfirmed)
		}
		b.Status = StatusConfirmed
		b.PaymentVerified = true
		b.TransactionID = transactionID
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.Log.Info("payment verified",
		zap.String("booking_id", id),
		zap.String("transaction_id", transactionID),
	)
	return b, nil
}

// ScheduleEvent creates the one-hour calendar event for a booking and records
// the event id and meet link together.
func (a *App) ScheduleEvent(ctx context.Context, id string) (*ScheduledEvent, error) {
	unlock, err := a.lockBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	b, err := a.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	start, end, err := eventWindow(b.Date, b.Time, a.Location)
	if err != nil {
		return nil, &ValidationError{Field: "date", Reason: err.Error()}
	}

	callCtx := ctx
	if a.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.ProviderTimeout)
		defer cancel()
	}
	created, err := a.Calendar.CreateEvent(callCtx, EventRequest{
		Summary:     eventSummary(b),
		Description: eventDescription(b),
		Start:       start,
		End:         end,
		RequestID:   b.BookingID,
	})
	if err != nil {
		a.Log.Error("calendar event failed",
			zap.String("booking_id", id),
			zap.String("op", "create-calendar-event"),
			zap.Error(err),
		)
		return nil, &ProviderError{Op: "create calendar event", BookingID: id, Err: err}
	}

	link := created.MeetLink
	if link == "" {
		link = NoMeetLink
	}
	if _, err := a.Store.Update(ctx, id, func(b *Booking) error {
		b.CalendarEventID = created.ID
		b.MeetLink = link
		return nil
	}); err != nil {
		return nil, err
	}

	a.Log.Info("calendar event created",
		zap.String("booking_id", id),
		zap.String("event_id", created.ID),
	)
	return &ScheduledEvent{EventID: created.ID, MeetLink: link}, nil
}

// SendConfirmation emails the client, then the owner. A failed owner email
// does not undo the client email.
func (a *App) SendConfirmation(ctx context.Context, id string) error {
	unlock, err := a.lockBooking(ctx, id)
	if err != nil {
		return err
	}
	defer unlock()

	b, err := a.Store.Get(ctx, id)
	if err != nil {
		return err
	}

	clientMsg, err := clientConfirmation(b)
	if err != nil {
		return err
	}
	ownerMsg, err := ownerNotification(b, a.OwnerEmail)
	if err != nil {
		return err
	}

	for _, msg := range []Message{clientMsg, ownerMsg} {
		if err := a.Mailer.Send(ctx, msg); err != nil {
			a.Log.Error("confirmation email failed",
				zap.String("booking_id", id),
				zap.String("op", "send-confirmation-emails"),
				zap.String("recipient", msg.To),
				zap.Error(err),
			)
			return &MailError{Recipient: msg.To, BookingID: id, Err: err}
		}
	}

	a.Log.Info("confirmation emails sent", zap.String("booking_id", id))
	return nil
}

func (a *App) GetBooking(ctx context.Context, id string) (*Booking, error) {
	return a.Store.Get(ctx, id)
}
