package app

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type bookingIDReq struct {
	BookingID string `json:"bookingId"`
}

type verifyPaymentReq struct {
	BookingID     string `json:"bookingId"`
	TransactionID string `json:"transactionId"`
}

// fail writes err as {"error": msg} with the status its kind maps to.
func (a *App) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		a.Log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// bindBookingID decodes a body carrying bookingId and rejects it when absent.
func bindBookingID(c *gin.Context, dst any, id func() string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return false
	}
	if id() == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing bookingId"})
		return false
	}
	return true
}

func emptyBody(c *gin.Context, err error) bool {
	return errors.Is(err, io.EOF) || c.Request.Body == nil || c.Request.Body == http.NoBody
}

// POST /api/create-booking
func (a *App) CreateBookingHandler(c *gin.Context) {
	var req BookingRequest
	// an empty body is read as {} and fails validation like one
	if err := c.ShouldBindJSON(&req); err != nil && !emptyBody(c, err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	id, err := a.CreateBooking(c.Request.Context(), req)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bookingId": id,
		"message":   "Booking created successfully",
	})
}

// POST /api/verify-payment
func (a *App) VerifyPaymentHandler(c *gin.Context) {
	var req verifyPaymentReq
	if !bindBookingID(c, &req, func() string { return req.BookingID }) {
		return
	}

	b, err := a.VerifyPayment(c.Request.Context(), req.BookingID, req.TransactionID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"verified":  b.PaymentVerified,
		"bookingId": b.BookingID,
	})
}

// POST /api/create-calendar-event
func (a *App) CreateCalendarEventHandler(c *gin.Context) {
	var req bookingIDReq
	if !bindBookingID(c, &req, func() string { return req.BookingID }) {
		return
	}

	ev, err := a.ScheduleEvent(c.Request.Context(), req.BookingID)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// POST /api/send-confirmation-emails
func (a *App) SendConfirmationEmailsHandler(c *gin.Context) {
	var req bookingIDReq
	if !bindBookingID(c, &req, func() string { return req.BookingID }) {
		return
	}

	if err := a.SendConfirmation(c.Request.Context(), req.BookingID); err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Emails sent successfully",
	})
}

// GET /api/booking/:bookingId
func (a *App) GetBookingHandler(c *gin.Context) {
	b, err := a.GetBooking(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GET /health
func (a *App) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": a.now(),
	})
}
