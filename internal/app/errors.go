package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var ErrBookingNotFound = errors.New("booking not found")

// ValidationError reports caller input that cannot be accepted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ProviderError wraps a failed calendar call.
type ProviderError struct {
	Op        string
	BookingID string
	Err       error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s failed for booking %s: %v", e.Op, e.BookingID, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// MailError wraps a failed send. Earlier sends in the same step are not undone.
type MailError struct {
	Recipient string
	BookingID string
	Err       error
}

func (e *MailError) Error() string {
	return fmt.Sprintf("sending email to %s for booking %s: %v", e.Recipient, e.BookingID, e.Err)
}

func (e *MailError) Unwrap() error { return e.Err }

// validationFromTags turns validator output into a single ValidationError.
// Any missing field wins over a malformed one so callers keep the original message.
func validationFromTags(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Reason: err.Error()}
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return &ValidationError{Reason: "Missing required fields"}
		}
	}
	fe := fieldErrs[0]
	switch fe.Tag() {
	case "email":
		return &ValidationError{Field: fe.Field(), Reason: "must be a valid email address"}
	case "datetime":
		return &ValidationError{Field: fe.Field(), Reason: "must use format " + fe.Param()}
	}
	return &ValidationError{Field: fe.Field(), Reason: "is invalid"}
}

// statusFor maps workflow errors onto HTTP status codes.
func statusFor(err error) int {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, ErrBookingNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
