package app

import (
	"context"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// App carries the booking workflow and its collaborators. Handlers are
// methods on it.
type App struct {
	Store      Store
	Calendar   CalendarProvider
	Mailer     MailSender
	OwnerEmail string
	Location   *time.Location
	Log        *zap.Logger

	// OAuth is only used by the consent endpoints; nil disables them.
	OAuth *oauth2.Config

	// ProviderTimeout bounds each calendar call; zero means no limit.
	ProviderTimeout time.Duration

	now      func() time.Time
	newID    func() string
	validate *validator.Validate
	locks    bookingLocks
}

type Options struct {
	Store           Store
	Calendar        CalendarProvider
	Mailer          MailSender
	OAuth           *oauth2.Config
	OwnerEmail      string
	Location        *time.Location
	Logger          *zap.Logger
	ProviderTimeout time.Duration
	Clock           func() time.Time
	NewID           func() string
}

func New(opts Options) *App {
	a := &App{
		Store:           opts.Store,
		Calendar:        opts.Calendar,
		Mailer:          opts.Mailer,
		OAuth:           opts.OAuth,
		OwnerEmail:      opts.OwnerEmail,
		Location:        opts.Location,
		Log:             opts.Logger,
		ProviderTimeout: opts.ProviderTimeout,
		now:             opts.Clock,
		newID:           opts.NewID,
		validate:        newValidator(),
	}
	if a.Store == nil {
		a.Store = NewMemoryStore()
	}
	if a.Calendar == nil {
		a.Calendar = unconfiguredCalendar{}
	}
	if a.Mailer == nil {
		a.Mailer = unconfiguredMailer{}
	}
	if a.Location == nil {
		a.Location = time.Local
	}
	if a.Log == nil {
		a.Log = zap.NewNop()
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.newID == nil {
		a.newID = uuid.NewString
	}
	return a
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bookingLocks serializes workflow steps per booking id. Only ids already in
// the store get an entry, so the map grows with the store and no faster.
type bookingLocks struct {
	m sync.Map
}

func (l *bookingLocks) lock(id string) func() {
	v, _ := l.m.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// lockBooking takes the workflow lock for an existing booking. Unknown ids
// return ErrBookingNotFound without touching the lock map.
func (a *App) lockBooking(ctx context.Context, id string) (func(), error) {
	if _, err := a.Store.Get(ctx, id); err != nil {
		return nil, err
	}
	return a.locks.lock(id), nil
}
