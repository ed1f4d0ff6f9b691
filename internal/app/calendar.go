package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// CalendarProvider creates one calendar event with a conference attached.
type CalendarProvider interface {
	CreateEvent(ctx context.Context, req EventRequest) (*CreatedEvent, error)
}

type EventRequest struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	// RequestID keys the conference create request, so the same booking
	// always asks for the same meeting.
	RequestID string
}

type CreatedEvent struct {
	ID string
	// MeetLink is empty when the provider attached no conference.
	MeetLink string
}

var ErrCalendarNotConfigured = errors.New("google calendar not configured")

// NewOAuthConfig builds the OAuth2 client for the Calendar API. It returns
// nil when any of the client settings is missing.
func NewOAuthConfig(clientID, clientSecret, redirectURL string) *oauth2.Config {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			calendar.CalendarEventsScope,
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleCalendar inserts events into one Google calendar.
type GoogleCalendar struct {
	srv        *calendar.Service
	calendarID string
}

// NewGoogleCalendar wraps an existing Calendar API client.
func NewGoogleCalendar(srv *calendar.Service, calendarID string) *GoogleCalendar {
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleCalendar{srv: srv, calendarID: calendarID}
}

// NewGoogleCalendarFromToken authenticates with a long-lived refresh token.
func NewGoogleCalendarFromToken(ctx context.Context, conf *oauth2.Config, refreshToken, calendarID string) (*GoogleCalendar, error) {
	if conf == nil || refreshToken == "" {
		return nil, ErrCalendarNotConfigured
	}
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	srv, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	return NewGoogleCalendar(srv, calendarID), nil
}

func (g *GoogleCalendar) CreateEvent(ctx context.Context, req EventRequest) (*CreatedEvent, error) {
	event := &calendar.Event{
		Summary:     req.Summary,
		Description: req.Description,
		Start:       &calendar.EventDateTime{DateTime: req.Start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: req.End.Format(time.RFC3339)},
		ConferenceData: &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId: req.RequestID,
			},
		},
	}

	created, err := g.srv.Events.Insert(g.calendarID, event).
		ConferenceDataVersion(1).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	out := &CreatedEvent{ID: created.Id}
	if cd := created.ConferenceData; cd != nil && len(cd.EntryPoints) > 0 {
		out.MeetLink = cd.EntryPoints[0].Uri
	}
	return out, nil
}

type unconfiguredCalendar struct{}

func (unconfiguredCalendar) CreateEvent(context.Context, EventRequest) (*CreatedEvent, error) {
	return nil, ErrCalendarNotConfigured
}

// GET /api/calendar/auth
// Returns the consent URL an operator opens once to obtain a refresh token.
func (a *App) GoogleAuthHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrCalendarNotConfigured.Error()})
		return
	}

	state := uuid.NewString()
	url := a.OAuth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	c.JSON(http.StatusOK, gin.H{
		"auth_url": url,
		"state":    state,
	})
}

// GET /oauth2callback
func (a *App) GoogleOAuth2CallbackHandler(c *gin.Context) {
	if a.OAuth == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": ErrCalendarNotConfigured.Error()})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code required"})
		return
	}

	token, err := a.OAuth.Exchange(c.Request.Context(), code)
	if err != nil {
		a.Log.Warn("oauth code exchange failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to exchange code for token"})
		return
	}

	a.Log.Info("calendar authorization completed", zap.Bool("has_refresh_token", token.RefreshToken != ""))
	c.JSON(http.StatusOK, gin.H{
		"message":       "Authorization successful; set GOOGLE_REFRESH_TOKEN to the refresh_token value",
		"state":         c.Query("state"),
		"refresh_token": token.RefreshToken,
	})
}
