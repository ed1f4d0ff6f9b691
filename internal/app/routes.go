package app

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterOptions struct {
	RateLimitPerMin int
}

// NewRouter wires middleware and every endpoint onto a fresh engine.
func NewRouter(a *App, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(Recovery(a.Log), RequestLogger(a.Log))
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Length", "Content-Type"},
		MaxAge:          12 * time.Hour,
	}))
	router.Use(RateLimit(opts.RateLimitPerMin, a.Log))

	router.GET("/health", a.HealthHandler)
	// OAuth consent callback for operators bootstrapping the refresh token
	router.GET("/oauth2callback", a.GoogleOAuth2CallbackHandler)

	api := router.Group("/api")
	{
		api.POST("/create-booking", a.CreateBookingHandler)
		api.POST("/verify-payment", a.VerifyPaymentHandler)
		api.POST("/create-calendar-event", a.CreateCalendarEventHandler)
		api.POST("/send-confirmation-emails", a.SendConfirmationEmailsHandler)
		api.GET("/booking/:bookingId", a.GetBookingHandler)

		api.GET("/calendar/auth", a.GoogleAuthHandler)
	}

	return router
}
