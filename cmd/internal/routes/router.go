package routes

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"net/http"
	"time"
)

// Public share links allow 60 requests a minute per client.
const (
	publicRateInterval = time.Second
	publicRateBurst    = 10
	publicRateExpiry   = 3 * time.Minute
)

type Handlers struct {
	Users         *DefaultUserRoute
	Appointments  *DefaultAppointmentRoute
	Categories    *DefaultCategoryRoute
	Notifications *DefaultNotificationRoute
	Shares        *DefaultShareRoute
	Auth          Authenticator
	Metrics       http.Handler
}

// Register mounts the whole HTTP API on e.
func Register(e *echo.Echo, h *Handlers) {
	e.GET("/health", Health)
	if h.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	// Public
	e.GET("/api/auth/google", h.Users.GoogleLogin)
	e.GET("/api/auth/google/callback", h.Users.GoogleCallback)

	limiter := middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Every(publicRateInterval),
		Burst:     publicRateBurst,
		ExpiresIn: publicRateExpiry,
	})
	public := e.Group("/api/appointments/share", middleware.RateLimiter(limiter))
	public.GET("/:token", h.Shares.ViewPublic)
	public.GET("/:token/ical", h.Shares.DownloadICalendar)
	public.GET("/:token/google-calendar", h.Shares.GoogleCalendar)

	api := e.Group("/api", RequireAuth(h.Auth))

	// Users
	api.GET("/user", h.Users.GetUser)
	api.GET("/users/:id", h.Users.GetUser)

	// Appointments
	api.GET("/appointments", h.Appointments.GetAppointments)
	api.POST("/appointments", h.Appointments.CreateAppointment)
	api.GET("/appointments/:id", h.Appointments.GetAppointment)
	api.PUT("/appointments/:id", h.Appointments.UpdateAppointment)
	api.DELETE("/appointments/:id", h.Appointments.DeleteAppointment)
	api.GET("/calendar", h.Appointments.GetCalendar)

	// Sharing
	api.POST("/appointments/:id/share", h.Shares.CreateShare)
	api.GET("/appointments/:id/shares", h.Shares.ListShares)
	api.DELETE("/appointments/shares/:id", h.Shares.RevokeShare)

	// Categories
	api.GET("/categories", h.Categories.GetCategories)
	api.POST("/categories", h.Categories.CreateCategory)
	api.PUT("/categories/:id", h.Categories.UpdateCategory)
	api.DELETE("/categories/:id", h.Categories.DeleteCategory)

	// Notifications
	api.GET("/notifications", h.Notifications.GetNotifications)
	api.GET("/notifications/preferences", h.Notifications.GetPreferences)
	api.PUT("/notifications/preferences", h.Notifications.UpdatePreferences)
	api.GET("/notifications/history", h.Notifications.GetHistory)
	api.POST("/notifications/:id/read", h.Notifications.MarkAsRead)
	api.POST("/notifications/read-all", h.Notifications.MarkAllAsRead)
}
