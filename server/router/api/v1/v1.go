package v1

import (
	"github.com/labstack/echo/v4"

	"github.com/stridecoach/stride/internal/profile"
	"github.com/stridecoach/stride/server/auth"
	"github.com/stridecoach/stride/server/service/coach"
	"github.com/stridecoach/stride/store"
)

// APIV1Service is the REST backoffice API mounted under /api/v1.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	Coach   *coach.Coach
	Secret  string
}

// NewAPIV1Service creates the backoffice API service.
func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store, coachService *coach.Coach) *APIV1Service {
	return &APIV1Service{
		Profile: profile,
		Store:   store,
		Coach:   coachService,
		Secret:  secret,
	}
}

// RegisterRoutes mounts all backoffice endpoints on the echo server.
// Everything except the login endpoint sits behind JWT auth.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api/v1")
	api.POST("/auth/login", s.Login)

	protected := api.Group("", auth.Middleware(s.Secret))

	protected.GET("/users", s.ListUsers)
	protected.GET("/users/:id", s.GetUser)
	protected.PATCH("/users/:id", s.UpdateUser)
	protected.GET("/users/:id/checkins", s.ListUserCheckIns)
	protected.GET("/users/:id/patterns", s.GetUserPatterns)
	protected.GET("/users/:id/messages", s.ListUserProactiveMessages)

	protected.GET("/checkins", s.ListCheckIns)
	protected.POST("/checkins", s.CreateCheckIn)

	protected.GET("/contents", s.ListContents)
	protected.POST("/contents", s.CreateContent)
	protected.PATCH("/contents/:id", s.UpdateContent)
	protected.DELETE("/contents/:id", s.DeleteContent)

	protected.GET("/templates", s.ListMessageTemplates)
	protected.PUT("/templates", s.UpsertMessageTemplate)
	protected.DELETE("/templates/:id", s.DeleteMessageTemplate)

	protected.GET("/proactive-messages", s.ListProactiveMessages)
	protected.GET("/analytics/events", s.ListAnalyticsEvents)
	protected.GET("/stats/overview", s.GetOverviewStats)
}
