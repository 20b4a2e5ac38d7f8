package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

type overviewStatsResponse struct {
	TotalUsers         int64  `json:"total_users"`
	ActiveUsers        int64  `json:"active_users"`
	PremiumUsers       int64  `json:"premium_users"`
	OnboardedUsers     int64  `json:"onboarded_users"`
	TotalCheckIns      int64  `json:"total_checkins"`
	CheckInsToday      int64  `json:"checkins_today"`
	ServerVersion      string `json:"server_version"`
	ServerTimezone     string `json:"server_timezone"`
	GeneratedTimestamp int64  `json:"generated_ts"`
}

// GetOverviewStats aggregates the backoffice dashboard numbers.
func (s *APIV1Service) GetOverviewStats(c echo.Context) error {
	ctx := c.Request().Context()

	userStats, err := s.Store.GetUserStats(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user stats")
	}

	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	checkInStats, err := s.Store.GetCheckInStats(ctx, midnight.Unix())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get check-in stats")
	}

	return c.JSON(http.StatusOK, &overviewStatsResponse{
		TotalUsers:         userStats.Total,
		ActiveUsers:        userStats.Active,
		PremiumUsers:       userStats.Premium,
		OnboardedUsers:     userStats.OnboardingComplete,
		TotalCheckIns:      checkInStats.Total,
		CheckInsToday:      checkInStats.TodayCount,
		ServerVersion:      s.Profile.Version,
		ServerTimezone:     s.Profile.Timezone,
		GeneratedTimestamp: now.Unix(),
	})
}
