package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stridecoach/stride/server/service/coach"
	"github.com/stridecoach/stride/store"
)

type userResponse struct {
	ID                 int32  `json:"id"`
	UID                string `json:"uid"`
	Phone              string `json:"phone"`
	Name               string `json:"name"`
	Goal               string `json:"goal"`
	Restrictions       string `json:"restrictions"`
	CurrentStreak      int32  `json:"current_streak"`
	LongestStreak      int32  `json:"longest_streak"`
	LastCheckInTs      *int64 `json:"last_checkin_ts"`
	IsActive           bool   `json:"is_active"`
	IsPremium          bool   `json:"is_premium"`
	OnboardingComplete bool   `json:"onboarding_complete"`
	CreatedTs          int64  `json:"created_ts"`
}

func convertUserFromStore(user *store.User) *userResponse {
	return &userResponse{
		ID:                 user.ID,
		UID:                user.UID,
		Phone:              user.Phone,
		Name:               user.Name,
		Goal:               user.Goal,
		Restrictions:       user.Restrictions,
		CurrentStreak:      user.CurrentStreak,
		LongestStreak:      user.LongestStreak,
		LastCheckInTs:      user.LastCheckInTs,
		IsActive:           user.IsActive,
		IsPremium:          user.IsPremium,
		OnboardingComplete: user.OnboardingComplete,
		CreatedTs:          user.CreatedTs,
	}
}

// ListUsers returns users with optional is_active / onboarded filters
// and limit/offset pagination.
func (s *APIV1Service) ListUsers(c echo.Context) error {
	find := &store.FindUser{}
	if v := c.QueryParam("is_active"); v != "" {
		active := v == "true"
		find.IsActive = &active
	}
	if v := c.QueryParam("onboarded"); v != "" {
		onboarded := v == "true"
		find.OnboardingComplete = &onboarded
	}
	applyPagination(c, &find.Limit, &find.Offset)

	users, err := s.Store.ListUsers(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}

	response := make([]*userResponse, 0, len(users))
	for _, user := range users {
		response = append(response, convertUserFromStore(user))
	}
	return c.JSON(http.StatusOK, response)
}

// GetUser returns a single user by numeric ID.
func (s *APIV1Service) GetUser(c echo.Context) error {
	user, err := s.findUserByParam(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertUserFromStore(user))
}

type updateUserRequest struct {
	Name         *string `json:"name"`
	Goal         *string `json:"goal"`
	Restrictions *string `json:"restrictions"`
	IsActive     *bool   `json:"is_active"`
	IsPremium    *bool   `json:"is_premium"`
}

// UpdateUser patches the mutable profile fields of a user.
func (s *APIV1Service) UpdateUser(c echo.Context) error {
	user, err := s.findUserByParam(c)
	if err != nil {
		return err
	}

	request := &updateUserRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	updated, err := s.Store.UpdateUser(c.Request().Context(), &store.UpdateUser{
		ID:           user.ID,
		Name:         request.Name,
		Goal:         request.Goal,
		Restrictions: request.Restrictions,
		IsActive:     request.IsActive,
		IsPremium:    request.IsPremium,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update user")
	}
	return c.JSON(http.StatusOK, convertUserFromStore(updated))
}

// ListUserCheckIns returns a user's check-in history, newest first.
func (s *APIV1Service) ListUserCheckIns(c echo.Context) error {
	user, err := s.findUserByParam(c)
	if err != nil {
		return err
	}

	find := &store.FindCheckIn{UserID: &user.ID}
	applyPagination(c, &find.Limit, &find.Offset)

	checkIns, err := s.Store.ListCheckIns(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list check-ins")
	}
	return c.JSON(http.StatusOK, convertCheckInsFromStore(checkIns))
}

// GetUserPatterns computes the behavior analysis for a user over the
// default window.
func (s *APIV1Service) GetUserPatterns(c echo.Context) error {
	user, err := s.findUserByParam(c)
	if err != nil {
		return err
	}

	now := time.Now()
	since := now.AddDate(0, 0, -coach.PatternWindowDays).Unix()
	checkIns, err := s.Store.ListCheckIns(c.Request().Context(), &store.FindCheckIn{
		UserID:         &user.ID,
		CreatedTsAfter: &since,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list check-ins")
	}

	patterns := coach.AnalyzePatterns(now, user, checkIns)
	return c.JSON(http.StatusOK, &userPatternsResponse{
		Patterns: patterns,
		Insights: patterns.Insights(),
	})
}

type userPatternsResponse struct {
	*coach.Patterns
	Insights string `json:"insights"`
}

// ListUserProactiveMessages returns the proactive send log for a user.
func (s *APIV1Service) ListUserProactiveMessages(c echo.Context) error {
	user, err := s.findUserByParam(c)
	if err != nil {
		return err
	}

	find := &store.FindProactiveMessage{UserID: &user.ID}
	applyPagination(c, &find.Limit, &find.Offset)

	messages, err := s.Store.ListProactiveMessages(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list proactive messages")
	}
	return c.JSON(http.StatusOK, convertProactiveMessagesFromStore(messages))
}

func (s *APIV1Service) findUserByParam(c echo.Context) (*store.User, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	userID := int32(id)

	user, err := s.Store.GetUser(c.Request().Context(), &store.FindUser{ID: &userID})
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "user not found")
	}
	return user, nil
}

// applyPagination reads limit/offset query params into find fields.
func applyPagination(c echo.Context, limit, offset **int) {
	if v, err := strconv.Atoi(c.QueryParam("limit")); err == nil && v > 0 {
		*limit = &v
	}
	if v, err := strconv.Atoi(c.QueryParam("offset")); err == nil && v > 0 {
		*offset = &v
	}
}
