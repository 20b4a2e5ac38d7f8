package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stridecoach/stride/server/service/coach"
	"github.com/stridecoach/stride/store"
)

type checkInResponse struct {
	ID             int32  `json:"id"`
	UserID         int32  `json:"user_id"`
	Sleep          int32  `json:"sleep"`
	Energy         int32  `json:"energy"`
	Mood           string `json:"mood"`
	TrainedToday   bool   `json:"trained_today"`
	Recommendation string `json:"recommendation"`
	CheckinDate    string `json:"checkin_date"`
	CreatedTs      int64  `json:"created_ts"`
}

func convertCheckInsFromStore(checkIns []*store.CheckIn) []*checkInResponse {
	response := make([]*checkInResponse, 0, len(checkIns))
	for _, checkIn := range checkIns {
		response = append(response, &checkInResponse{
			ID:             checkIn.ID,
			UserID:         checkIn.UserID,
			Sleep:          checkIn.Sleep,
			Energy:         checkIn.Energy,
			Mood:           checkIn.Mood,
			TrainedToday:   checkIn.TrainedToday,
			Recommendation: checkIn.Recommendation,
			CheckinDate:    checkIn.CheckinDate,
			CreatedTs:      checkIn.CreatedTs,
		})
	}
	return response
}

// ListCheckIns returns recent check-ins across all users.
func (s *APIV1Service) ListCheckIns(c echo.Context) error {
	find := &store.FindCheckIn{}
	applyPagination(c, &find.Limit, &find.Offset)
	if v := c.QueryParam("date"); v != "" {
		find.CheckinDate = &v
	}

	checkIns, err := s.Store.ListCheckIns(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list check-ins")
	}
	return c.JSON(http.StatusOK, convertCheckInsFromStore(checkIns))
}

type createCheckInRequest struct {
	UserID    int32  `json:"user_id"`
	Sleep     int32  `json:"sleep"`
	Energy    int32  `json:"energy"`
	Mood      string `json:"mood"`
	WillTrain bool   `json:"will_train"`
}

// CreateCheckIn records a check-in on behalf of a user, running the
// same validation and streak side effects as the chat flow.
func (s *APIV1Service) CreateCheckIn(c echo.Context) error {
	request := &createCheckInRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	ctx := c.Request().Context()
	user, err := s.Store.GetUser(ctx, &store.FindUser{ID: &request.UserID})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to get user")
	}
	if user == nil {
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	}

	result, err := s.Coach.CompleteCheckIn(ctx, user, &coach.CheckInData{
		Sleep:     request.Sleep,
		Energy:    request.Energy,
		Mood:      request.Mood,
		WillTrain: request.WillTrain,
	})
	if errors.Is(err, coach.ErrAlreadyCheckedIn) {
		return echo.NewHTTPError(http.StatusConflict, "check-in for today already exists")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create check-in")
	}

	return c.JSON(http.StatusCreated, convertCheckInsFromStore([]*store.CheckIn{result.CheckIn})[0])
}
