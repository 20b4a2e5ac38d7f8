package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/stridecoach/stride/store"
)

type proactiveMessageResponse struct {
	ID          int32  `json:"id"`
	UID         string `json:"uid"`
	UserID      int32  `json:"user_id"`
	MessageType string `json:"message_type"`
	Content     string `json:"content"`
	Reason      string `json:"reason"`
	Context     string `json:"context"`
	Status      string `json:"status"`
	SentTs      int64  `json:"sent_ts"`
}

func convertProactiveMessagesFromStore(messages []*store.ProactiveMessage) []*proactiveMessageResponse {
	response := make([]*proactiveMessageResponse, 0, len(messages))
	for _, message := range messages {
		response = append(response, &proactiveMessageResponse{
			ID:          message.ID,
			UID:         message.UID,
			UserID:      message.UserID,
			MessageType: string(message.MessageType),
			Content:     message.Content,
			Reason:      message.Reason,
			Context:     message.Context,
			Status:      string(message.Status),
			SentTs:      message.SentTs,
		})
	}
	return response
}

// ListProactiveMessages returns the proactive send log, optionally
// filtered by type.
func (s *APIV1Service) ListProactiveMessages(c echo.Context) error {
	find := &store.FindProactiveMessage{}
	if v := c.QueryParam("type"); v != "" {
		messageType := store.ProactiveMessageType(v)
		if !messageType.IsValid() {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown message type")
		}
		find.MessageType = &messageType
	}
	applyPagination(c, &find.Limit, &find.Offset)

	messages, err := s.Store.ListProactiveMessages(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list proactive messages")
	}
	return c.JSON(http.StatusOK, convertProactiveMessagesFromStore(messages))
}

type analyticsEventResponse struct {
	ID        int32  `json:"id"`
	EventType string `json:"event_type"`
	UserID    *int32 `json:"user_id"`
	Metadata  string `json:"metadata"`
	CreatedTs int64  `json:"created_ts"`
}

// ListAnalyticsEvents returns product events for the analytics page.
func (s *APIV1Service) ListAnalyticsEvents(c echo.Context) error {
	find := &store.FindAnalyticsEvent{}
	if v := c.QueryParam("event_type"); v != "" {
		find.EventType = &v
	}
	if v := c.QueryParam("user_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 32); err == nil {
			userID := int32(id)
			find.UserID = &userID
		}
	}
	applyPagination(c, &find.Limit, &find.Offset)

	events, err := s.Store.ListAnalyticsEvents(c.Request().Context(), find)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list analytics events")
	}

	response := make([]*analyticsEventResponse, 0, len(events))
	for _, event := range events {
		response = append(response, &analyticsEventResponse{
			ID:        event.ID,
			EventType: event.EventType,
			UserID:    event.UserID,
			Metadata:  event.Metadata,
			CreatedTs: event.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, response)
}
