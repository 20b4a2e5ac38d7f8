// Package webhook exposes the inbound endpoints the chat platforms
// call: message webhooks and delivery-status callbacks.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stridecoach/stride/plugin/chat_apps"
	"github.com/stridecoach/stride/plugin/chat_apps/channels"
	"github.com/stridecoach/stride/plugin/chat_apps/channels/whatsapp"
	channelmetrics "github.com/stridecoach/stride/plugin/chat_apps/metrics"
	"github.com/stridecoach/stride/server/metrics"
	"github.com/stridecoach/stride/server/service/coach"
	"github.com/stridecoach/stride/store"
)

// handleTimeout bounds one inbound message cycle, LLM call included.
const handleTimeout = 60 * time.Second

// Service wires chat platform webhooks to the conversation flows.
type Service struct {
	router       *channels.ChannelRouter
	conversation *coach.ConversationHandler
	store        *store.Store
}

// NewService creates the webhook service.
func NewService(router *channels.ChannelRouter, conversation *coach.ConversationHandler, s *store.Store) *Service {
	return &Service{
		router:       router,
		conversation: conversation,
		store:        s,
	}
}

// RegisterRoutes mounts the webhook endpoints. They carry their own
// platform-level validation instead of the backoffice JWT.
func (s *Service) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/:platform", s.HandleMessage)
	e.POST("/webhooks/:platform/status", s.HandleStatus)
}

// HandleMessage processes one inbound chat message: validate, parse,
// run the conversation flow, send the reply back on the same channel.
func (s *Service) HandleMessage(c echo.Context) error {
	platform := chat_apps.Platform(c.Param("platform"))
	if !platform.IsValid() {
		return echo.NewHTTPError(http.StatusNotFound, "unknown platform")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}

	started := time.Now()
	registry := channelmetrics.GetRegistry()
	registry.RecordEvent(string(platform), channelmetrics.EventWebhookReceived, 0, nil)

	ctx, cancel := context.WithTimeout(c.Request().Context(), handleTimeout)
	defer cancel()

	message, err := s.router.HandleWebhook(ctx, platform, headerMap(c), body)
	if err != nil {
		registry.RecordEvent(string(platform), channelmetrics.EventWebhookParseError, time.Since(started), err)
		metrics.WebhookRequests.WithLabelValues(string(platform), "rejected").Inc()
		slog.Warn("webhook rejected", "platform", platform, "error", err)
		// Platforms retry on non-2xx; a bad payload will never parse, so
		// acknowledge it.
		return c.NoContent(http.StatusOK)
	}
	registry.RecordEvent(string(platform), channelmetrics.EventWebhookValidated, 0, nil)

	phone := message.Phone
	if phone == "" {
		phone = message.PlatformUserID
	}

	reply, err := s.conversation.HandleMessage(ctx, phone, message.Content)
	if err != nil {
		registry.RecordEvent(string(platform), channelmetrics.EventResponseError, time.Since(started), err)
		metrics.WebhookRequests.WithLabelValues(string(platform), "error").Inc()
		slog.Error("failed to handle message", "platform", platform, "error", err)
		return c.NoContent(http.StatusOK)
	}
	registry.RecordEvent(string(platform), channelmetrics.EventMessageProcessed, time.Since(started), nil)

	if reply != "" {
		if _, err := s.router.SendResponse(ctx, platform, &chat_apps.OutgoingMessage{
			PlatformChatID: message.PlatformChatID,
			Content:        reply,
		}); err != nil {
			registry.RecordEvent(string(platform), channelmetrics.EventResponseError, 0, err)
			slog.Error("failed to send reply", "platform", platform, "error", err)
		} else {
			registry.RecordEvent(string(platform), channelmetrics.EventResponseSent, 0, nil)
		}
	}

	metrics.WebhookRequests.WithLabelValues(string(platform), "ok").Inc()
	return c.NoContent(http.StatusOK)
}

// HandleStatus processes a delivery-status callback and moves the
// matching proactive message along its status transitions.
func (s *Service) HandleStatus(c echo.Context) error {
	platform := chat_apps.Platform(c.Param("platform"))
	if platform != chat_apps.PlatformWhatsApp {
		return echo.NewHTTPError(http.StatusNotFound, "unknown platform")
	}

	channel, ok := s.router.GetChannel(platform).(*whatsapp.WhatsAppChannel)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "channel not registered")
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read body")
	}
	if err := channel.ValidateWebhook(c.Request().Context(), headerMap(c), body); err != nil {
		metrics.WebhookRequests.WithLabelValues(string(platform), "rejected").Inc()
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
	}

	status, err := channel.ParseStatusUpdate(body)
	if err != nil {
		slog.Warn("unparseable status callback", "platform", platform, "error", err)
		return c.NoContent(http.StatusOK)
	}

	if err := s.store.UpdateProactiveMessageStatus(c.Request().Context(), &store.UpdateProactiveMessageStatus{
		DispatchID: status.DispatchID,
		Status:     store.ProactiveMessageStatus(status.Status),
	}); err != nil {
		slog.Error("failed to update delivery status", "dispatch_id", status.DispatchID, "error", err)
	}

	metrics.WebhookRequests.WithLabelValues(string(platform), "ok").Inc()
	return c.NoContent(http.StatusOK)
}

func headerMap(c echo.Context) map[string]string {
	headers := map[string]string{}
	for name := range c.Request().Header {
		headers[name] = c.Request().Header.Get(name)
	}
	return headers
}
