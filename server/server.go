package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stridecoach/stride/ai/llm"
	"github.com/stridecoach/stride/internal/profile"
	"github.com/stridecoach/stride/plugin/chat_apps"
	"github.com/stridecoach/stride/plugin/chat_apps/channels"
	"github.com/stridecoach/stride/plugin/chat_apps/channels/telegram"
	"github.com/stridecoach/stride/plugin/chat_apps/channels/whatsapp"
	apiv1 "github.com/stridecoach/stride/server/router/api/v1"
	"github.com/stridecoach/stride/server/router/webhook"
	"github.com/stridecoach/stride/server/service/coach"
	"github.com/stridecoach/stride/server/service/proactive"
	"github.com/stridecoach/stride/store"
)

// Server is the Stride HTTP server plus the proactive scheduler.
type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer    *echo.Echo
	channelRouter *channels.ChannelRouter
	scheduler     *proactive.Scheduler
}

// NewServer assembles every component: LLM service, chat channels,
// conversation flows, proactive engine, REST API and webhooks.
func NewServer(ctx context.Context, profile *profile.Profile, s *store.Store) (*Server, error) {
	echoServer := echo.New()
	echoServer.Debug = profile.IsDev()
	echoServer.HideBanner = true
	echoServer.HidePort = true

	echoServer.Use(middleware.Recover())
	echoServer.Use(middleware.CORS())
	echoServer.Use(requestLogger())

	server := &Server{
		Profile:    profile,
		Store:      s,
		echoServer: echoServer,
	}

	timezone, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		slog.Warn("invalid timezone, falling back to local", "timezone", profile.Timezone, "error", err)
		timezone = time.Local
	}

	var llmService llm.Service
	if profile.IsAIEnabled() {
		llmService, err = llm.NewService(&llm.Config{
			Provider: profile.LLMProvider,
			Model:    profile.LLMModel,
			APIKey:   profile.LLMAPIKey,
			BaseURL:  profile.LLMBaseURL,
			Timeout:  profile.LLMTimeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "failed to create LLM service")
		}
		// Best effort: cut first-request latency.
		go llmService.Warmup(ctx)
	} else {
		slog.Warn("AI disabled, coach replies use static fallbacks")
	}

	server.channelRouter = channels.NewChannelRouter()
	whatsappChannel, err := whatsapp.NewWhatsAppChannel(profile.WhatsAppBridgeURL, profile.WhatsAppBridgeToken)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create whatsapp channel")
	}
	server.channelRouter.Register(whatsappChannel)

	if profile.TelegramBotToken != "" {
		telegramChannel, err := telegram.NewTelegramChannel(&telegram.Config{BotToken: profile.TelegramBotToken})
		if err != nil {
			slog.Warn("failed to create telegram channel, continuing without it", "error", err)
		} else {
			server.channelRouter.Register(telegramChannel)
		}
	}

	coachService := coach.New(s, llmService)
	conversationHandler := coach.NewConversationHandler(coachService)

	engine := proactive.NewEngine(s, coachService, &channelDispatcher{router: server.channelRouter}, timezone)
	server.scheduler = proactive.NewScheduler(engine, s, timezone)

	apiV1Service := apiv1.NewAPIV1Service(profile.JWTSecret, profile, s, coachService)
	apiV1Service.RegisterRoutes(echoServer)

	webhookService := webhook.NewService(server.channelRouter, conversationHandler, s)
	webhookService.RegisterRoutes(echoServer)

	echoServer.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "Service ready.")
	})
	echoServer.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return server, nil
}

// Start launches the scheduler and the HTTP listener.
func (s *Server) Start(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return errors.Wrap(err, "failed to start scheduler")
	}

	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	slog.Info("server started",
		"address", address,
		"version", s.Profile.Version,
		"mode", s.Profile.Mode,
	)
	return s.echoServer.Start(address)
}

// Shutdown stops the scheduler, the HTTP server, the channels and the
// store, in that order.
func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s.scheduler.Stop()

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}
	if err := s.channelRouter.Close(); err != nil {
		slog.Error("failed to close chat channels", "error", err)
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}

	slog.Info("stride stopped properly")
}

// channelDispatcher adapts the channel router to the proactive
// engine's outbound interface. Proactive sends go out over WhatsApp.
type channelDispatcher struct {
	router *channels.ChannelRouter
}

func (d *channelDispatcher) SendMessage(ctx context.Context, phone, content string) (string, error) {
	return d.router.SendResponse(ctx, chat_apps.PlatformWhatsApp, &chat_apps.OutgoingMessage{
		PlatformChatID: phone,
		Content:        content,
	})
}

// requestLogger logs every request in slog key-value style.
func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogMethod:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("http request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
			)
			return nil
		},
	})
}
