package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	appContext "github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/little-lingo/tutor_api/services/handlers"
	"github.com/little-lingo/tutor_api/shared"
)

// HttpService owns the API listener. Handlers return errors; the fiber
// ErrorHandler is the single place they become HTTP responses.
type HttpService struct {
	appContext.DefaultService

	userSvc         *UserService
	episodeSvc      *EpisodePromptService
	conversationSvc *ConversationService
	deviceAuthSvc   *DeviceAuthService
	sessionSvc      *SessionService
	rateLimitSvc    *RateLimitService
	monitoringSvc   *MonitoringService

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *appContext.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 8000
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.userSvc = svc.Service(USER_SVC).(*UserService)
	svc.episodeSvc = svc.Service(EPISODE_SVC).(*EpisodePromptService)
	svc.conversationSvc = svc.Service(CONVERSATION_SVC).(*ConversationService)
	svc.deviceAuthSvc = svc.Service(DEVICE_AUTH_SVC).(*DeviceAuthService)
	svc.sessionSvc = svc.Service(SESSION_SVC).(*SessionService)
	svc.rateLimitSvc = svc.Service(RATE_LIMIT_SVC).(*RateLimitService)
	svc.monitoringSvc = svc.Service(MONITORING_SVC).(*MonitoringService)

	svc.server = fiber.New(fiber.Config{
		ErrorHandler: svc.handleError,
	})

	svc.server.Use(recover.New())
	svc.server.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	svc.server.Use(MonitoringMiddleware(svc.monitoringSvc))

	svc.server.Get("/ping", svc.ping)

	v1 := svc.server.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	svc.registerUserRoutes(v1)
	svc.registerEpisodeRoutes(v1)
	svc.registerConversationRoutes(v1)
	svc.registerDeviceRoutes(v1)
	svc.registerSessionRoutes(v1)

	log.Info().Int("port", svc.port).Msg("API server started")
	return svc.server.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *HttpService) registerUserRoutes(v1 fiber.Router) {
	h := handlers.NewUserHandler(svc.userSvc)

	users := v1.Group("/users", svc.rateLimitSvc.Middleware("default"))
	users.Post("/", h.CreateUser)
	users.Get("/", h.ListUsers)
	users.Get("/by-device/:device_id", h.GetUserByDevice)
	users.Get("/:email", h.GetUser)
	users.Delete("/:email", h.DeleteUser)
	users.Put("/:email/progress", h.UpdateProgress)
	users.Post("/:email/learning", h.AddLearningData)
	users.Get("/:email/analytics", h.GetUserAnalytics)
}

func (svc *HttpService) registerEpisodeRoutes(v1 fiber.Router) {
	h := handlers.NewEpisodeHandler(svc.episodeSvc)

	episodes := v1.Group("/episodes", svc.rateLimitSvc.Middleware("default"))
	episodes.Post("/", h.CreateEpisode)
	episodes.Get("/", h.ListEpisodes)
	episodes.Get("/popular", h.GetPopularEpisodes)
	episodes.Get("/search", h.SearchEpisodes)
	episodes.Get("/overview", h.GetEpisodesOverview)
	episodes.Get("/difficulty/:level", h.GetEpisodesByDifficulty)
	episodes.Get("/age-group/:group", h.GetEpisodesByAgeGroup)
	episodes.Get("/:season", h.GetSeasonEpisodes)
	episodes.Get("/:season/:episode", h.GetEpisode)
	episodes.Patch("/:season/:episode", h.UpdateEpisode)
	episodes.Delete("/:season/:episode", h.DeleteEpisode)
	episodes.Post("/:season/:episode/usage", h.RecordUsage)
	episodes.Get("/:season/:episode/analytics", h.GetEpisodeAnalytics)
}

func (svc *HttpService) registerConversationRoutes(v1 fiber.Router) {
	h := handlers.NewConversationHandler(svc.conversationSvc)

	conversations := v1.Group("/conversations", svc.rateLimitSvc.Middleware("default"))
	conversations.Post("/", h.StartConversation)
	conversations.Post("/summaries", h.CreateSummary)
	conversations.Get("/user/:email", h.GetUserConversations)
	conversations.Get("/user/:email/progression", h.GetLearningProgression)
	conversations.Get("/user/:email/search", h.SearchConversations)
	conversations.Get("/episode/:season/:episode", h.GetEpisodeConversations)
	conversations.Get("/:id", h.GetTranscript)
	conversations.Delete("/:id", h.DeleteConversation)
	conversations.Post("/:id/messages", h.AddMessage)
	conversations.Post("/:id/finish", h.FinishConversation)
	conversations.Get("/:id/summary", h.GetSummary)
	conversations.Get("/:id/analytics", h.GetConversationAnalytics)
}

func (svc *HttpService) registerDeviceRoutes(v1 fiber.Router) {
	h := handlers.NewDeviceHandler(svc.deviceAuthSvc)

	devices := v1.Group("/devices")
	devices.Post("/register", svc.rateLimitSvc.Middleware("register_device"), h.RegisterDevice)
	devices.Post("/claim-token", svc.rateLimitSvc.Middleware("claim"), h.GenerateClaimToken)
	devices.Post("/claim", svc.rateLimitSvc.Middleware("claim"), h.ClaimDevice)
	devices.Post("/auth", svc.rateLimitSvc.Middleware("claim"), h.AuthenticateDevice)
	devices.Post("/heartbeat", svc.deviceAuthSvc.RequiredDeviceAuth(), h.Heartbeat)
	devices.Get("/active", h.GetActiveDevices)
	devices.Get("/user/:email", h.GetUserDevices)
	devices.Get("/:device_id", h.GetDevice)
}

func (svc *HttpService) registerSessionRoutes(v1 fiber.Router) {
	h := handlers.NewSessionHandler(svc.sessionSvc)

	sessions := v1.Group("/sessions", svc.rateLimitSvc.Middleware("session"))
	sessions.Get("/active", h.GetActiveSessions)
	sessions.Use(svc.deviceAuthSvc.RequiredDeviceAuth())
	sessions.Post("/", h.StartSession)
	sessions.Post("/turns", h.AppendTurn)
	sessions.Post("/end", h.EndSession)
	sessions.Get("/current", h.GetCurrentSession)
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")
	return shared.ResponseOK(c, "Success", "pong")
}

// handleError maps service errors to responses. Anything that is not an
// AppError or a fiber routing error is logged and rendered as a generic
// 500 so internals never leak.
func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if appErr.StatusCode >= 500 {
			log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
		}
		return shared.ResponseError(c, appErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("Unhandled error")
	return shared.ResponseJSON(c, fiber.StatusInternalServerError, "Internal Server Error", nil)
}
