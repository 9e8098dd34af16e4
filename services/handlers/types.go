package handlers

import (
	"context"

	"github.com/little-lingo/tutor_api/dto"
	"github.com/little-lingo/tutor_api/model"
)

type UserServiceInterface interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*model.EnhancedUser, error)
	GetUserByEmail(ctx context.Context, email string) (*model.EnhancedUser, error)
	GetUserByDeviceID(ctx context.Context, deviceID string) (*model.EnhancedUser, error)
	UpdateProgress(ctx context.Context, email string, req *dto.UpdateProgressRequest) (*model.EnhancedUser, error)
	AddLearningData(ctx context.Context, email string, req *dto.AddLearningDataRequest) (*model.EnhancedUser, error)
	GetAllUsers(ctx context.Context) ([]*model.EnhancedUser, error)
	GetUsersByStatus(ctx context.Context, status model.UserStatus) ([]*model.EnhancedUser, error)
	GetUserAnalytics(ctx context.Context, email string) (*dto.UserAnalyticsResponse, error)
	DeleteUser(ctx context.Context, email string) error
}

type EpisodeServiceInterface interface {
	CreateEpisodePrompt(ctx context.Context, req *dto.CreateEpisodeRequest) (*model.EpisodePrompt, error)
	GetEpisodePrompt(ctx context.Context, season, episode int) (*model.EpisodePrompt, error)
	UpdateEpisodePrompt(ctx context.Context, season, episode int, updates map[string]interface{}) (*model.EpisodePrompt, error)
	RecordUsage(ctx context.Context, season, episode int, req *dto.RecordUsageRequest) (*model.EpisodePrompt, error)
	GetSeasonEpisodes(ctx context.Context, season int) ([]*model.EpisodePrompt, error)
	GetAllEpisodes(ctx context.Context) ([]*model.EpisodePrompt, error)
	GetEpisodesByDifficulty(ctx context.Context, level string) ([]*model.EpisodePrompt, error)
	GetEpisodesByAgeGroup(ctx context.Context, ageGroup string) ([]*model.EpisodePrompt, error)
	GetEpisodeAnalytics(ctx context.Context, season, episode int) (*dto.EpisodeAnalyticsResponse, error)
	GetPopularEpisodes(ctx context.Context, limit int) ([]*model.EpisodePrompt, error)
	SearchEpisodes(ctx context.Context, query string) ([]*model.EpisodePrompt, error)
	GetEpisodesOverview(ctx context.Context) (*dto.EpisodesOverviewResponse, error)
	DeleteEpisodePrompt(ctx context.Context, season, episode int) error
}

type ConversationServiceInterface interface {
	StartConversation(ctx context.Context, req *dto.StartConversationRequest) (*model.ConversationTranscript, error)
	GetConversationTranscript(ctx context.Context, conversationID string) (*model.ConversationTranscript, error)
	AddMessage(ctx context.Context, conversationID string, req *dto.AddMessageRequest) (*model.ConversationTranscript, error)
	FinishConversation(ctx context.Context, conversationID, status string) (*model.ConversationTranscript, error)
	CreateConversationSummary(ctx context.Context, req *dto.CreateSummaryRequest) (*model.ConversationSummary, error)
	GetConversationSummary(ctx context.Context, conversationID string) (*model.ConversationSummary, error)
	GetUserConversations(ctx context.Context, email string, limit int) ([]*model.ConversationTranscript, error)
	GetEpisodeConversations(ctx context.Context, season, episode int) ([]*model.ConversationTranscript, error)
	GetConversationAnalytics(ctx context.Context, conversationID string) (*dto.ConversationAnalyticsResponse, error)
	GetUserLearningProgression(ctx context.Context, email string) (*dto.LearningProgressionResponse, error)
	SearchConversations(ctx context.Context, email, query string) ([]*model.ConversationTranscript, error)
	DeleteConversation(ctx context.Context, conversationID string) error
}

type DeviceAuthServiceInterface interface {
	RegisterDevice(ctx context.Context, req *dto.RegisterDeviceRequest) (*model.DeviceRegistration, error)
	GenerateClaimToken(ctx context.Context, email string) (string, *model.ClaimToken, error)
	ClaimDevice(ctx context.Context, req *dto.ClaimDeviceRequest) (*model.DeviceRegistration, error)
	AuthenticateDevice(ctx context.Context, req *dto.DeviceAuthRequest) (*dto.DeviceAuthResponse, error)
	Heartbeat(ctx context.Context, deviceID, firmware string) error
	GetActiveDevices(ctx context.Context) ([]*model.DeviceRegistration, error)
	GetUserDevices(ctx context.Context, email string) ([]*model.DeviceRegistration, error)
	GetDevice(ctx context.Context, deviceID string) (*model.DeviceRegistration, error)
}

type SessionServiceInterface interface {
	StartSession(ctx context.Context, deviceID string, req *dto.StartSessionRequest) (*model.ActiveSession, error)
	AppendTurn(ctx context.Context, deviceID string, req *dto.TurnRequest) (*model.ActiveSession, error)
	EndSession(ctx context.Context, deviceID string, req *dto.EndSessionRequest) (*model.ConversationTranscript, error)
	ActiveSessions() []*model.ActiveSession
	GetSession(deviceID string) (*model.ActiveSession, error)
}
