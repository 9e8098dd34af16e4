package handlers_test

import (
	"github.com/little-lingo/tutor_api/services"
	"github.com/little-lingo/tutor_api/services/handlers"
)

// The concrete services must keep satisfying the handler interfaces.
var (
	_ handlers.UserServiceInterface         = (*services.UserService)(nil)
	_ handlers.EpisodeServiceInterface      = (*services.EpisodePromptService)(nil)
	_ handlers.ConversationServiceInterface = (*services.ConversationService)(nil)
	_ handlers.DeviceAuthServiceInterface   = (*services.DeviceAuthService)(nil)
	_ handlers.SessionServiceInterface      = (*services.SessionService)(nil)
)
