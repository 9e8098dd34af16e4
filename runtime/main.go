package main

import (
	"github.com/little-lingo/tutor_api/services"

	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.StoreService{},
		&services.RedisService{},
		&services.JWTService{},
		&services.MonitoringService{},
		&services.RateLimitService{},
		&services.ArchiveService{},

		&services.UserService{},
		&services.EpisodePromptService{},
		&services.ConversationService{},
		&services.DeviceAuthService{},
		&services.SessionService{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
