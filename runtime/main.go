package main

import (
	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/jiralite/jiralite_api/services"
)

// @title JiraLite API
// @version 1.0
// @description Lightweight issue tracking with AI assists
func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.PostgresService{},
		&services.RedisService{},
		&services.MinIOService{},

		&services.JWTService{},
		&services.AuthService{},

		&services.ProjectService{},
		&services.IssueService{},
		&services.MediaService{},

		&services.AIRateLimitService{},
		&services.AIService{},

		&services.MonitoringService{},
		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure services")
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err).Msg("Service runtime error")
		return
	}
}
