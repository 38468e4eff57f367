package main

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sneuz/internal/config"
	"sneuz/internal/db"
	"sneuz/internal/handler"
	"sneuz/internal/repository"
	"sneuz/internal/router"
	"sneuz/internal/service"
)

func main() {
	cfg := config.Load()

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer database.Close()

	if err := db.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)

	authService := service.NewAuthService(userRepo, settingsRepo, cfg.JWTSecret, cfg.TokenTTL)

	authHandler := handler.NewAuthHandler(authService, userRepo)
	sessionHandler := handler.NewSessionHandler(sessionRepo)
	settingsHandler := handler.NewSettingsHandler(settingsRepo, userRepo)

	engine := router.New(authService, authHandler, sessionHandler, settingsHandler, cfg.CORSOrigins)
	log.Info().Str("port", cfg.Port).Msg("sneuz backend listening")
	if err := engine.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("run server")
	}
}
