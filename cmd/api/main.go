package main

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/adityahegde/counselflow/internal/pkg/logger"
	"github.com/adityahegde/counselflow/internal/server"
)

// @title CounselFlow API
// @version 1.0
// @description Multi-round counseling and seat allotment service for engineering college admissions

// @contact.name API Support
// @contact.email support@counselflow.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	// Environment file is optional; real deployments inject variables.
	_ = godotenv.Load()

	srv, err := server.NewServer()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
