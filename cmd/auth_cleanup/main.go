package main

import (
	"flag"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"fieldops/internal/config"
	"fieldops/internal/database"
	"fieldops/internal/domain"
	"fieldops/internal/pkg/logger"
)

// Deletes refresh tokens that expired or were revoked longer ago than
// the retention window. Meant to run from cron.
func main() {
	retention := flag.Duration("retention", 30*24*time.Hour, "how long to keep expired/revoked tokens")
	dryRun := flag.Bool("dry-run", false, "report what would be deleted without deleting")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Init("fieldops-auth-cleanup", true)
		log.Fatal().Err(err).Msg("config load failed")
	}
	logger.Init("fieldops-auth-cleanup", cfg.AppEnv == "dev")

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}

	cutoff := time.Now().Add(-*retention)
	query := db.Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", cutoff, cutoff)

	if *dryRun {
		var count int64
		if err := query.Model(&domain.RefreshToken{}).Count(&count).Error; err != nil {
			log.Fatal().Err(err).Msg("count failed")
		}
		log.Info().Int64("would_delete", count).Time("cutoff", cutoff).Msg("dry run")
		return
	}

	res := query.Delete(&domain.RefreshToken{})
	if res.Error != nil {
		log.Fatal().Err(res.Error).Msg("cleanup failed")
	}
	log.Info().Int64("deleted", res.RowsAffected).Time("cutoff", cutoff).Msg("cleanup complete")
}
