// cmd/migrate/main.go
package main

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/muxo-dispatch/internal/config"
	"github.com/unclebandit/muxo-dispatch/internal/db"
	"github.com/unclebandit/muxo-dispatch/internal/logging"
	"github.com/unclebandit/muxo-dispatch/migrations"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogPretty)

	if cfg.DBDSN == "" {
		log.Fatal().Msg("DB_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := db.Open(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()

	all, err := migrations.All()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to read migrations")
	}

	for _, m := range all {
		if _, err := conn.ExecContext(ctx, m.SQL); err != nil {
			log.Fatal().Err(err).Str("file", m.Name).Msg("failed to apply migration")
		}
		log.Info().Str("file", m.Name).Msg("applied")
	}

	log.Info().Int("count", len(all)).Msg("database migrations completed successfully")
}
