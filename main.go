// main.go
//
// Entry point for the Kavi dice-game server.
// Responsibilities:
//   - Load .env (best effort) and configure zerolog.
//   - Open SQLite and run embedded migrations.
//   - Wire the session store, RNG and HTTP server, then serve.

package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mayor/kavi-server/internal/dice"
	"github.com/mayor/kavi-server/internal/httpserver"
	"github.com/mayor/kavi-server/internal/store"
)

func main() {
	// .env is optional; real deployments set env vars directly.
	_ = godotenv.Load()

	configureLogging()

	dbPath := getEnv("DB_PATH", "./data/app.db")
	db, err := openDB(dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dbPath).Msg("open database")
	}
	defer db.Close()

	if err := migrate(db); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}

	rng := dice.NewLockedRand(time.Now().UnixNano())
	srv := httpserver.New(store.NewMemoryStore(), db, rng)

	addr := ":" + getEnv("PORT", "8080")
	log.Info().Str("addr", addr).Str("db", dbPath).Msg("kavi server listening")
	if err := srv.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// configureLogging sets the global zerolog level from LOG_LEVEL and
// switches to human-friendly console output outside production.
func configureLogging() {
	level, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info"))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if os.Getenv("NODE_ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
