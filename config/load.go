package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func Load() App {
	// .env is optional, real env always wins
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file", "err", err)
	}

	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		JWTSecret:   getenv("JWT_SECRET", "local_dev_secret"),
		Env:         getenv("APP_ENV", "dev"),

		NexmoAPIKey:    os.Getenv("NEXMO_API_KEY"),
		NexmoAPISecret: os.Getenv("NEXMO_API_SECRET"),
		NexmoFrom:      getenv("NEXMO_FROM", "BookCorner"),

		RenewalGraceDays: getint("RENEWAL_GRACE_DAYS", 0),
		ReminderInterval: getdur("REMINDER_INTERVAL", 24*time.Hour),
		ReminderStagger:  getdur("REMINDER_STAGGER", time.Second),
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("bad int env, using default", "key", k, "value", v)
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("bad duration env, using default", "key", k, "value", v)
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
