package config

import "time"

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	Env         string `env:"APP_ENV" default:"dev"`

	NexmoAPIKey    string `env:"NEXMO_API_KEY"`
	NexmoAPISecret string `env:"NEXMO_API_SECRET"`
	NexmoFrom      string `env:"NEXMO_FROM" default:"BookCorner"`

	// RenewalGraceDays is how many days past due a renewal is still accepted.
	RenewalGraceDays int           `env:"RENEWAL_GRACE_DAYS" default:"0"`
	ReminderInterval time.Duration `env:"REMINDER_INTERVAL" default:"24h"`
	ReminderStagger  time.Duration `env:"REMINDER_STAGGER" default:"1s"`
}
