package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"

	"github.com/miki-714/portfolio/internal/typewriter"
)

// Config is read from the environment (and a .env file when present).
type Config struct {
	Port    string `env:"PORT" envDefault:"8080"`
	GinMode string `env:"GIN_MODE"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"data/portfolio.db"`
	ContentFile  string `env:"CONTENT_FILE"`
	CVPath       string `env:"CV_PATH" envDefault:"static/cv.pdf"`
	HashSalt     string `env:"HASH_SALT"`

	SMTPHost string `env:"SMTP_HOST" envDefault:"smtp.gmail.com"`
	SMTPPort string `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser string `env:"SMTP_USER"`
	SMTPPass string `env:"SMTP_PASS"`
	ToEmail  string `env:"TO_EMAIL"`

	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminSecret   string `env:"ADMIN_SECRET"`

	ContactLimit  int           `env:"CONTACT_LIMIT" envDefault:"3"`
	ContactWindow time.Duration `env:"CONTACT_WINDOW" envDefault:"1h"`

	TypeDelay   time.Duration `env:"TYPE_DELAY" envDefault:"100ms"`
	HoldDelay   time.Duration `env:"HOLD_DELAY" envDefault:"1200ms"`
	DeleteDelay time.Duration `env:"DELETE_DELAY" envDefault:"50ms"`
	PauseDelay  time.Duration `env:"PAUSE_DELAY" envDefault:"300ms"`
	Cursor      string        `env:"CURSOR_GLYPH" envDefault:"|"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Timing().Validate(); err != nil {
		return Config{}, err
	}
	if cfg.ContactLimit < 1 {
		return Config{}, fmt.Errorf("CONTACT_LIMIT must be at least 1, got %d", cfg.ContactLimit)
	}
	return cfg, nil
}

// Timing returns the hero typewriter cadence.
func (c Config) Timing() typewriter.Timing {
	return typewriter.Timing{
		Type:   c.TypeDelay,
		Hold:   c.HoldDelay,
		Delete: c.DeleteDelay,
		Pause:  c.PauseDelay,
	}
}
