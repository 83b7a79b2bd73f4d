package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	env "github.com/caarlos0/env/v7"
	"github.com/joho/godotenv"
)

type Config struct {
	AuthAPI  AuthAPIConfig
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Path to the local SQLite file that caches the session between runs.
	// Empty means "<user config dir>/entregas/session.db".
	SessionDBPath string `env:"SESSION_DB_PATH"`
}

type AuthAPIConfig struct {
	BaseURL       string        `env:"AUTH_API_BASE_URL" envDefault:"https://backendsms-qrg9.onrender.com"`
	Timeout       time.Duration `env:"AUTH_API_TIMEOUT" envDefault:"10s"`
	RetryAttempts int           `env:"AUTH_API_RETRY_ATTEMPTS" envDefault:"3"`
}

func New(envPath string) (Config, error) {
	var c Config

	err := godotenv.Load(envPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	err = env.Parse(&c)
	if err != nil {
		return Config{}, err
	}

	if c.SessionDBPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return Config{}, err
		}

		c.SessionDBPath = filepath.Join(dir, "entregas", "session.db")
	}

	return c, nil
}
