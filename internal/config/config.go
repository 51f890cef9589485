// Package config loads server settings from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds everything the server needs at startup.
type Config struct {
	Addr           string
	MaxCards       int
	MinPlayers     int
	SendBuffer     int
	OriginPatterns []string
	LogLevel       string
	LogFormat      string
	KeySecret      string
	RedisURL       string
	DatabaseURL    string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:           ":8080",
		MaxCards:       2,
		MinPlayers:     3,
		SendBuffer:     32,
		OriginPatterns: []string{"*"},
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load reads the given env files (".env" when none are named), then overlays
// the process environment on the defaults. Missing env files are not an error.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Default()
	cfg.Addr = getEnv("APUESTAS_ADDR", cfg.Addr)
	cfg.LogLevel = getEnv("APUESTAS_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("APUESTAS_LOG_FORMAT", cfg.LogFormat)
	cfg.KeySecret = os.Getenv("APUESTAS_KEY_SECRET")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if v := os.Getenv("APUESTAS_ORIGINS"); v != "" {
		cfg.OriginPatterns = splitList(v)
	}

	var err error
	if cfg.MaxCards, err = getInt("APUESTAS_MAX_CARDS", cfg.MaxCards); err != nil {
		return Config{}, err
	}
	if cfg.MinPlayers, err = getInt("APUESTAS_MIN_PLAYERS", cfg.MinPlayers); err != nil {
		return Config{}, err
	}
	if cfg.SendBuffer, err = getInt("APUESTAS_SEND_BUFFER", cfg.SendBuffer); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Addr == "":
		return errors.New("config: listen address is empty")
	case c.MaxCards < 1:
		return fmt.Errorf("config: max cards must be at least 1, got %d", c.MaxCards)
	case c.MinPlayers < 2:
		return fmt.Errorf("config: min players must be at least 2, got %d", c.MinPlayers)
	case c.SendBuffer < 1:
		return fmt.Errorf("config: send buffer must be at least 1, got %d", c.SendBuffer)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: unknown log format %q", c.LogFormat)
	}
	return nil
}

// NewLogger builds the process logger described by the config.
func (c Config) NewLogger() *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(c.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	if c.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return log
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
