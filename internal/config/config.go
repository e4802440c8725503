package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type App struct {
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	LogMode         string        `env:"LOG_MODE" env-default:"debug"` // debug, dev or prod
}

type Library struct {
	// PlaylistDir holds one file per playlist. Empty means
	// <user config dir>/songmeta/playlists.
	PlaylistDir   string `env:"PLAYLIST_DIR"`
	ScanWorkers   int    `env:"SCAN_WORKERS" env-default:"4"`
	ID3TextFrames bool   `env:"ID3_TEXT_FRAMES" env-default:"true"`
	TagFallback   bool   `env:"TAG_FALLBACK" env-default:"false"`
	// MetaRoots are the directories whose files the HTTP API reads by path.
	// Empty allows uploads only.
	MetaRoots []string `env:"META_ROOTS" env-separator:","`
}

type ServerConfig struct {
	Host         string        `env:"SERVER_HOST" env-default:"127.0.0.1"`
	Port         string        `env:"HTTP_PORT" env-default:"8080"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
}

type Config struct {
	Server  ServerConfig
	App     App
	Library Library
}

// Load reads the configuration from the environment. Variables from envFile
// are added first without overriding ones already set; a missing envFile is
// not an error.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read env: %w", err)
	}

	switch cfg.App.LogMode {
	case "debug", "dev", "prod":
	default:
		return nil, fmt.Errorf("invalid LOG_MODE %q: want debug, dev or prod", cfg.App.LogMode)
	}
	if cfg.Library.ScanWorkers < 1 {
		cfg.Library.ScanWorkers = 1
	}
	if cfg.Library.PlaylistDir == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config dir: %w", err)
		}
		cfg.Library.PlaylistDir = filepath.Join(dir, "songmeta", "playlists")
	}
	return &cfg, nil
}

func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// Usage describes the environment variables.
func Usage() string {
	var cfg Config
	text, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return ""
	}
	return text
}
