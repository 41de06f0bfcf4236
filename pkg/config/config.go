// Package config loads the gallery configuration from a TOML file, a .env
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Environment variables that override the file configuration.
const (
	EnvAPIKey   = "PIXABAY_API_KEY"
	EnvRedisURL = "REDIS_URL"
	EnvPort     = "PORT"
	EnvHost     = "HOST"
	EnvLogLevel = "LOG_LEVEL"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Pixabay PixabayConfig `toml:"pixabay"`
	Redis   RedisConfig   `toml:"redis"`
	Gallery GalleryConfig `toml:"gallery"`
	Log     LogConfig     `toml:"log"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
	// ShutdownTimeout bounds how long in-flight requests may take on shutdown.
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

type PixabayConfig struct {
	APIKey      string   `toml:"api_key"`
	BaseURL     string   `toml:"base_url"`
	ImageType   string   `toml:"image_type"`
	Orientation string   `toml:"orientation"`
	SafeSearch  bool     `toml:"safesearch"`
	Timeout     Duration `toml:"timeout"`
}

// RedisConfig enables the shared rate limit store. An empty URL keeps the
// quota state in process.
type RedisConfig struct {
	URL string `toml:"url"`
}

type GalleryConfig struct {
	PageSize      int      `toml:"page_size"`
	ScrollDelay   Duration `toml:"scroll_delay"`
	ScrollEntries int      `toml:"scroll_entries"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Pretty bool   `toml:"pretty"`
}

// Duration is a time.Duration written as a string ("100ms", "30s") in TOML.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Pixabay: PixabayConfig{
			BaseURL:     "https://pixabay.com/api/",
			ImageType:   "photo",
			Orientation: "horizontal",
			SafeSearch:  true,
			Timeout:     Duration{30 * time.Second},
		},
		Gallery: GalleryConfig{
			PageSize:      40,
			ScrollDelay:   Duration{100 * time.Millisecond},
			ScrollEntries: 2,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration. A missing file (or an empty path) yields the
// defaults; keys absent from the file keep their default value. Variables
// from envFiles are loaded without overriding the process environment, then
// the environment overrides are applied. Load does not validate.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("reading config file: %w", err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("unmarshaling config: %w", err)
			}
		}
	}

	if err := LoadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnvFiles loads KEY=VALUE files into the environment. Files that do not
// exist are skipped and variables already set are kept.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading env file %s: %w", f, err)
		}
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Pixabay.APIKey = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv(EnvHost); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return nil
}

// Validate checks the settings every command depends on.
func (c *Config) Validate() error {
	if c.Pixabay.APIKey == "" {
		return fmt.Errorf("pixabay api key is required (set %s or pixabay.api_key)", EnvAPIKey)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port out of range: %d", c.Server.Port)
	}
	if c.Gallery.PageSize < 3 || c.Gallery.PageSize > 200 {
		return fmt.Errorf("gallery page size must be within [3, 200] (got %d)", c.Gallery.PageSize)
	}
	if c.Gallery.ScrollEntries < 0 {
		return fmt.Errorf("gallery scroll entries cannot be negative (got %d)", c.Gallery.ScrollEntries)
	}
	if c.Gallery.ScrollDelay.Duration < 0 {
		return fmt.Errorf("gallery scroll delay cannot be negative")
	}
	return nil
}

// Addr is the listen address of the web server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
