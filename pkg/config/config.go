// Package config loads server settings from .env, an optional config file and
// the environment, in increasing order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// FileEnvVar names the config file when Load is called with an empty path.
const FileEnvVar = "SWVNE_CONFIG"

type Config struct {
	ListenAddr     string   `env:"SWVNE_ADDR"             yaml:"listen_addr"      toml:"listen_addr"      json:"listen_addr"`
	ContentDir     string   `env:"SWVNE_CONTENT_DIR"      yaml:"content_dir"      toml:"content_dir"      json:"content_dir"`
	StaticDir      string   `env:"SWVNE_STATIC_DIR"       yaml:"static_dir"       toml:"static_dir"       json:"static_dir"`
	SessionSecret  string   `env:"SWVNE_SESSION_SECRET"   yaml:"session_secret"   toml:"session_secret"   json:"session_secret"`
	AdminPassword  string   `env:"SWVNE_ADMIN_PASSWORD"   yaml:"admin_password"   toml:"admin_password"   json:"admin_password"`
	MaxUploadBytes int64    `env:"SWVNE_MAX_UPLOAD_BYTES" yaml:"max_upload_bytes" toml:"max_upload_bytes" json:"max_upload_bytes"`
	CORSOrigins    []string `env:"SWVNE_CORS_ORIGINS"     yaml:"cors_origins"     toml:"cors_origins"     json:"cors_origins" envSeparator:","`

	// Content loading
	ContentCache bool `env:"SWVNE_CONTENT_CACHE" yaml:"content_cache" toml:"content_cache" json:"content_cache"`
	StrictMerge  bool `env:"SWVNE_STRICT_MERGE"  yaml:"strict_merge"  toml:"strict_merge"  json:"strict_merge"`

	VerifyUploads bool `env:"SWVNE_VERIFY_UPLOADS" yaml:"verify_uploads" toml:"verify_uploads" json:"verify_uploads"`
	Debug         bool `env:"SWVNE_DEBUG"          yaml:"debug"          toml:"debug"          json:"debug"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		ListenAddr:     ":8080",
		ContentDir:     "content",
		StaticDir:      "static",
		MaxUploadBytes: 16 << 20,
		VerifyUploads:  true,
	}
}

// Load builds a Config from defaults, then the file at path (or
// $SWVNE_CONFIG when path is empty), then environment variables. A .env file
// in the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading it.")
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv(FileEnvVar)
	}
	if path != "" {
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yml", ".yaml":
		err = yaml.Unmarshal(content, cfg)
	case ".toml":
		err = toml.NewDecoder(bytes.NewReader(content)).DisallowUnknownFields().Decode(cfg)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.DisallowUnknownFields()
		err = dec.Decode(cfg)
	default:
		return fmt.Errorf("unsupported config file extension %q", ext)
	}
	if err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SWVNE_SESSION_SECRET is required"))
	}
	if c.AdminPassword == "" {
		errs = append(errs, errors.New("SWVNE_ADMIN_PASSWORD is required"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max upload size must be positive"))
	}
	if c.ContentDir == "" || c.StaticDir == "" {
		errs = append(errs, errors.New("content and static directories are required"))
	}
	return errors.Join(errs...)
}
