package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment conventions.
const (
	EnvPrefix     = "INCOME_"
	EnvConfigFile = EnvPrefix + "CONFIG"
	defaultDotEnv = ".env"
)

// LoadOption customizes Load.
type LoadOption func(*loadSettings)

type loadSettings struct {
	file   string
	dotenv string
}

// WithFile sets the YAML config file, taking precedence over INCOME_CONFIG.
func WithFile(path string) LoadOption {
	return func(s *loadSettings) {
		if path != "" {
			s.file = path
		}
	}
}

// WithDotEnv sets the .env file read before the environment. An empty path disables it.
func WithDotEnv(path string) LoadOption {
	return func(s *loadSettings) {
		s.dotenv = path
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) named by WithFile or INCOME_CONFIG
//  3. env (prefix INCOME_), including values from a .env file
func Load(_ context.Context, opts ...LoadOption) (*Config, error) {
	s := loadSettings{dotenv: defaultDotEnv}
	for _, opt := range opts {
		opt(&s)
	}

	// .env never overrides variables already present in the process.
	if s.dotenv != "" {
		if err := godotenv.Load(s.dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, s.dotenv, err)
		}
	}

	if s.file == "" {
		s.file = os.Getenv(EnvConfigFile)
	}

	k := koanf.New(".")

	if s.file != "" {
		if err := k.Load(file.Provider(s.file), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, s.file, err)
		}
	}

	// Map env keys like INCOME_ML_BASE_URL -> ml_base_url (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.TrimPrefix(strings.ToLower(key), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := New()
	if err := k.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
