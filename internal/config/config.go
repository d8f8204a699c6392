// Package config loads server settings. Values come from built-in defaults,
// then an optional YAML file, then INVENTAR_* environment variables; command
// line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds every server setting.
type Config struct {
	DB                 string `yaml:"db"`
	Addr               string `yaml:"addr"`
	User               string `yaml:"user"`
	Log                string `yaml:"log"`
	Language           string `yaml:"language"`
	Currency           string `yaml:"currency"`
	LoginRatePerMinute int    `yaml:"login_rate_per_minute"`
	ThumbnailCache     int    `yaml:"thumbnail_cache"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DB:                 "inventar.sqlite3",
		Addr:               ":8080",
		User:               "Owner",
		Language:           "en",
		Currency:           "€",
		LoginRatePerMinute: 10,
		ThumbnailCache:     256,
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty) and then with the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"INVENTAR_DB":       &c.DB,
		"INVENTAR_ADDR":     &c.Addr,
		"INVENTAR_USER":     &c.User,
		"INVENTAR_LOG":      &c.Log,
		"INVENTAR_LANGUAGE": &c.Language,
		"INVENTAR_CURRENCY": &c.Currency,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"INVENTAR_LOGIN_RATE_PER_MINUTE": &c.LoginRatePerMinute,
		"INVENTAR_THUMBNAIL_CACHE":       &c.ThumbnailCache,
	}
	for key, dst := range ints {
		v, ok := lookup(key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.DB == "" {
		errs = append(errs, errors.New("db path must not be empty"))
	}
	if c.Addr == "" {
		errs = append(errs, errors.New("listen address must not be empty"))
	}
	if strings.TrimSpace(c.User) == "" {
		errs = append(errs, errors.New("user must not be empty"))
	}
	if c.LoginRatePerMinute <= 0 {
		errs = append(errs, errors.New("login_rate_per_minute must be positive"))
	}
	if c.ThumbnailCache <= 0 {
		errs = append(errs, errors.New("thumbnail_cache must be positive"))
	}
	return errors.Join(errs...)
}
