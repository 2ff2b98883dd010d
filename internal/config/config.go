// Package config содержит логику чтения конфигурации сервиса выбора контейнера.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/mmeshcher/skip-selection/internal/model"
	"github.com/mmeshcher/skip-selection/internal/validation"
)

const (
	defaultRunAddress = "localhost:8080"
	defaultCatalogURL = "https://app.wewantwaste.co.uk/api/skips/by-location"
	defaultPostcode   = "NR32"
	defaultArea       = "Lowestoft"
)

// Config содержит параметры конфигурации сервиса выбора контейнера.
type Config struct {
	RunAddress   string        `env:"RUN_ADDRESS"`
	CatalogURL   string        `env:"CATALOG_URL"`
	Postcode     string        `env:"POSTCODE"`
	Area         string        `env:"AREA"`
	DatabaseURI  string        `env:"DATABASE_URI"`
	FetchTimeout time.Duration `env:"FETCH_TIMEOUT"`
}

// Location возвращает ключ локации каталога.
func (c *Config) Location() model.Location {
	return model.Location{Postcode: c.Postcode, Area: c.Area}
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Переменные окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envCfg := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.CatalogURL, "c", defaultCatalogURL, "skip catalog endpoint")
	flag.StringVar(&cfg.Postcode, "p", defaultPostcode, "postcode of the catalog location")
	flag.StringVar(&cfg.Area, "l", defaultArea, "area of the catalog location")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI for booking hand-off")
	flag.DurationVar(&cfg.FetchTimeout, "t", 0, "catalog request timeout, 0 disables it")

	flag.Parse()

	if envCfg.RunAddress != "" {
		cfg.RunAddress = envCfg.RunAddress
	}
	if envCfg.CatalogURL != "" {
		cfg.CatalogURL = envCfg.CatalogURL
	}
	if envCfg.Postcode != "" {
		cfg.Postcode = envCfg.Postcode
	}
	if envCfg.Area != "" {
		cfg.Area = envCfg.Area
	}
	if envCfg.DatabaseURI != "" {
		cfg.DatabaseURI = envCfg.DatabaseURI
	}
	if envCfg.FetchTimeout != 0 {
		cfg.FetchTimeout = envCfg.FetchTimeout
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}
	if cfg.CatalogURL == "" {
		cfg.CatalogURL = defaultCatalogURL
	}

	cfg.Postcode = strings.TrimSpace(cfg.Postcode)
	cfg.Area = strings.TrimSpace(cfg.Area)

	if cfg.FetchTimeout < 0 {
		return nil, fmt.Errorf("fetch timeout must not be negative, got %s", cfg.FetchTimeout)
	}
	if err := validation.ValidateLocation(cfg.Location()); err != nil {
		return nil, err
	}

	return cfg, nil
}
