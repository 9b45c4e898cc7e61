package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int    `yaml:"port"`
		CookieSecure bool   `yaml:"cookie_secure"`
		BaseURL      string `yaml:"base_url"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecret    string `yaml:"jwt_secret"`
		SessionHours int    `yaml:"session_hours"`
	} `yaml:"auth"`

	RateLimit struct {
		PerMinute int `yaml:"per_minute"`
		Burst     int `yaml:"burst"`
	} `yaml:"rate_limit"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Sheets struct {
		Enabled         bool   `yaml:"enabled"`
		CredentialsFile string `yaml:"credentials_file"`
		SpreadsheetID   string `yaml:"spreadsheet_id"`
		SheetName       string `yaml:"sheet_name"`
	} `yaml:"sheets"`

	// Defaults applied to newly created universities.
	Ordering struct {
		DefaultTimezone   string `yaml:"default_timezone"`
		DefaultCutoffTime string `yaml:"default_cutoff_time"`
		DefaultMaxAdvance int    `yaml:"default_max_advance_days"`
	} `yaml:"ordering"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/mensa.db"
	}
	if cfg.Auth.SessionHours <= 0 {
		cfg.Auth.SessionHours = 24
	}
	if cfg.Ordering.DefaultTimezone == "" {
		cfg.Ordering.DefaultTimezone = "Asia/Ho_Chi_Minh"
	}
	if cfg.Ordering.DefaultCutoffTime == "" {
		cfg.Ordering.DefaultCutoffTime = "20:00"
	}
	if cfg.Ordering.DefaultMaxAdvance <= 0 {
		cfg.Ordering.DefaultMaxAdvance = 7
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("auth.jwt_secret is required")
	}

	return &cfg, nil
}
