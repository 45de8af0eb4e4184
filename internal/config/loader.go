package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHTTPPort  = 8080
	defaultSQLiteDSN = "file:downtime.db?_pragma=foreign_keys(1)"
	defaultWatchSpec = "@every 1m"
)

// Config captures environment driven configuration values for the downtime service.
type Config struct {
	HTTPPort          int
	SQLiteDSN         string
	DisplayTimezone   string
	DisplayLocation   *time.Location
	LogLevel          slog.Level
	WatchEnabled      bool
	WatchSpec         string
	AdminUser         string
	AdminPasswordHash string
	// NotifyRate is the number of notifications per second; zero disables limiting.
	NotifyRate int
}

// File is the optional YAML file named by SCHEDULER_CONFIG_FILE. Environment
// variables override its values.
type File struct {
	HTTPPort        int    `yaml:"http_port"`
	SQLiteDSN       string `yaml:"sqlite_dsn"`
	DisplayTimezone string `yaml:"display_timezone"`
	LogLevel        string `yaml:"log_level"`
	Watch           struct {
		Enabled *bool  `yaml:"enabled"`
		Spec    string `yaml:"spec"`
	} `yaml:"watch"`
	Admin struct {
		User         string `yaml:"user"`
		PasswordHash string `yaml:"password_hash"`
	} `yaml:"admin"`
	NotifyRate *int `yaml:"notify_rate"`
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom builds a Config from getenv. Invalid values are collected and
// reported together.
func LoadFrom(getenv func(string) string) (Config, error) {
	cfg := Config{
		HTTPPort:     defaultHTTPPort,
		SQLiteDSN:    defaultSQLiteDSN,
		LogLevel:     slog.LevelInfo,
		WatchEnabled: true,
		WatchSpec:    defaultWatchSpec,
	}
	env := func(key string) string { return strings.TrimSpace(getenv(key)) }

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 4)

	var levelValue string
	if path := env("SCHEDULER_CONFIG_FILE"); path != "" {
		file, err := readFile(path)
		if err != nil {
			return Config{}, err
		}
		levelValue = file.apply(&cfg)
	}

	if portValue := env("SCHEDULER_HTTP_PORT"); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "SCHEDULER_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	} else if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = append(invalid, "http_port")
	}

	if dsn := env("SCHEDULER_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if tz := env("SCHEDULER_DISPLAY_TIMEZONE"); tz != "" {
		cfg.DisplayTimezone = tz
	}
	cfg.DisplayLocation = time.Local
	if cfg.DisplayTimezone != "" {
		loc, err := time.LoadLocation(cfg.DisplayTimezone)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_DISPLAY_TIMEZONE")
		} else {
			cfg.DisplayLocation = loc
		}
	}

	if value := env("SCHEDULER_LOG_LEVEL"); value != "" {
		levelValue = value
	}
	if levelValue != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(levelValue)); err != nil {
			invalid = append(invalid, "SCHEDULER_LOG_LEVEL")
		}
	}

	if value := env("SCHEDULER_WATCH_ENABLED"); value != "" {
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_WATCH_ENABLED")
		} else {
			cfg.WatchEnabled = enabled
		}
	}
	if spec := env("SCHEDULER_WATCH_SPEC"); spec != "" {
		cfg.WatchSpec = spec
	}

	if user := env("SCHEDULER_ADMIN_USER"); user != "" {
		cfg.AdminUser = user
	}
	if hash := env("SCHEDULER_ADMIN_PASSWORD_HASH"); hash != "" {
		cfg.AdminPasswordHash = hash
	}
	if cfg.AdminPasswordHash != "" && !strings.HasPrefix(cfg.AdminPasswordHash, "$argon2id$") {
		invalid = append(invalid, "SCHEDULER_ADMIN_PASSWORD_HASH")
	}
	if cfg.AdminPasswordHash != "" && cfg.AdminUser == "" {
		missing = append(missing, "SCHEDULER_ADMIN_USER")
	}

	if rateValue := env("SCHEDULER_NOTIFY_RATE"); rateValue != "" {
		rate, err := strconv.Atoi(rateValue)
		if err != nil || rate < 0 {
			invalid = append(invalid, "SCHEDULER_NOTIFY_RATE")
		} else {
			cfg.NotifyRate = rate
		}
	} else if cfg.NotifyRate < 0 {
		invalid = append(invalid, "notify_rate")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required configuration is missing: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid configuration values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func readFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config file: %w", err)
	}
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return File{}, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return file, nil
}

// apply copies set file values into cfg and returns the raw log level.
func (f File) apply(cfg *Config) string {
	if f.HTTPPort != 0 {
		cfg.HTTPPort = f.HTTPPort
	}
	if f.SQLiteDSN != "" {
		cfg.SQLiteDSN = f.SQLiteDSN
	}
	if f.DisplayTimezone != "" {
		cfg.DisplayTimezone = f.DisplayTimezone
	}
	if f.Watch.Enabled != nil {
		cfg.WatchEnabled = *f.Watch.Enabled
	}
	if f.Watch.Spec != "" {
		cfg.WatchSpec = f.Watch.Spec
	}
	if f.Admin.User != "" {
		cfg.AdminUser = f.Admin.User
	}
	if f.Admin.PasswordHash != "" {
		cfg.AdminPasswordHash = f.Admin.PasswordHash
	}
	if f.NotifyRate != nil {
		cfg.NotifyRate = *f.NotifyRate
	}
	return strings.TrimSpace(f.LogLevel)
}
