// Package config loads settings for both binaries from the environment,
// an optional .env file and an optional config.yaml.
//
// Environment variables use the POSTMUSE_ prefix with dots replaced by
// underscores, e.g. POSTMUSE_DATABASE_PATH or POSTMUSE_JWT_SECRET. The
// reminder output file additionally honours GITHUB_OUTPUT.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/sakif/postmuse/internal/clock"
	"github.com/sakif/postmuse/internal/model"
	"github.com/sakif/postmuse/internal/reminder"
)

type Config struct {
	Server struct {
		Port int
	}
	Database struct {
		Path string
	}
	Timezone struct {
		Name   string
		Offset string
	}
	Platforms []string
	JWT       struct {
		Secret string
		TTL    time.Duration
	}
	// Admin seeds an administrator on server start when both are set.
	Admin struct {
		Email    string
		Password string
	}
	Usage struct {
		UserLimit int `mapstructure:"user_limit"`
	}
	Reminder struct {
		TemplatePath string `mapstructure:"template_path"`
		BodiesPath   string `mapstructure:"bodies_path"`
		OutputFile   string `mapstructure:"output_file"`
		Order        string
		// Cron, when set, keeps the dispatch job running on this schedule.
		Cron string
	}
	Log struct {
		Level string
	}
}

// Load reads configuration. Extra search paths for config.yaml may be
// given; the working directory is always searched.
func Load(searchPaths ...string) (Config, error) {
	// .env is optional and never overrides the real environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("POSTMUSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.port", 8080)
	v.SetDefault("database.path", "data/users.db")
	v.SetDefault("timezone.name", "IST")
	v.SetDefault("timezone.offset", "+05:30")
	v.SetDefault("platforms", model.DefaultPlatforms)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", 12*time.Hour)
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("usage.user_limit", 10)
	v.SetDefault("reminder.template_path", reminder.DefaultConfig().TemplatePath)
	v.SetDefault("reminder.bodies_path", "email_bodies.txt")
	v.SetDefault("reminder.output_file", "output.txt")
	v.SetDefault("reminder.order", string(reminder.MarkFirst))
	v.SetDefault("reminder.cron", "")
	v.SetDefault("log.level", "info")

	// Actions sets GITHUB_OUTPUT; the prefixed variable still wins.
	if err := v.BindEnv("reminder.output_file", "POSTMUSE_REMINDER_OUTPUT_FILE", "GITHUB_OUTPUT"); err != nil {
		return Config{}, fmt.Errorf("failed to bind env: %w", err)
	}

	v.SetConfigName("config")
	for _, p := range searchPaths {
		v.AddConfigPath(p)
	}
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return cfg, nil
}

// Zone builds the fixed application time zone.
func (c Config) Zone() (clock.Zone, error) {
	return clock.NewZone(c.Timezone.Name, c.Timezone.Offset)
}

// PlatformSet returns the configured platforms, falling back to the
// defaults when the list is empty.
func (c Config) PlatformSet() model.Platforms {
	p := model.NewPlatforms(c.Platforms)
	if len(p.Tags()) == 0 {
		return model.NewPlatforms(model.DefaultPlatforms)
	}
	return p
}

// ReminderConfig converts the reminder section for the dispatcher.
func (c Config) ReminderConfig() (reminder.Config, error) {
	order, err := reminder.ParseOrder(c.Reminder.Order)
	if err != nil {
		return reminder.Config{}, err
	}
	return reminder.Config{TemplatePath: c.Reminder.TemplatePath, Order: order}, nil
}

// LogLevel maps log.level to a slog level. Unknown values mean info.
func (c Config) LogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
