// This file defines the configuration structure for the application.
package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config holds all configuration settings for the application.
// It maps directly to the structure of config.yml.
type Config struct {
	Port           int `mapstructure:"port"`
	MaxConnections int `mapstructure:"max_connections"`
	Database       struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"database"`
	Source struct {
		BaseURL   string        `mapstructure:"base_url"`
		UserAgent string        `mapstructure:"user_agent"`
		Timeout   time.Duration `mapstructure:"timeout"`
	} `mapstructure:"source"`
	Collector struct {
		RateLimit time.Duration `mapstructure:"rate_limit"`
		DaysAhead int           `mapstructure:"days_ahead"`
	} `mapstructure:"collector"`
	Retention struct {
		Days int `mapstructure:"days"`
	} `mapstructure:"retention"`
	Schedule struct {
		Timezone       string `mapstructure:"timezone"`
		FetchPrograms  string `mapstructure:"fetch_programs"`
		Cleanup        string `mapstructure:"cleanup"`
		UpdateChannels string `mapstructure:"update_channels"`
	} `mapstructure:"schedule"`
	Admin struct {
		Username     string `mapstructure:"username"`
		PasswordHash string `mapstructure:"password_hash"`
	} `mapstructure:"admin"`
	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// Load reads configuration from a file named "config.yml" in the
// current directory and unmarshals it into a Config struct.
// Variables from an optional .env file are loaded first so they can
// take part in the environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	viper.Reset()
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath(".")

	// e.g., TVGUIDE_DATABASE_PATH will override the `database.path` key.
	viper.SetEnvPrefix("TVGUIDE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	return unmarshal()
}

func setDefaults() {
	viper.SetDefault("port", 8080)
	viper.SetDefault("max_connections", 64)
	viper.SetDefault("database.path", "./tvguide.db")
	viper.SetDefault("source.base_url", "https://telkussa.fi/API")
	viper.SetDefault("source.user_agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	viper.SetDefault("source.timeout", "15s")
	viper.SetDefault("collector.rate_limit", "1s")
	viper.SetDefault("collector.days_ahead", 7)
	viper.SetDefault("retention.days", 30)
	viper.SetDefault("schedule.timezone", "Europe/Helsinki")
	viper.SetDefault("schedule.fetch_programs", "0 1 * * *")
	viper.SetDefault("schedule.cleanup", "0 2 * * *")
	viper.SetDefault("schedule.update_channels", "0 3 * * 0")
	viper.SetDefault("admin.username", "admin")
	viper.SetDefault("admin.password_hash", "")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
}

func unmarshal() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Watch re-reads the config file whenever it changes on disk and hands
// the new values to onChange. It is a no-op when no config file was found.
func Watch(onChange func(*Config)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := unmarshal()
		if err != nil {
			log.WithError(err).WithField("file", e.Name).Warn("could not reload config")
			return
		}
		log.WithField("file", e.Name).Info("config reloaded")
		onChange(cfg)
	})
	viper.WatchConfig()
}

// Location returns the time zone used for schedules and day windows.
// Unknown zones fall back to UTC.
func (c *Config) Location() *time.Location {
	if c.Schedule.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		log.WithError(err).WithField("timezone", c.Schedule.Timezone).Warn("unknown time zone, using UTC")
		return time.UTC
	}
	return loc
}

// ConfigureLogging applies the log level and format settings to the
// standard logrus logger.
func ConfigureLogging(c *Config) {
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if strings.EqualFold(c.Log.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stdout)
}
