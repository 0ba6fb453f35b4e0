// Package config provides YAML-based configuration loading for Replan.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Replan configuration, loaded from replan.yaml.
type Config struct {
	DB         DBConfig         `yaml:"db"`
	Server     ServerConfig     `yaml:"server"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Notify     NotifyConfig     `yaml:"notify"`
	Autoplan   AutoplanConfig   `yaml:"autoplan"`
	GitHub     GitHubConfig     `yaml:"github"`
}

// DBConfig holds connection settings for the MySQL server.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// SchedulingConfig holds the engine's capacity and threshold defaults.
type SchedulingConfig struct {
	MaxHoursPerDay        float64 `yaml:"max_hours_per_day"`
	BufferDays            int     `yaml:"buffer_days"`
	BottleneckLoadPercent int     `yaml:"bottleneck_load_percent"`
	BottleneckTaskCount   int     `yaml:"bottleneck_task_count"`
}

// NotifyConfig holds outbound notification sink settings. A sink is enabled
// when its credentials are present.
type NotifyConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// AutoplanConfig controls the automatic rescheduling daemon.
type AutoplanConfig struct {
	// Cron is a standard 5-field cron expression; empty disables the daemon.
	Cron string `yaml:"cron"`
}

// GitHubConfig holds settings for importing issues as tasks.
type GitHubConfig struct {
	Owner string `yaml:"owner"`
	Repo  string `yaml:"repo"`
	Token string `yaml:"token"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.User == "" {
		c.DB.User = "root"
	}
	if c.DB.Database == "" {
		c.DB.Database = "replan"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Scheduling.MaxHoursPerDay == 0 {
		c.Scheduling.MaxHoursPerDay = 8
	}
	if c.Scheduling.BufferDays == 0 {
		c.Scheduling.BufferDays = 1
	}
	if c.Scheduling.BottleneckLoadPercent == 0 {
		c.Scheduling.BottleneckLoadPercent = 80
	}
	if c.Scheduling.BottleneckTaskCount == 0 {
		c.Scheduling.BottleneckTaskCount = 5
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Scheduling.MaxHoursPerDay < 0 {
		errs = append(errs, "scheduling.max_hours_per_day must not be negative")
	}
	if c.Scheduling.BufferDays < 0 {
		errs = append(errs, "scheduling.buffer_days must not be negative")
	}
	if c.Notify.SlackToken != "" && c.Notify.SlackChannel == "" {
		errs = append(errs, "notify.slack_channel is required when slack_token is set")
	}
	if c.Notify.DiscordToken != "" && c.Notify.DiscordChannel == "" {
		errs = append(errs, "notify.discord_channel is required when discord_token is set")
	}
	if c.GitHub.Owner != "" && c.GitHub.Repo == "" {
		errs = append(errs, "github.repo is required when github.owner is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
