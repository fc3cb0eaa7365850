// Package config loads the TOML configuration from ~/.config/gapfill and
// layers environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jerichosy/gapfill/internal/interval"
)

type Config struct {
	Clockify      ClockifyConfig `toml:"clockify"`
	Schedule      ScheduleConfig `toml:"schedule"`
	Fill          FillConfig     `toml:"fill"`
	Calendar      CalendarConfig `toml:"calendar"`
	Notifications NotifyConfig   `toml:"notifications"`
}

type ClockifyConfig struct {
	APIKey      string `toml:"api_key"`
	WorkspaceID string `toml:"workspace_id"`
	BaseURL     string `toml:"base_url"`
}

type ScheduleConfig struct {
	Timezone   string `toml:"timezone"`
	WorkStart  string `toml:"work_start"`
	WorkEnd    string `toml:"work_end"`
	LunchStart string `toml:"lunch_start"`
	LunchEnd   string `toml:"lunch_end"`
}

type FillConfig struct {
	Description string `toml:"description"`
	// Fallback metadata for days that have gaps but no entry to copy
	// project/task from. When unset such days are skipped.
	DefaultProjectID string `toml:"default_project_id"`
	DefaultTaskID    string `toml:"default_task_id"`
}

type CalendarConfig struct {
	Enabled bool   `toml:"enabled"`
	Source  string `toml:"source"` // ICS URL or file path
}

type NotifyConfig struct {
	Enabled bool `toml:"enabled"`
}

func DefaultConfig() Config {
	return Config{
		Schedule: ScheduleConfig{
			Timezone:   "Asia/Manila",
			WorkStart:  "09:00",
			WorkEnd:    "18:00",
			LunchStart: "12:00",
			LunchEnd:   "13:00",
		},
		Fill: FillConfig{
			Description: "[Dev Work, Reviewing code]",
		},
		Notifications: NotifyConfig{
			Enabled: true,
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "gapfill"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(&cfg)
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLOCKIFY_API_KEY"); v != "" {
		cfg.Clockify.APIKey = v
	} else if v := os.Getenv("CLOCKIFY_KEY"); v != "" {
		// Name used by the original shell setup; still honored.
		cfg.Clockify.APIKey = v
	}
	if v := os.Getenv("CLOCKIFY_WORKSPACE_ID"); v != "" {
		cfg.Clockify.WorkspaceID = v
	}
	if v := os.Getenv("CLOCKIFY_BASE_URL"); v != "" {
		cfg.Clockify.BaseURL = v
	}
}

// Validate checks the credentials and schedule before any network call is
// made. A failure here aborts the run.
func (c *Config) Validate() error {
	if c.Clockify.APIKey == "" {
		return fmt.Errorf("clockify API key not configured — set api_key in config or CLOCKIFY_API_KEY env var")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.WorkWindow(); err != nil {
		return err
	}
	if _, err := c.LunchWindow(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// WorkWindow parses work_start/work_end into a minute-of-day interval.
func (c *Config) WorkWindow() (interval.Interval, error) {
	return parseWindow(c.Schedule.WorkStart, c.Schedule.WorkEnd)
}

// LunchWindow parses lunch_start/lunch_end into a minute-of-day interval.
func (c *Config) LunchWindow() (interval.Interval, error) {
	return parseWindow(c.Schedule.LunchStart, c.Schedule.LunchEnd)
}

func parseWindow(start, end string) (interval.Interval, error) {
	s, err := interval.ParseClock(start)
	if err != nil {
		return interval.Interval{}, err
	}
	e, err := interval.ParseClock(end)
	if err != nil {
		return interval.Interval{}, err
	}
	return interval.New(s, e)
}

func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
