package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"weekplan/internal/model"
)

// ICSConfig describes a single external busy-calendar ICS source. Events
// fetched from these sources block time in the planner; they are imported
// one-way and never written back.
type ICSConfig struct {
	URL  string `yaml:"url" json:"url"`
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone all week math is anchored in.
	Timezone string `yaml:"timezone" json:"timezone"`

	// RefreshCron schedules the periodic fetch+replan loop.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// StatePath is where goals, templates and planned blocks are stored.
	StatePath string `yaml:"state_path" json:"state_path"`

	// Scheduler is the per-user settings record consumed by the planner.
	Scheduler model.Settings `yaml:"scheduler" json:"scheduler"`

	// MinimumViableDay enables the 10-minute mini-session fallback.
	MinimumViableDay bool `yaml:"minimum_viable_day" json:"minimum_viable_day"`

	// MaxConcurrent is the concurrency cap the booking validator enforces
	// at every instant.
	MaxConcurrent int `yaml:"max_concurrent" json:"max_concurrent"`

	// MaxColumns caps side-by-side columns in the week view.
	MaxColumns int `yaml:"max_columns" json:"max_columns"`

	// ICS is the list of subscribed busy-calendar sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Europe/Stockholm",
		RefreshCron: "*/30 * * * *",
		StatePath:   "./var/weekplan.yaml",
		Scheduler: model.Settings{
			WorkHours: model.DayWindow{
				Start: "09:00",
				End:   "17:00",
				Days: []time.Weekday{
					time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
				},
				Enabled: false,
			},
			Sleep: model.DayWindow{
				Start:   "23:00",
				End:     "07:00",
				Enabled: true,
			},
			MinBreakMinutes:     15,
			MaxActivitiesPerDay: 3,
		},
		MinimumViableDay: false,
		MaxConcurrent:    4,
		MaxColumns:       4,
		ICS:              []ICSConfig{},
	}
}

// Normalize fills in missing/zero values so partially-filled configs from
// older versions keep behaving.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Stockholm"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.StatePath == "" {
		c.StatePath = "./var/weekplan.yaml"
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = 4
	}
	if c.MaxColumns <= 0 {
		c.MaxColumns = 4
	}
	if c.Scheduler.MinBreakMinutes < 0 {
		c.Scheduler.MinBreakMinutes = 0
	}
	if c.Scheduler.MaxActivitiesPerDay < 0 {
		c.Scheduler.MaxActivitiesPerDay = 0
	}
	if c.Scheduler.Sleep.Start == "" {
		c.Scheduler.Sleep = model.DayWindow{Start: "23:00", End: "07:00", Enabled: true}
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
}

// Location resolves the configured timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path. On first run the file
// does not exist yet: a default config is written (0600) and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with 0600
// permissions, creating the parent directory as needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".weekplan-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
