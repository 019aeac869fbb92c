package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eyalcha/kan-program/internal/domain"
)

var (
	ErrNoStations        = errors.New("at least one station is required")
	ErrStationIDRequired = errors.New("station_id is required")
	ErrUnknownStation    = errors.New("unknown station id, a name is required")
	ErrDuplicateStation  = errors.New("duplicate station id")
	ErrInvalidInterval   = errors.New("scan_interval must be positive")
	ErrInvalidTimeout    = errors.New("timeout must be positive")
)

type Config struct {
	Addr     string        `yaml:"addr"`
	GuideURL string        `yaml:"guide_url"`
	Timeout  time.Duration `yaml:"timeout"`
	// Fuseau des horaires du guide; vide = heure locale de la machine.
	Timezone string `yaml:"timezone"`

	// Plafond de requêtes simultanées vers l'API du guide.
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	ScanInterval time.Duration          `yaml:"scan_interval"`
	Stations     []domain.StationConfig `yaml:"stations"`
}

func Default() Config {
	return Config{
		Addr:     envOr("KAN_ADDR", "127.0.0.1:8080"),
		GuideURL: envOr("KAN_GUIDE_URL", "https://www.kan.org.il/tv-guide/tv_guidePrograms.ashx"),
		Timeout:  durationOr("KAN_TIMEOUT", 10*time.Second),
		Timezone: os.Getenv("KAN_TZ"),

		MaxConcurrentFetches: intOr("KAN_MAX_CONCURRENT_FETCHES", 2),

		LogLevel: envOr("KAN_LOG_LEVEL", "info"),
		LogFile:  os.Getenv("KAN_LOG_FILE"),

		ScanInterval: durationOr("KAN_SCAN_INTERVAL", domain.DefaultPollInterval),
		Stations:     stationsFromEnv(os.Getenv("KAN_STATIONS")),
	}
}

// Load applique un fichier YAML par-dessus cfg. Les champs absents du fichier
// gardent leur valeur.
func Load(cfg Config, path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Validate complète les stations (nom, intervalle) et vérifie la config.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxConcurrentFetches <= 0 {
		c.MaxConcurrentFetches = 1
	}
	if c.ScanInterval <= 0 {
		c.ScanInterval = domain.DefaultPollInterval
	}
	if len(c.Stations) == 0 {
		return ErrNoStations
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}

	seen := make(map[string]bool, len(c.Stations))
	for i := range c.Stations {
		st := &c.Stations[i]
		st.StationID = strings.TrimSpace(st.StationID)
		if st.StationID == "" {
			return ErrStationIDRequired
		}
		if seen[st.StationID] {
			return fmt.Errorf("%w: %s", ErrDuplicateStation, st.StationID)
		}
		seen[st.StationID] = true

		if st.DisplayName == "" {
			name, ok := domain.StationName(st.StationID)
			if !ok {
				return fmt.Errorf("%w: %s", ErrUnknownStation, st.StationID)
			}
			st.DisplayName = name
		}
		if st.PollInterval == 0 {
			st.PollInterval = c.ScanInterval
		}
		if st.PollInterval < 0 {
			return fmt.Errorf("%w: station %s", ErrInvalidInterval, st.StationID)
		}
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func stationsFromEnv(v string) []domain.StationConfig {
	var out []domain.StationConfig
	for _, id := range strings.Split(v, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		out = append(out, domain.StationConfig{StationID: id})
	}
	return out
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func intOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func durationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
