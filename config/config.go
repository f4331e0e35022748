// Package config loads the service configuration from environment
// variables, with optional .env support.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sosodev/duration"

	"github.com/torhal/flomvakt/hydapi"
)

const defaultListenAddr = ":8080"

// Station is one configured station. StationID may be empty for legacy
// name-only entries; Series may be empty to track everything the station
// publishes.
type Station struct {
	StationID   string              `json:"station_id"`
	StationName string              `json:"station_name"`
	Series      []hydapi.SeriesInfo `json:"series,omitempty"`
}

// Config holds the runtime configuration of the service.
type Config struct {
	APIKey  string
	BaseURL string

	Stations []Station

	// PollInterval of zero selects the jittered coordinator default.
	PollInterval   time.Duration
	ResolutionTime int

	ListenAddr     string
	APIToken       string
	RequestTimeout time.Duration
	Debug          bool
}

// Load reads configuration from environment variables (optionally .env).
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		ListenAddr:     defaultListenAddr,
		RequestTimeout: 30 * time.Second,
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("FLOMVAKT_API_KEY"))
	if cfg.APIKey == "" {
		return cfg, errors.New("FLOMVAKT_API_KEY is required")
	}

	cfg.BaseURL = strings.TrimSpace(os.Getenv("FLOMVAKT_BASE_URL"))

	stations, err := parseStations(
		os.Getenv("FLOMVAKT_STATIONS"),
		os.Getenv("FLOMVAKT_STATION_NAMES"),
	)
	if err != nil {
		return cfg, err
	}
	if len(stations) == 0 {
		return cfg, errors.New("no stations configured: set FLOMVAKT_STATIONS or FLOMVAKT_STATION_NAMES")
	}
	cfg.Stations = stations

	if v := strings.TrimSpace(os.Getenv("FLOMVAKT_POLL_INTERVAL")); v != "" {
		interval, err := ParseISO8601Interval(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid FLOMVAKT_POLL_INTERVAL: %w", err)
		}
		cfg.PollInterval = interval
	}

	if v := strings.TrimSpace(os.Getenv("FLOMVAKT_RESOLUTION_TIME")); v != "" {
		resolution, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid FLOMVAKT_RESOLUTION_TIME: %w", err)
		}
		cfg.ResolutionTime = resolution
	}

	if v := strings.TrimSpace(os.Getenv("FLOMVAKT_LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	cfg.APIToken = strings.TrimSpace(os.Getenv("FLOMVAKT_API_TOKEN"))

	if v := strings.TrimSpace(os.Getenv("FLOMVAKT_REQUEST_TIMEOUT")); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid FLOMVAKT_REQUEST_TIMEOUT: %w", err)
		}
		cfg.RequestTimeout = timeout
	}

	debug := strings.TrimSpace(os.Getenv("FLOMVAKT_DEBUG"))
	cfg.Debug = debug == "1" || strings.EqualFold(debug, "true")

	return cfg, nil
}

// parseStations merges the id-based JSON configuration with the legacy
// comma-separated name list.
func parseStations(stationsJSON, stationNames string) ([]Station, error) {
	var stations []Station

	if v := strings.TrimSpace(stationsJSON); v != "" {
		if err := json.Unmarshal([]byte(v), &stations); err != nil {
			return nil, fmt.Errorf("invalid FLOMVAKT_STATIONS: %w", err)
		}
		for i, station := range stations {
			if station.StationID == "" {
				return nil, fmt.Errorf("invalid FLOMVAKT_STATIONS: entry %d has no station_id", i)
			}
		}
	}

	for _, name := range strings.Split(stationNames, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		stations = append(stations, Station{StationName: name})
	}

	return stations, nil
}

// ParseISO8601Interval parses an ISO-8601 duration such as "PT10M".
func ParseISO8601Interval(value string) (time.Duration, error) {
	parsed, err := duration.Parse(value)
	if err != nil {
		return 0, err
	}

	interval := parsed.ToTimeDuration()
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive, got %s", value)
	}

	return interval, nil
}
