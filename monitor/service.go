package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/torhal/flomvakt/hydapi"
)

var (
	ErrNoStations     = errors.New("no stations configured")
	ErrUnknownStation = errors.New("unknown station")
)

// StationSpec describes one station to monitor. Either the vendor id or,
// for configurations predating id entry, only the display name may be
// given; names are resolved to ids at startup. An empty series list means
// the tracked series are discovered from the station metadata.
type StationSpec struct {
	ID     string
	Name   string
	Series []hydapi.SeriesInfo
}

// ServiceConfig wires a set of station specs to one API credential.
type ServiceConfig struct {
	BaseURL string
	APIKey  string

	// Interval overrides the jittered per-coordinator default when non-zero.
	Interval       time.Duration
	ResolutionTime int

	Stations []StationSpec
}

// StationStatus is the read-only listing view of one monitored station.
type StationStatus struct {
	StationID  string     `json:"station_id"`
	Name       string     `json:"station_name"`
	State      string     `json:"state"`
	Interval   string     `json:"interval"`
	LastUpdate *time.Time `json:"last_update,omitempty"`
}

// station is one independently configured station: its own client handle
// and coordinator, no state shared with its siblings beyond the HTTP
// connection pool.
type station struct {
	spec        StationSpec
	client      *hydapi.Client
	coordinator *Coordinator
}

// Service owns the monitored station set. Stations are fixed at
// construction; after Start the set is read-only.
type Service struct {
	config     ServiceConfig
	httpClient *http.Client
	newTicker  TickerFactory
	logger     *slog.Logger

	stations []*station
	byID     map[string]*station
	started  bool
}

func NewService(config ServiceConfig, httpClient *http.Client, logger *slog.Logger) *Service {
	return &Service{
		config:     config,
		httpClient: httpClient,
		newTicker:  NewTicker,
		logger:     logger,
		byID:       make(map[string]*station),
	}
}

// Start resolves the configured specs into coordinators and begins
// polling. Specs that cannot be resolved are skipped with a warning;
// Start fails only when nothing at all could be started.
func (s *Service) Start(ctx context.Context) error {
	if s.started {
		return ErrAlreadyRunning
	}
	if len(s.config.Stations) == 0 {
		return ErrNoStations
	}

	for _, spec := range s.config.Stations {
		st, err := s.setupStation(ctx, spec)
		if err != nil {
			s.logger.Warn("Skipping station",
				"station_id", spec.ID, "station_name", spec.Name, "error", err)
			continue
		}

		s.stations = append(s.stations, st)
		s.byID[st.spec.ID] = st
	}

	if len(s.stations) == 0 {
		return fmt.Errorf("%w: none of the configured stations could be set up", ErrNoStations)
	}

	for _, st := range s.stations {
		if err := st.coordinator.Start(ctx); err != nil {
			return fmt.Errorf("failed to start coordinator for station %s: %w", st.spec.ID, err)
		}
	}

	s.started = true
	s.logger.Info("Monitor service started", "stations", len(s.stations))
	return nil
}

// Stop tears down every coordinator. Pending timers are cancelled before
// the client handles are released.
func (s *Service) Stop() {
	for _, st := range s.stations {
		st.coordinator.Stop()
	}
	s.started = false
	s.logger.Info("Monitor service stopped")
}

func (s *Service) setupStation(ctx context.Context, spec StationSpec) (*station, error) {
	logger := s.logger.With("station_id", spec.ID)
	client := hydapi.NewClient(s.config.BaseURL, s.config.APIKey, s.httpClient, logger)

	if spec.ID == "" {
		// Legacy name-based configuration path.
		match, err := client.ResolveStationByName(ctx, spec.Name)
		if err != nil {
			return nil, err
		}
		if match == nil {
			return nil, fmt.Errorf("station name %q did not resolve", spec.Name)
		}

		spec.ID = match.ID
		if spec.Name == "" {
			spec.Name = match.Name
		}
	}

	if len(spec.Series) == 0 || spec.Name == "" {
		info, err := client.FetchStationInfo(ctx, spec.ID)
		if err != nil {
			return nil, err
		}
		if info == nil {
			return nil, fmt.Errorf("station %s not found", spec.ID)
		}

		if len(spec.Series) == 0 {
			spec.Series = info.Series
		}
		if spec.Name == "" {
			spec.Name = info.Name
		}
	}

	if len(spec.Series) == 0 {
		return nil, fmt.Errorf("station %s has no series to track", spec.ID)
	}

	coordinator := NewCoordinator(client, CoordinatorConfig{
		StationID:      spec.ID,
		StationName:    spec.Name,
		Series:         spec.Series,
		Interval:       s.config.Interval,
		ResolutionTime: s.config.ResolutionTime,
		NewTicker:      s.newTicker,
	}, logger)

	return &station{spec: spec, client: client, coordinator: coordinator}, nil
}

// Stations lists the monitored stations in configuration order.
func (s *Service) Stations() []StationStatus {
	statuses := make([]StationStatus, 0, len(s.stations))
	for _, st := range s.stations {
		status := StationStatus{
			StationID: st.spec.ID,
			Name:      st.spec.Name,
			State:     st.coordinator.State().String(),
			Interval:  st.coordinator.Interval().String(),
		}
		if lastUpdate, ok := st.coordinator.LastUpdate(); ok {
			status.LastUpdate = &lastUpdate
		}
		statuses = append(statuses, status)
	}
	return statuses
}

// Snapshot returns the latest snapshot of one station. A nil snapshot
// with a nil error means no refresh has succeeded yet.
func (s *Service) Snapshot(stationID string) (*Snapshot, error) {
	st, ok := s.byID[stationID]
	if !ok {
		return nil, ErrUnknownStation
	}
	return st.coordinator.Snapshot(), nil
}

// Refresh forces an immediate refresh of one station.
func (s *Service) Refresh(ctx context.Context, stationID string) error {
	st, ok := s.byID[stationID]
	if !ok {
		return ErrUnknownStation
	}
	return st.coordinator.RefreshNow(ctx)
}
