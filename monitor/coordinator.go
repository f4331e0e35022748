// Package monitor owns the polling lifecycle of configured NVE stations:
// one coordinator per station fetches observations and station metadata on
// a jittered interval and publishes the result as an atomic snapshot.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/torhal/flomvakt/hydapi"
)

const (
	// BaseInterval is the default refresh interval before jitter.
	BaseInterval = 600 * time.Second

	// JitterSeconds is the uniform variance applied once at construction.
	// Independent stations sharing the upstream API drift apart instead of
	// hitting it in synchronized bursts.
	JitterSeconds = 30
)

var (
	ErrAlreadyRunning = errors.New("coordinator is already running")
	ErrStopped        = errors.New("coordinator is stopped")

	// ErrRefreshInFlight signals that a refresh was skipped because the
	// previous one has not finished. Ticks are never queued.
	ErrRefreshInFlight = errors.New("refresh already in flight")
)

// State of a coordinator's lifecycle.
type State int

const (
	StateIdle State = iota // no snapshot published yet
	StateReady
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReady:
		return "ready"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// StationAPI is the slice of the hydapi client a coordinator needs.
type StationAPI interface {
	FetchStationInfo(ctx context.Context, stationID string) (*hydapi.StationRecord, error)
	FetchObservations(ctx context.Context, stationID string, parameters []string, resolutionTime int) ([]hydapi.Observation, error)
}

// CoordinatorConfig describes one station to poll.
type CoordinatorConfig struct {
	StationID   string
	StationName string
	Series      []hydapi.SeriesInfo

	// Interval overrides the jittered default when non-zero.
	Interval       time.Duration
	ResolutionTime int

	// NewTicker defaults to the time.Ticker-backed factory.
	NewTicker TickerFactory
}

// Coordinator polls one station and exposes its latest snapshot to
// read-only consumers. At most one refresh is in flight at any time.
type Coordinator struct {
	api       StationAPI
	config    CoordinatorConfig
	interval  time.Duration
	newTicker TickerFactory
	logger    *slog.Logger

	mu       sync.RWMutex
	state    State
	snapshot *Snapshot
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}

	refreshMu sync.Mutex
}

func NewCoordinator(api StationAPI, config CoordinatorConfig, logger *slog.Logger) *Coordinator {
	interval := config.Interval
	if interval == 0 {
		interval = jitteredInterval()
	}

	newTicker := config.NewTicker
	if newTicker == nil {
		newTicker = NewTicker
	}

	logger.Debug("Initializing coordinator",
		"station_id", config.StationID, "interval", interval)

	return &Coordinator{
		api:       api,
		config:    config,
		interval:  interval,
		newTicker: newTicker,
		logger:    logger,
		done:      make(chan struct{}),
	}
}

// jitteredInterval spreads the base interval by a uniform offset in
// [-JitterSeconds, +JitterSeconds], chosen once per coordinator.
func jitteredInterval() time.Duration {
	jitter := rand.Intn(2*JitterSeconds+1) - JitterSeconds
	return BaseInterval + time.Duration(jitter)*time.Second
}

// Interval returns the effective refresh interval.
func (c *Coordinator) Interval() time.Duration {
	return c.interval
}

func (c *Coordinator) StationID() string { return c.config.StationID }

func (c *Coordinator) StationName() string { return c.config.StationName }

func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Snapshot returns the latest published snapshot, or nil before the first
// successful refresh. The snapshot is shared and must not be mutated.
func (c *Coordinator) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// LastUpdate returns the publish time of the current snapshot. Consumers
// detect prolonged upstream failure through a stale value here.
func (c *Coordinator) LastUpdate() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snapshot == nil {
		return time.Time{}, false
	}
	return c.snapshot.LastUpdate, true
}

// Start performs a synchronous first refresh and schedules periodic ones
// until Stop or context cancellation. A failed first refresh does not
// abort the schedule; the coordinator stays idle until a tick succeeds.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.running {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.running = true
	c.mu.Unlock()

	if err := c.RefreshNow(ctx); err != nil {
		c.logger.Error("Initial refresh failed",
			"station_id", c.config.StationID, "error", err)
	}

	go c.run(ctx)

	c.logger.Info("Coordinator started",
		"station_id", c.config.StationID, "interval", c.interval)
	return nil
}

// Stop cancels the pending timer and waits for any in-flight refresh to
// wind down. It is idempotent; no tick fires afterwards.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	if c.state == StateStopped {
		c.mu.Unlock()
		return
	}
	c.state = StateStopped
	cancel := c.cancel
	running := c.running
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if running {
		<-c.done
	}

	c.logger.Info("Coordinator stopped", "station_id", c.config.StationID)
}

func (c *Coordinator) run(ctx context.Context) {
	defer close(c.done)

	ticker := c.newTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			if err := c.RefreshNow(ctx); err != nil {
				if errors.Is(err, ErrRefreshInFlight) {
					c.logger.Debug("Previous refresh still in flight, skipping tick",
						"station_id", c.config.StationID)
					continue
				}
				if errors.Is(err, ErrStopped) {
					return
				}
				c.logger.Error("Refresh failed, keeping previous snapshot",
					"station_id", c.config.StationID, "error", err)
			}
		case <-ctx.Done():
			return
		}
	}
}

// RefreshNow performs one refresh cycle immediately. It returns
// ErrRefreshInFlight instead of overlapping a running refresh, and a
// failure error when the cycle yielded no publishable data. Refresh
// failures never clear a previously published snapshot.
func (c *Coordinator) RefreshNow(ctx context.Context) error {
	if !c.refreshMu.TryLock() {
		return ErrRefreshInFlight
	}
	defer c.refreshMu.Unlock()

	snapshot := c.fetch(ctx)
	if snapshot.IsEmpty() {
		return fmt.Errorf("no data received for station %s", c.config.StationID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateStopped {
		// A refresh racing teardown must not resurrect a stopped coordinator.
		return ErrStopped
	}
	c.snapshot = snapshot
	c.state = StateReady

	c.logger.Debug("Snapshot published",
		"station_id", c.config.StationID,
		"observations", len(snapshot.Observations),
		"has_flood_stats", !snapshot.Floods.IsEmpty())
	return nil
}

// fetch assembles a snapshot from this cycle's fetches only. A half that
// failed is absent from the result rather than carried over from the
// previous snapshot, so published data is always same-cycle consistent.
func (c *Coordinator) fetch(ctx context.Context) *Snapshot {
	snapshot := &Snapshot{
		StationID:   c.config.StationID,
		StationName: c.config.StationName,
		LastUpdate:  time.Now().UTC(),
	}

	parameters := make([]string, 0, len(c.config.Series))
	for _, series := range c.config.Series {
		parameters = append(parameters, series.Parameter)
	}

	observations, err := c.api.FetchObservations(ctx, c.config.StationID, parameters, c.config.ResolutionTime)
	if err != nil {
		c.logger.Error("Failed to fetch observations",
			"station_id", c.config.StationID, "error", err)
	} else {
		snapshot.Observations = observations
	}

	// Station info is re-fetched every cycle to keep the flood statistics
	// sourced from the same cycle as the observations.
	info, err := c.api.FetchStationInfo(ctx, c.config.StationID)
	if err != nil {
		c.logger.Error("Failed to fetch station info",
			"station_id", c.config.StationID, "error", err)
	} else if info != nil && !info.Floods.IsEmpty() {
		snapshot.Floods = info.Floods
	}

	return snapshot
}
