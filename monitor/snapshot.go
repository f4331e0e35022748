package monitor

import (
	"time"

	"github.com/torhal/flomvakt/hydapi"
)

// Snapshot is the per-station aggregate published by a coordinator.
// Every field was fetched in the same refresh cycle; observations and
// flood statistics from different ticks are never mixed. A published
// snapshot is immutable; consumers must not modify it.
type Snapshot struct {
	StationID    string               `json:"station_id"`
	StationName  string               `json:"station_name"`
	Observations []hydapi.Observation `json:"observations,omitempty"`
	Floods       *hydapi.FloodStats   `json:"flood_stats,omitempty"`
	LastUpdate   time.Time            `json:"last_update"`
}

// IsEmpty reports whether the snapshot carries no data beyond the station
// identity and timestamp. Empty snapshots are never published over a
// previously good one.
func (s *Snapshot) IsEmpty() bool {
	return s == nil || (len(s.Observations) == 0 && s.Floods.IsEmpty())
}

// ObservationFor returns the observation of one parameter id, if present.
func (s *Snapshot) ObservationFor(parameter string) (hydapi.Observation, bool) {
	if s == nil {
		return hydapi.Observation{}, false
	}

	for _, obs := range s.Observations {
		if obs.Parameter == parameter {
			return obs, true
		}
	}

	return hydapi.Observation{}, false
}
