// Package sensor projects monitor snapshots into flat, named readings,
// the shape a home-automation or dashboard consumer expects.
package sensor

import (
	"strings"
	"time"

	"github.com/gosimple/slug"

	"github.com/torhal/flomvakt/monitor"
)

// Reading names for the snapshot-level and flood-statistic sensors.
const (
	ReadingLastUpdate = "last_update"
	ReadingCulQm      = "mean_annual_flood"
	ReadingCulQ5      = "five_year_flood"
	ReadingCulQ50     = "fifty_year_flood"

	// Flood-return statistics are discharges.
	FloodStatUnit = "m³/s"
)

// Attribute keys exposed on parameter readings.
const (
	AttrStationID       = "station_id"
	AttrStationName     = "station_name"
	AttrParameterID     = "parameter_id"
	AttrParameterName   = "parameter_name"
	AttrQuality         = "quality"
	AttrCorrection      = "correction"
	AttrMethod          = "method"
	AttrObservationTime = "observation_time"
)

// Reading is one projected value. Value is nil when the vendor omitted
// the sample value or the reading is a pure timestamp.
type Reading struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Value      *float64       `json:"value"`
	Unit       string         `json:"unit,omitempty"`
	ObservedAt *time.Time     `json:"observed_at,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// NewReadingID builds a deterministic slug id from the given keys.
func NewReadingID(keys ...string) string {
	return slug.Make(strings.Join(keys, "-"))
}

// Project flattens a snapshot into readings: one per observed parameter,
// one per present flood statistic and one last-update timestamp. It is a
// pure function and never mutates the snapshot.
func Project(snapshot *monitor.Snapshot) []Reading {
	if snapshot == nil {
		return nil
	}

	readings := make([]Reading, 0, len(snapshot.Observations)+4)

	for _, obs := range snapshot.Observations {
		observedAt := obs.Time
		reading := Reading{
			ID:         NewReadingID(snapshot.StationName, obs.ParameterName),
			Name:       obs.ParameterName,
			Value:      obs.Value,
			Unit:       obs.Unit,
			ObservedAt: &observedAt,
			Attributes: map[string]any{
				AttrStationID:       snapshot.StationID,
				AttrStationName:     snapshot.StationName,
				AttrParameterID:     obs.Parameter,
				AttrParameterName:   obs.ParameterName,
				AttrObservationTime: obs.Time,
			},
		}

		if obs.Quality != nil {
			reading.Attributes[AttrQuality] = *obs.Quality
		}
		if obs.Correction != nil {
			reading.Attributes[AttrCorrection] = *obs.Correction
		}
		if obs.Method != "" {
			reading.Attributes[AttrMethod] = obs.Method
		}

		readings = append(readings, reading)
	}

	if floods := snapshot.Floods; !floods.IsEmpty() {
		readings = append(readings,
			floodReading(snapshot, ReadingCulQm, floods.CulQm),
			floodReading(snapshot, ReadingCulQ5, floods.CulQ5),
			floodReading(snapshot, ReadingCulQ50, floods.CulQ50))
	}

	lastUpdate := snapshot.LastUpdate
	readings = append(readings, Reading{
		ID:         NewReadingID(snapshot.StationName, ReadingLastUpdate),
		Name:       ReadingLastUpdate,
		ObservedAt: &lastUpdate,
		Attributes: map[string]any{
			AttrStationID:   snapshot.StationID,
			AttrStationName: snapshot.StationName,
		},
	})

	return readings
}

func floodReading(snapshot *monitor.Snapshot, name string, value *float64) Reading {
	return Reading{
		ID:    NewReadingID(snapshot.StationName, name),
		Name:  name,
		Value: value,
		Unit:  FloodStatUnit,
		Attributes: map[string]any{
			AttrStationID:   snapshot.StationID,
			AttrStationName: snapshot.StationName,
		},
	}
}
