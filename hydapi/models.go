package hydapi

import (
	"encoding/json"
	"time"
)

// StationMatch is the result of a name-based station lookup.
type StationMatch struct {
	ID   string `json:"station_id"`
	Name string `json:"station_name"`
}

// SeriesInfo describes one measured quantity available at a station.
type SeriesInfo struct {
	Parameter     string `json:"parameter"`
	ParameterName string `json:"parameter_name"`
	Unit          string `json:"unit"`
}

// FloodStats holds the flood-return discharge statistics of a station.
// Each value is in m³/s; NVE omits them for stations without a flood model.
type FloodStats struct {
	CulQm  *float64 `json:"cul_qm,omitempty"`  // mean annual flood
	CulQ5  *float64 `json:"cul_q5,omitempty"`  // 5-year return flood
	CulQ50 *float64 `json:"cul_q50,omitempty"` // 50-year return flood
}

func (f *FloodStats) IsEmpty() bool {
	return f == nil || (f.CulQm == nil && f.CulQ5 == nil && f.CulQ50 == nil)
}

// StationRecord is the static metadata of a station, re-fetched wholesale.
type StationRecord struct {
	ID     string       `json:"station_id"`
	Name   string       `json:"station_name"`
	Series []SeriesInfo `json:"series_list"`
	Floods *FloodStats  `json:"flood_stats,omitempty"`
}

// Observation is the latest sample of one series at a station.
type Observation struct {
	StationID     string    `json:"station_id"`
	StationName   string    `json:"station_name,omitempty"`
	Parameter     string    `json:"parameter"`
	ParameterName string    `json:"parameter_name"`
	Unit          string    `json:"unit"`
	Method        string    `json:"method,omitempty"`
	Value         *float64  `json:"value"`
	Time          time.Time `json:"time"`
	Quality       *int      `json:"quality,omitempty"`
	Correction    *int      `json:"correction,omitempty"`
}

// Wire types. All HydAPI endpoints share the {"data": [...]} envelope.

type stationsResponse struct {
	Data []stationPayload `json:"data"`
}

type stationPayload struct {
	StationID   string          `json:"stationId"`
	StationName string          `json:"stationName"`
	CulQm       *float64        `json:"culQm"`
	CulQ5       *float64        `json:"culQ5"`
	CulQ50      *float64        `json:"culQ50"`
	SeriesList  []seriesPayload `json:"seriesList"`
}

type seriesPayload struct {
	Parameter     json.Number `json:"parameter"`
	ParameterName string      `json:"parameterName"`
	Unit          string      `json:"unit"`
}

type observationsResponse struct {
	Data []timeseriesPayload `json:"data"`
}

type timeseriesPayload struct {
	StationID     string               `json:"stationId"`
	StationName   string               `json:"stationName"`
	Parameter     json.Number          `json:"parameter"`
	ParameterName string               `json:"parameterName"`
	Unit          string               `json:"unit"`
	Method        string               `json:"method"`
	Observations  []observationPayload `json:"observations"`
}

type observationPayload struct {
	Time       string   `json:"time"`
	Value      *float64 `json:"value"`
	Quality    *int     `json:"quality"`
	Correction *int     `json:"correction"`
}

func mapStation(payload stationPayload) *StationRecord {
	series := make([]SeriesInfo, 0, len(payload.SeriesList))
	for _, s := range payload.SeriesList {
		series = append(series, SeriesInfo{
			Parameter:     s.Parameter.String(),
			ParameterName: s.ParameterName,
			Unit:          s.Unit,
		})
	}

	record := &StationRecord{
		ID:     payload.StationID,
		Name:   payload.StationName,
		Series: series,
	}

	floods := &FloodStats{
		CulQm:  payload.CulQm,
		CulQ5:  payload.CulQ5,
		CulQ50: payload.CulQ50,
	}
	if !floods.IsEmpty() {
		record.Floods = floods
	}

	return record
}
