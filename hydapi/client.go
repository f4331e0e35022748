// Package hydapi is a client for the NVE hydrological REST API (HydAPI).
package hydapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the fixed endpoint of the vendor API.
	DefaultBaseURL = "https://hydapi.nve.no/api/v1"

	userAgent = "flomvakt/" + Version
)

// Version of the client, sent in the User-Agent header.
const Version = "1.0.0"

// Client issues authenticated requests against the HydAPI endpoints.
// It holds no mutable state beyond the shared http.Client.
type Client struct {
	baseURL string
	apiKey  string

	client *http.Client
	logger *slog.Logger
}

func NewClient(baseURL, apiKey string, client *http.Client, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

func (c *Client) IsReady() bool {
	if c.logger == nil {
		fmt.Println("Logger of hydapi.Client is not initialized")
		return false
	}

	if c.client == nil {
		c.logger.Error("HTTP client is not set for hydapi.Client")
		return false
	}

	if c.apiKey == "" {
		c.logger.Error("API key is not set for hydapi.Client")
		return false
	}

	return true
}

// TestConnection probes the Parameters endpoint to validate the API key.
// It returns nil on HTTP 200, ErrInvalidAPIKey on 401 and ErrCannotConnect
// on any other status or transport failure.
func (c *Client) TestConnection(ctx context.Context) error {
	if !c.IsReady() {
		return ErrClientNotReady
	}

	var out struct {
		Data json.RawMessage `json:"data"`
	}
	if err := c.getJSON(ctx, "/Parameters", nil, &out); err != nil {
		return err
	}

	c.logger.Debug("NVE API connection test succeeded")
	return nil
}

// ResolveStationByName looks up a station id by its human-readable name.
// Zero matches is not an error: the result is nil. With more than one
// match the first one is used and a warning is logged; the vendor search
// is fuzzy and this imprecision is deliberate.
func (c *Client) ResolveStationByName(ctx context.Context, name string) (*StationMatch, error) {
	if !c.IsReady() {
		return nil, ErrClientNotReady
	}

	query := url.Values{}
	query.Set("StationName", name)

	var out stationsResponse
	if err := c.getJSON(ctx, "/Stations", query, &out); err != nil {
		return nil, err
	}

	if len(out.Data) == 0 {
		c.logger.Warn("No stations found for name", "name", name)
		return nil, nil
	}

	if len(out.Data) > 1 {
		c.logger.Warn("Multiple stations found for name, using first match",
			"name", name, "count", len(out.Data))
	}

	match := &StationMatch{
		ID:   out.Data[0].StationID,
		Name: out.Data[0].StationName,
	}

	c.logger.Info("Resolved station name", "name", name, "station_id", match.ID)
	return match, nil
}

// FetchStationInfo retrieves the static metadata of a station, including
// its series list and flood statistics. A nil record means the station id
// is unknown to the vendor.
func (c *Client) FetchStationInfo(ctx context.Context, stationID string) (*StationRecord, error) {
	if !c.IsReady() {
		return nil, ErrClientNotReady
	}

	query := url.Values{}
	query.Set("StationId", stationID)

	var out stationsResponse
	if err := c.getJSON(ctx, "/Stations", query, &out); err != nil {
		return nil, err
	}

	if len(out.Data) == 0 {
		c.logger.Warn("No station info found", "station_id", stationID)
		return nil, nil
	}

	return mapStation(out.Data[0]), nil
}

// FetchObservations fetches the configured parameters of a station in one
// batched call and surfaces only the most recent sample of each series.
// Series without observations are skipped with a warning.
func (c *Client) FetchObservations(ctx context.Context, stationID string, parameters []string, resolutionTime int) ([]Observation, error) {
	if !c.IsReady() {
		return nil, ErrClientNotReady
	}

	query := url.Values{}
	query.Set("StationId", stationID)
	query.Set("Parameter", strings.Join(parameters, ","))
	query.Set("ResolutionTime", strconv.Itoa(resolutionTime))

	var out observationsResponse
	if err := c.getJSON(ctx, "/Observations", query, &out); err != nil {
		return nil, err
	}

	observations := make([]Observation, 0, len(out.Data))
	for _, series := range out.Data {
		if len(series.Observations) == 0 {
			c.logger.Warn("No observations found for parameter",
				"station_id", stationID, "parameter", series.Parameter.String())
			continue
		}

		// The API returns samples in chronological order; the last one is
		// the current value.
		latest := series.Observations[len(series.Observations)-1]

		observedAt, err := ParseObservationTime(latest.Time)
		if err != nil {
			c.logger.Warn("Skipping observation with invalid timestamp",
				"station_id", stationID, "parameter", series.Parameter.String(),
				"time", latest.Time, "error", err)
			continue
		}

		observations = append(observations, Observation{
			StationID:     series.StationID,
			StationName:   series.StationName,
			Parameter:     series.Parameter.String(),
			ParameterName: series.ParameterName,
			Unit:          series.Unit,
			Method:        series.Method,
			Value:         latest.Value,
			Time:          observedAt,
			Quality:       latest.Quality,
			Correction:    latest.Correction,
		})
	}

	return observations, nil
}

// ParseObservationTime normalizes a vendor timestamp (ISO-8601 with a
// trailing Z) into a timezone-aware UTC instant.
func ParseObservationTime(timestamp string) (time.Time, error) {
	if timestamp == "" {
		return time.Time{}, fmt.Errorf("timestamp cannot be empty")
	}

	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return time.Time{}, err
	}

	return t.UTC(), nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resourceURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", resourceURL, err)
	}

	if query != nil {
		req.URL.RawQuery = query.Encode()
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCannotConnect, err)
	}

	defer func(resp *http.Response) {
		if err := resp.Body.Close(); err != nil {
			c.logger.Error("Failed to close response body", "url", resourceURL, "error", err)
		}
	}(resp)

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrInvalidAPIKey
	default:
		return fmt.Errorf("%w: API returned status %s", ErrCannotConnect, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrUnmarshalFailed, err)
	}

	c.logger.Debug("Content retrieved successfully", "url", resourceURL)
	return nil
}
