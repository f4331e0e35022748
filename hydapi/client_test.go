package hydapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(baseURL string) *Client {
	return NewClient(baseURL, "test-key", &http.Client{Timeout: time.Second}, newTestLogger())
}

func TestTestConnection(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		expectedErr error
	}{
		{name: "ok", status: http.StatusOK, expectedErr: nil},
		{name: "invalid key", status: http.StatusUnauthorized, expectedErr: ErrInvalidAPIKey},
		{name: "server error", status: http.StatusInternalServerError, expectedErr: ErrCannotConnect},
		{name: "rate limited", status: http.StatusTooManyRequests, expectedErr: ErrCannotConnect},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/Parameters", r.URL.Path)
				assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))

				w.WriteHeader(tc.status)
				if tc.status == http.StatusOK {
					_, _ = w.Write([]byte(`{"data": []}`))
				}
			}))
			defer server.Close()

			err := newTestClient(server.URL).TestConnection(context.Background())
			if tc.expectedErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestTestConnectionNetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close() // connection refused from here on

	err := newTestClient(server.URL).TestConnection(context.Background())
	assert.ErrorIs(t, err, ErrCannotConnect)
}

func TestTestConnectionNotReady(t *testing.T) {
	client := NewClient("", "", nil, newTestLogger())
	assert.ErrorIs(t, client.TestConnection(context.Background()), ErrClientNotReady)
}

func TestResolveStationByName(t *testing.T) {
	testCases := []struct {
		name       string
		body       string
		expectedID string
		expectNil  bool
	}{
		{
			name:      "no matches",
			body:      `{"data": []}`,
			expectNil: true,
		},
		{
			name:       "single match",
			body:       `{"data": [{"stationId": "6.10.0", "stationName": "Gryta"}]}`,
			expectedID: "6.10.0",
		},
		{
			// Ambiguous names resolve to the first match, in input order.
			name: "multiple matches use first",
			body: `{"data": [
				{"stationId": "6.10.0", "stationName": "Gryta"},
				{"stationId": "12.209.0", "stationName": "Gryta nedre"}
			]}`,
			expectedID: "6.10.0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/Stations", r.URL.Path)
				assert.Equal(t, "Gryta", r.URL.Query().Get("StationName"))

				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			match, err := newTestClient(server.URL).ResolveStationByName(context.Background(), "Gryta")
			require.NoError(t, err)

			if tc.expectNil {
				assert.Nil(t, match)
				return
			}

			require.NotNil(t, match)
			assert.Equal(t, tc.expectedID, match.ID)
		})
	}
}

func TestFetchStationInfo(t *testing.T) {
	body := `{"data": [{
		"stationId": "6.10.0",
		"stationName": "Gryta",
		"culQm": 8.0,
		"culQ5": 40.0,
		"culQ50": 120.0,
		"seriesList": [
			{"parameter": 1001, "parameterName": "Water flow", "unit": "m³/s"},
			{"parameter": 1000, "parameterName": "Water level", "unit": "m"}
		]
	}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Stations", r.URL.Path)
		assert.Equal(t, "6.10.0", r.URL.Query().Get("StationId"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	record, err := newTestClient(server.URL).FetchStationInfo(context.Background(), "6.10.0")
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.Equal(t, "6.10.0", record.ID)
	assert.Equal(t, "Gryta", record.Name)

	require.Len(t, record.Series, 2)
	assert.Equal(t, "1001", record.Series[0].Parameter)
	assert.Equal(t, "Water flow", record.Series[0].ParameterName)
	assert.Equal(t, "m³/s", record.Series[0].Unit)

	require.NotNil(t, record.Floods)
	require.NotNil(t, record.Floods.CulQm)
	assert.Equal(t, 8.0, *record.Floods.CulQm)
	assert.Equal(t, 40.0, *record.Floods.CulQ5)
	assert.Equal(t, 120.0, *record.Floods.CulQ50)
}

func TestFetchStationInfoNoMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	record, err := newTestClient(server.URL).FetchStationInfo(context.Background(), "0.0.0")
	assert.NoError(t, err)
	assert.Nil(t, record)
}

func TestFetchStationInfoInvalidKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).FetchStationInfo(context.Background(), "6.10.0")
	assert.ErrorIs(t, err, ErrInvalidAPIKey)
}

func TestFetchStationInfoWithoutFloodStats(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{
			"stationId": "6.10.0",
			"stationName": "Gryta",
			"seriesList": [{"parameter": 1001, "parameterName": "Water flow", "unit": "m³/s"}]
		}]}`))
	}))
	defer server.Close()

	record, err := newTestClient(server.URL).FetchStationInfo(context.Background(), "6.10.0")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Nil(t, record.Floods)
	assert.True(t, record.Floods.IsEmpty())
}

func TestFetchObservationsReturnsLastSample(t *testing.T) {
	// Five chronological samples; only the fifth may surface.
	body := `{"data": [{
		"stationId": "6.10.0",
		"stationName": "Gryta",
		"parameter": 1001,
		"parameterName": "Water flow",
		"unit": "m³/s",
		"method": "Instantaneous",
		"observations": [
			{"time": "2024-01-01T06:00:00Z", "value": 10.1, "quality": 1, "correction": 0},
			{"time": "2024-01-01T07:00:00Z", "value": 10.7, "quality": 1, "correction": 0},
			{"time": "2024-01-01T08:00:00Z", "value": 11.2, "quality": 1, "correction": 0},
			{"time": "2024-01-01T09:00:00Z", "value": 11.9, "quality": 1, "correction": 0},
			{"time": "2024-01-01T10:00:00Z", "value": 12.3, "quality": 2, "correction": 1}
		]
	}]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Observations", r.URL.Path)
		assert.Equal(t, "6.10.0", r.URL.Query().Get("StationId"))
		assert.Equal(t, "1001,1000", r.URL.Query().Get("Parameter"))
		assert.Equal(t, "60", r.URL.Query().Get("ResolutionTime"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	observations, err := newTestClient(server.URL).FetchObservations(
		context.Background(), "6.10.0", []string{"1001", "1000"}, 60)
	require.NoError(t, err)
	require.Len(t, observations, 1)

	obs := observations[0]
	assert.Equal(t, "6.10.0", obs.StationID)
	assert.Equal(t, "1001", obs.Parameter)
	assert.Equal(t, "Water flow", obs.ParameterName)
	assert.Equal(t, "m³/s", obs.Unit)
	assert.Equal(t, "Instantaneous", obs.Method)

	require.NotNil(t, obs.Value)
	assert.Equal(t, 12.3, *obs.Value)
	require.NotNil(t, obs.Quality)
	assert.Equal(t, 2, *obs.Quality)
	require.NotNil(t, obs.Correction)
	assert.Equal(t, 1, *obs.Correction)

	expectedTime := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	assert.True(t, obs.Time.Equal(expectedTime))
	assert.Equal(t, time.UTC, obs.Time.Location())
}

func TestFetchObservationsSkipsEmptySeries(t *testing.T) {
	body := `{"data": [
		{
			"stationId": "6.10.0",
			"parameter": 1000,
			"parameterName": "Water level",
			"unit": "m",
			"observations": []
		},
		{
			"stationId": "6.10.0",
			"parameter": 1001,
			"parameterName": "Water flow",
			"unit": "m³/s",
			"observations": [{"time": "2024-01-01T10:00:00Z", "value": 12.3}]
		}
	]}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	observations, err := newTestClient(server.URL).FetchObservations(
		context.Background(), "6.10.0", []string{"1000", "1001"}, 0)
	require.NoError(t, err)
	require.Len(t, observations, 1)
	assert.Equal(t, "1001", observations[0].Parameter)
}

func TestFetchObservationsEmptyData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	observations, err := newTestClient(server.URL).FetchObservations(
		context.Background(), "6.10.0", []string{"1001"}, 0)
	assert.NoError(t, err)
	assert.Empty(t, observations)
}

func TestParseObservationTime(t *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    time.Time
		expectError bool
	}{
		{
			name:     "UTC timestamp",
			input:    "2024-01-01T10:00:00Z",
			expected: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:     "offset normalized to UTC",
			input:    "2024-01-01T11:00:00+01:00",
			expected: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		},
		{name: "empty", input: "", expectError: true},
		{name: "garbage", input: "yesterday", expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := ParseObservationTime(tc.input)
			if tc.expectError {
				assert.Error(t, err)
				return
			}

			assert.NoError(t, err)
			assert.True(t, parsed.Equal(tc.expected))
			assert.Equal(t, time.UTC, parsed.Location())
		})
	}
}
