// trigger-refresh forces an immediate refresh of monitored stations
// through a running flomvakt service.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"
)

type Config struct {
	ServiceURL string
	APIToken   string

	RequestTimeout time.Duration
}

type stationStatus struct {
	StationID string `json:"station_id"`
	Name      string `json:"station_name"`
	State     string `json:"state"`
}

type stationList struct {
	Items []stationStatus `json:"items"`
}

func main() {
	config, err := loadConfigFromEnv()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	client := &http.Client{Timeout: config.RequestTimeout}

	stationIDs := os.Args[1:]
	if len(stationIDs) == 0 {
		stationIDs, err = listStationIDs(client, config)
		if err != nil {
			fmt.Printf("Error listing stations: %v\n", err)
			os.Exit(1)
		}
	}

	if len(stationIDs) == 0 {
		fmt.Println("No stations to refresh.")
		return
	}

	failures := 0
	for _, stationID := range stationIDs {
		if err := triggerRefresh(client, config, stationID); err != nil {
			fmt.Printf("Failed to refresh station %s: %v\n", stationID, err)
			failures++
			continue
		}
		fmt.Printf("Refreshed station %s\n", stationID)
	}

	if failures > 0 {
		os.Exit(1)
	}
}

func loadConfigFromEnv() (*Config, error) {
	serviceURL := os.Getenv("FLOMVAKT_SERVICE_URL")
	if serviceURL == "" {
		return nil, fmt.Errorf("FLOMVAKT_SERVICE_URL is not set")
	}

	apiToken := os.Getenv("FLOMVAKT_API_TOKEN")
	if apiToken == "" {
		return nil, fmt.Errorf("FLOMVAKT_API_TOKEN is not set")
	}

	return &Config{
		ServiceURL:     serviceURL,
		APIToken:       apiToken,
		RequestTimeout: 10 * time.Second,
	}, nil
}

func listStationIDs(client *http.Client, config *Config) ([]string, error) {
	listURL, err := url.JoinPath(config.ServiceURL, "stations")
	if err != nil {
		return nil, fmt.Errorf("failed to construct URL: %w", err)
	}

	resp, err := client.Get(listURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func(resp *http.Response) {
		if err := resp.Body.Close(); err != nil {
			fmt.Printf("failed to close response body: %v\n", err)
		}
	}(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var list stationList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode station list: %w", err)
	}

	ids := make([]string, 0, len(list.Items))
	for _, station := range list.Items {
		ids = append(ids, station.StationID)
	}

	return ids, nil
}

func triggerRefresh(client *http.Client, config *Config, stationID string) error {
	refreshURL, err := url.JoinPath(config.ServiceURL, "stations", stationID, "refresh")
	if err != nil {
		return fmt.Errorf("failed to construct URL: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, refreshURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+config.APIToken)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func(resp *http.Response) {
		if err := resp.Body.Close(); err != nil {
			fmt.Printf("failed to close response body: %v\n", err)
		}
	}(resp)

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d - %s", resp.StatusCode, string(content))
	}

	return nil
}
