package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"turbodriver/internal/scenario"
)

// Smoke test: posts a small scenario to a running control plane, watches
// its websocket feed for a few snapshots, then polls the REST status until
// the run completes and fetches its trips CSV once.
func main() {
	api := envOrDefault("API_BASE", "http://localhost:8080")
	wsBase := envOrDefault("WS_BASE", "ws://localhost:8080")
	token := envOrDefault("OPERATOR_TOKEN", "")

	cfg := scenario.Default()
	cfg.NumRiders = 10
	cfg.NumDrivers = 5
	cfg.InitialRiderCount = 5
	cfg.InitialDriverCount = 5
	cfg.RequestWindowMS = 60_000
	cfg.SimulationEndTimeMS = int64Ptr(120_000)

	fmt.Println("Creating run...")
	runID, err := createRun(api, token, cfg)
	if err != nil {
		log.Fatalf("create run failed: %v", err)
	}
	fmt.Printf("Run ID: %s\n", runID)

	snapshots := make(chan map[string]any, 16)
	go subscribeWS(wsBase, runID, token, snapshots)

	deadline := time.After(20 * time.Second)
	received := 0
loop:
	for received < 3 {
		select {
		case msg := <-snapshots:
			fmt.Printf("snapshot: %v\n", msg)
			received++
		case <-deadline:
			break loop
		}
	}

	status, err := pollUntilDone(api, token, runID, 30*time.Second)
	if err != nil {
		log.Fatalf("poll run failed: %v", err)
	}
	fmt.Printf("final status: %v\n", status)

	csvLen, err := fetchTripsCSVLength(api, token, runID)
	if err != nil {
		log.Fatalf("fetch trips csv failed: %v", err)
	}
	fmt.Printf("trips.csv: %d bytes\n", csvLen)
	fmt.Println("Smoke test complete.")
}

func fetchTripsCSVLength(api, token, runID string) (int, error) {
	req, err := http.NewRequest("GET", fmt.Sprintf("%s/runs/%s/trips.csv", api, runID), nil)
	if err != nil {
		return 0, err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	return len(body), nil
}

func createRun(api, token string, cfg scenario.Config) (string, error) {
	body, _ := json.Marshal(map[string]any{"config": cfg})
	req, err := http.NewRequest("POST", api+"/runs", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("status %s", resp.Status)
	}
	var res map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return "", err
	}
	id, _ := res["id"].(string)
	if id == "" {
		return "", fmt.Errorf("run id missing")
	}
	return id, nil
}

func pollUntilDone(api, token, runID string, timeout time.Duration) (map[string]any, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		req, _ := http.NewRequest("GET", fmt.Sprintf("%s/runs/%s", api, runID), nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, err
		}
		var view map[string]any
		err = json.NewDecoder(resp.Body).Decode(&view)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		if status, _ := view["status"].(string); status == "completed" || status == "failed" {
			return view, nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return nil, fmt.Errorf("timed out waiting for run to finish")
}

func subscribeWS(base, runID, token string, sink chan<- map[string]any) {
	u := fmt.Sprintf("%s/ws/runs/%s", base, runID)
	parsed, _ := url.Parse(u)
	q := parsed.Query()
	if token != "" {
		q.Set("token", token)
	}
	parsed.RawQuery = q.Encode()

	c, _, err := websocket.DefaultDialer.Dial(parsed.String(), nil)
	if err != nil {
		log.Printf("ws dial failed: %v", err)
		return
	}
	defer c.Close()
	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		var payload map[string]any
		if err := json.Unmarshal(msg, &payload); err != nil {
			continue
		}
		sink <- payload
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func int64Ptr(v int64) *int64 { return &v }
