// Package fetcher polls the SkyRouter Data Exchange API for fleet positions
// and writes the positions snapshot consumed by the dashboard build.
package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"fleetboard/internal/assign"
	"fleetboard/internal/config"
	"fleetboard/internal/models"
)

// maxAttempts bounds transport-level retries within one fetch. The outer
// scheduler re-invokes the task anyway, so a short burst is enough.
const maxAttempts = 3

// statusByReportType maps SkyRouter FlightTracking report types to the
// dashboard's location status wording.
var statusByReportType = map[string]string{
	"POS": "ACTIVE",
	"QPS": "ACTIVE",
	"HBT": "ACTIVE",
	"BEA": "ACTIVE",
	"TOF": "TAKE-OFF",
	"LAN": "LANDING",
	"OGA": "DEPARTED",
	"IGA": "ARRIVED",
}

// Client fetches FlightTracking data for the configured account.
type Client struct {
	apiBase  string
	username string
	password string
	bases    []models.Base
	http     *http.Client
	backoff  time.Duration
}

// NewClient builds a SkyRouter client. Credentials are required; callers
// skip the fetch entirely when they are absent.
func NewClient(cfg config.SkyRouter, bases []models.Base) (*Client, error) {
	if cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("missing SKYROUTER_USER or SKYROUTER_PASS")
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		apiBase:  cfg.APIBase,
		username: cfg.Username,
		password: cfg.Password,
		bases:    bases,
		http:     &http.Client{Timeout: timeout},
		backoff:  time.Second,
	}, nil
}

// Fetch requests everything since the last request and reduces it to the
// newest report per tail.
func (c *Client) Fetch(ctx context.Context) (*models.PositionSnapshot, error) {
	raw, err := c.fetchRaw(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("Received SkyRouter response", "bytes", len(raw))

	snap := c.process(raw)
	snap.LastUpdated = time.Now().UTC()
	return snap, nil
}

// fetchRaw retrieves the raw FlightTracking text, retrying transport errors
// with backoff.
func (c *Client) fetchRaw(ctx context.Context) (string, error) {
	q := url.Values{}
	q.Set("username", c.username)
	q.Set("password", c.password)
	q.Set("datatype", "FlightTracking")
	q.Set("option", "EverythingSinceLastRequest")
	reqURL := c.apiBase + "?" + q.Encode()

	var lastErr error
	backoff := c.backoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return "", fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Accept", "text/plain")

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			// URL carries credentials, never log it
			slog.Warn("SkyRouter request failed", "attempt", attempt, "error", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("skyrouter returned status %d", resp.StatusCode)
		}

		text := string(body)
		if strings.TrimSpace(text) == "" {
			return "", fmt.Errorf("skyrouter returned empty response")
		}
		if looksLikeHTML(text) {
			return "", fmt.Errorf("skyrouter returned HTML (likely wrong endpoint or auth issue)")
		}
		return text, nil
	}

	return "", fmt.Errorf("skyrouter request failed after %d attempts: %w", maxAttempts, lastErr)
}

// looksLikeHTML detects the login/error page failure mode.
func looksLikeHTML(text string) bool {
	head := strings.ToLower(strings.TrimSpace(text))
	if len(head) > 200 {
		head = head[:200]
	}
	return strings.HasPrefix(head, "<!doctype html") ||
		strings.HasPrefix(head, "<html") ||
		strings.Contains(head, "login")
}

// process converts raw report lines into per-aircraft status, keeping the
// newest report per tail.
func (c *Client) process(raw string) *models.PositionSnapshot {
	snap := &models.PositionSnapshot{Aircraft: map[string]models.AircraftPosition{}}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		pos, ok := parseRecord(line)
		if !ok {
			continue
		}

		c.classify(&pos)

		existing, seen := snap.Aircraft[pos.TailNumber]
		if !seen || pos.Timestamp.After(existing.Timestamp) {
			snap.Aircraft[pos.TailNumber] = pos
		}
	}

	return snap
}

// classify derives the location status and at-base flag from the report
// type and the distance to the nearest configured base.
func (c *Client) classify(pos *models.AircraftPosition) {
	reportType := pos.Status
	status, ok := statusByReportType[reportType]
	if !ok {
		status = reportType
	}

	if base, dist, found := assign.Nearest(c.bases, pos.Latitude, pos.Longitude); found {
		pos.DistanceFromBase = round2(dist)
		if dist <= base.RadiusMiles && reportType != "TOF" && reportType != "OGA" {
			pos.AtBase = true
			status = "AT BASE"
		}
	}

	pos.Status = status
}

// parseRecord parses one FlightTracking record. Field layout (0-based):
// 2 report type, 6 registration, 7 date YYYYMMDD, 8 time HHMMSS,
// 9 latitude, 10 longitude, 11 altitude, 12 velocity, 13 heading.
func parseRecord(line string) (models.AircraftPosition, bool) {
	fields := strings.Split(line, ",")
	if len(fields) < 14 {
		return models.AircraftPosition{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	reg := fields[6]
	latStr, lonStr := fields[9], fields[10]
	if reg == "" || latStr == "" || lonStr == "" {
		return models.AircraftPosition{}, false
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return models.AircraftPosition{}, false
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return models.AircraftPosition{}, false
	}

	ts, err := time.Parse("20060102 150405", fields[7]+" "+fields[8])
	if err != nil {
		ts = time.Now().UTC()
	}

	return models.AircraftPosition{
		TailNumber: strings.ToUpper(reg),
		Status:     strings.ToUpper(fields[2]), // report type until classified
		Latitude:   lat,
		Longitude:  lon,
		Altitude:   fields[11],
		Velocity:   fields[12],
		Heading:    fields[13],
		Timestamp:  ts,
	}, true
}

// WriteSnapshot writes the positions snapshot atomically.
func WriteSnapshot(path string, snap *models.PositionSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal positions: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write positions snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace positions snapshot: %w", err)
	}
	return nil
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
