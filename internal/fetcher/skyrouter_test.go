package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"fleetboard/internal/config"
	"fleetboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBases = []models.Base{
	{ID: "LOGAN", Name: "Logan", Latitude: 41.7912, Longitude: -111.8522, RadiusMiles: 5},
}

func testClient(t *testing.T, apiBase string) *Client {
	c, err := NewClient(config.SkyRouter{
		APIBase:     apiBase,
		Username:    "user",
		Password:    "pass",
		TimeoutSecs: 5,
	}, testBases)
	require.NoError(t, err)
	c.backoff = time.Millisecond
	return c
}

// trackingLine builds one FlightTracking record in the 14-field layout.
func trackingLine(reportType, reg, date, clock string, lat, lon float64) string {
	return fmt.Sprintf("X,X,%s,X,X,X,%s,%s,%s,%.4f,%.4f,4500,120,270",
		reportType, reg, date, clock, lat, lon)
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := NewClient(config.SkyRouter{APIBase: "http://example.com"}, nil)
	assert.Error(t, err)
}

func TestParseRecord(t *testing.T) {
	pos, ok := parseRecord(trackingLine("POS", "n881sl", "20260820", "101530", 41.7920, -111.8530))
	require.True(t, ok)

	assert.Equal(t, "N881SL", pos.TailNumber)
	assert.Equal(t, "POS", pos.Status)
	assert.Equal(t, 41.792, pos.Latitude)
	assert.Equal(t, -111.853, pos.Longitude)
	assert.Equal(t, "4500", pos.Altitude)
	assert.Equal(t, time.Date(2026, 8, 20, 10, 15, 30, 0, time.UTC), pos.Timestamp)
}

func TestParseRecord_Invalid(t *testing.T) {
	_, ok := parseRecord("too,few,fields")
	assert.False(t, ok)

	_, ok = parseRecord("X,X,POS,X,X,X,,20260820,101530,41.79,-111.85,4500,120,270")
	assert.False(t, ok, "missing registration")

	_, ok = parseRecord("X,X,POS,X,X,X,N881SL,20260820,101530,not-a-lat,-111.85,4500,120,270")
	assert.False(t, ok, "unparseable latitude")

	_, ok = parseRecord("X,X,POS,X,X,X,N881SL,20260820,101530,41.79x,-111.85,4500,120,270")
	assert.False(t, ok, "latitude with trailing garbage")
}

func TestProcess_KeepsNewestPerTail(t *testing.T) {
	c := testClient(t, "http://unused")

	raw := trackingLine("POS", "N881SL", "20260820", "090000", 40.0, -112.0) + "\n" +
		trackingLine("POS", "N881SL", "20260820", "110000", 41.7920, -111.8530) + "\n" +
		trackingLine("POS", "N881SL", "20260820", "100000", 40.5, -112.0) + "\n"

	snap := c.process(raw)
	require.Len(t, snap.Aircraft, 1)
	assert.Equal(t, 41.792, snap.Aircraft["N881SL"].Latitude)
}

func TestClassify_AtBase(t *testing.T) {
	c := testClient(t, "http://unused")

	pos := models.AircraftPosition{Status: "POS", Latitude: 41.7920, Longitude: -111.8530}
	c.classify(&pos)
	assert.True(t, pos.AtBase)
	assert.Equal(t, "AT BASE", pos.Status)

	// A take-off report inside the radius is still in motion.
	pos = models.AircraftPosition{Status: "TOF", Latitude: 41.7920, Longitude: -111.8530}
	c.classify(&pos)
	assert.False(t, pos.AtBase)
	assert.Equal(t, "TAKE-OFF", pos.Status)

	// Far away, report type maps to its status wording.
	pos = models.AircraftPosition{Status: "LAN", Latitude: 37.0, Longitude: -113.5}
	c.classify(&pos)
	assert.False(t, pos.AtBase)
	assert.Equal(t, "LANDING", pos.Status)
}

func TestLooksLikeHTML(t *testing.T) {
	assert.True(t, looksLikeHTML("<!DOCTYPE html><html>"))
	assert.True(t, looksLikeHTML("  <HTML><body>"))
	assert.True(t, looksLikeHTML("Please login to continue"))
	assert.False(t, looksLikeHTML(trackingLine("POS", "N881SL", "20260820", "101530", 41.79, -111.85)))
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "user", r.URL.Query().Get("username"))
		assert.Equal(t, "FlightTracking", r.URL.Query().Get("datatype"))
		fmt.Fprintln(w, trackingLine("POS", "N881SL", "20260820", "101530", 41.7920, -111.8530))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	snap, err := c.Fetch(context.Background())
	require.NoError(t, err)
	require.Contains(t, snap.Aircraft, "N881SL")
	assert.True(t, snap.Aircraft["N881SL"].AtBase)
}

func TestFetch_HTMLResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<!DOCTYPE html><html>login page</html>")
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Fetch(context.Background())
	assert.Error(t, err)
}

func TestFetch_RetriesTransportErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			// Drop the connection to force a transport error.
			hj, ok := w.(http.Hijacker)
			require.True(t, ok)
			conn, _, err := hj.Hijack()
			require.NoError(t, err)
			conn.Close()
			return
		}
		fmt.Fprintln(w, trackingLine("POS", "N881SL", "20260820", "101530", 41.7920, -111.8530))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	snap, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Contains(t, snap.Aircraft, "N881SL")
	assert.Equal(t, int32(3), calls.Load())
}
