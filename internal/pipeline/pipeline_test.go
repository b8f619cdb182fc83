package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fleetboard/internal/config"
	"fleetboard/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DataDir:         t.TempDir(),
		DailyCSV:        "Due-List_Latest.csv",
		WeeklyCSV:       "Due-List_BIG_WEEKLY.csv",
		DashboardOut:    "fleet_dashboard.html",
		PositionsFile:   "skyrouter_status.json",
		AssignmentsFile: "base_assignments.json",
		LegacyHistory:   "flight_hours_history.json",
		DBPath:          "fleet_history.db",
		Thresholds: config.Thresholds{
			DueSoonDays:         30,
			CriticalDays:        7,
			DueSoonHours:        100,
			CriticalHours:       25,
			ComponentWindowHrs:  200,
			ComponentWindowDays: 60,
			HistoryRetainDays:   90,
		},
		Intervals: map[int][]string{
			50:  {`05 1000`},
			200: {`05 1005`},
		},
	}
}

func testRunner(t *testing.T, cfg *config.Config) *Runner {
	db, err := database.New(cfg.Path(cfg.DBPath))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	r, err := New(cfg, db)
	require.NoError(t, err)
	return r
}

// writeDailyCSV writes a minimal export with one 200-hr inspection row.
func writeDailyCSV(t *testing.T, cfg *config.Config, remHrs string) {
	writeDailyCSVDated(t, cfg, remHrs, "2026-08-20")
}

func writeDailyCSVDated(t *testing.T, cfg *config.Config, remHrs, reportDate string) {
	row := make([]string, 64)
	row[0] = "N881SL"
	row[2] = reportDate
	row[3] = "1204.5"
	row[5] = "05 1005"
	row[11] = "Inspection"
	row[15] = "200 HOUR INSPECTION"
	row[54] = remHrs
	row[63] = "COMING DUE"

	content := strings.Join(make([]string, 64), ",") + "\n" + strings.Join(row, ",") + "\n"
	require.NoError(t, os.WriteFile(cfg.Path(cfg.DailyCSV), []byte(content), 0o644))
}

func TestRun_MissingDailyCSVFails(t *testing.T) {
	cfg := testConfig(t)
	r := testRunner(t, cfg)

	err := r.Run(testNow)
	require.Error(t, err)

	// The previous dashboard must not be clobbered on failure.
	_, statErr := os.Stat(cfg.Path(cfg.DashboardOut))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_WritesDashboard(t *testing.T) {
	cfg := testConfig(t)
	writeDailyCSV(t, cfg, "87.3")
	r := testRunner(t, cfg)

	require.NoError(t, r.Run(testNow))

	data, err := os.ReadFile(cfg.Path(cfg.DashboardOut))
	require.NoError(t, err)
	html := string(data)
	assert.Contains(t, html, "N881SL")
	assert.Contains(t, html, "REPORT DATE: 20 AUG 2026")
	// No position snapshot exists; the aircraft is still shown, flagged.
	assert.Contains(t, html, "UNKNOWN BASE")
}

func TestRun_Deterministic(t *testing.T) {
	cfg := testConfig(t)
	writeDailyCSV(t, cfg, "87.3")
	r := testRunner(t, cfg)

	require.NoError(t, r.Run(testNow))
	first, err := os.ReadFile(cfg.Path(cfg.DashboardOut))
	require.NoError(t, err)

	require.NoError(t, r.Run(testNow))
	second, err := os.ReadFile(cfg.Path(cfg.DashboardOut))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_RecordsFlightHours(t *testing.T) {
	cfg := testConfig(t)
	writeDailyCSV(t, cfg, "87.3")
	r := testRunner(t, cfg)

	require.NoError(t, r.Run(testNow))

	history, err := r.db.FlightHours().HistorySince("2026-01-01")
	require.NoError(t, err)
	require.Len(t, history["N881SL"], 1)
	assert.Equal(t, "2026-08-20", history["N881SL"][0].Date)
	assert.Equal(t, 1204.5, history["N881SL"][0].Hours)
}

func TestRun_StaleExportKeepsReportDate(t *testing.T) {
	cfg := testConfig(t)
	writeDailyCSVDated(t, cfg, "87.3", "2026-08-18")
	r := testRunner(t, cfg)

	// Re-running a stale export on later days must not fabricate fresh
	// readings under each run date.
	require.NoError(t, r.Run(testNow))
	require.NoError(t, r.Run(testNow.AddDate(0, 0, 2)))

	history, err := r.db.FlightHours().HistorySince("2026-01-01")
	require.NoError(t, err)
	require.Len(t, history["N881SL"], 1)
	assert.Equal(t, "2026-08-18", history["N881SL"][0].Date)
}

func TestRun_ImportsLegacyHistoryOnce(t *testing.T) {
	cfg := testConfig(t)
	writeDailyCSV(t, cfg, "87.3")

	legacy := `{"N881SL": {"2026-08-15": {"hours": 1190.0, "date": "2026-08-15"}}}`
	require.NoError(t, os.WriteFile(cfg.Path(cfg.LegacyHistory), []byte(legacy), 0o644))

	r := testRunner(t, cfg)
	require.NoError(t, r.Run(testNow))

	history, err := r.db.FlightHours().HistorySince("2026-01-01")
	require.NoError(t, err)
	require.Len(t, history["N881SL"], 2)
	assert.Equal(t, "2026-08-15", history["N881SL"][0].Date)
	assert.Equal(t, 1190.0, history["N881SL"][0].Hours)
}

func TestRun_MergesWeeklyExport(t *testing.T) {
	cfg := testConfig(t)
	writeDailyCSV(t, cfg, "87.3")

	// Weekly export carries a 50-hr bucket the daily one lacks.
	row := make([]string, 64)
	row[0] = "N881SL"
	row[2] = "2026-08-18"
	row[3] = "1198.0"
	row[5] = "05 1000"
	row[11] = "Inspection"
	row[15] = "50 HOUR INSPECTION"
	row[54] = "12.0"
	content := strings.Join(make([]string, 64), ",") + "\n" + strings.Join(row, ",") + "\n"
	require.NoError(t, os.WriteFile(cfg.Path(cfg.WeeklyCSV), []byte(content), 0o644))

	r := testRunner(t, cfg)
	require.NoError(t, r.Run(testNow))

	data, err := os.ReadFile(cfg.Path(cfg.DashboardOut))
	require.NoError(t, err)
	// Both buckets render a badge value.
	assert.Contains(t, string(data), "12.0")
	assert.Contains(t, string(data), "87.3")
}

func TestRun_LeavesPreviousDashboardOnFailure(t *testing.T) {
	cfg := testConfig(t)
	writeDailyCSV(t, cfg, "87.3")
	r := testRunner(t, cfg)
	require.NoError(t, r.Run(testNow))

	previous, err := os.ReadFile(cfg.Path(cfg.DashboardOut))
	require.NoError(t, err)

	require.NoError(t, os.Remove(cfg.Path(cfg.DailyCSV)))
	require.Error(t, r.Run(testNow))

	current, err := os.ReadFile(cfg.Path(cfg.DashboardOut))
	require.NoError(t, err)
	assert.Equal(t, previous, current, "failed run must not clobber the dashboard")
}

func TestRun_FiltersDashboardOutput(t *testing.T) {
	cfg := testConfig(t)
	writeDailyCSV(t, cfg, "-4.0")
	r := testRunner(t, cfg)

	require.NoError(t, r.Run(testNow))

	data, err := os.ReadFile(filepath.Join(cfg.DataDir, cfg.DashboardOut))
	require.NoError(t, err)
	// Negative remaining hours renders as an overdue badge.
	assert.Contains(t, string(data), "hr-overdue")
	assert.Contains(t, string(data), "OVRD 4")
}
