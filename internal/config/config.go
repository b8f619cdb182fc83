package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"fleetboard/internal/models"
)

// Config holds all configuration for the dashboard generator.
type Config struct {
	DataDir string

	DailyCSV     string // required input, run aborts when missing
	WeeklyCSV    string // optional long-range input
	DashboardOut string

	PositionsFile   string
	AssignmentsFile string
	LegacyHistory   string // pre-existing JSON history, imported once
	DBPath          string

	Thresholds Thresholds
	Intervals  map[int][]string // phase interval -> ATA code patterns
	Bases      []models.Base

	SkyRouter SkyRouter
	Daemon    Daemon
	Log       LogConfig
}

// Thresholds controls due-status classification and component selection.
type Thresholds struct {
	DueSoonDays         int
	CriticalDays        int
	DueSoonHours        float64
	CriticalHours       float64
	ComponentWindowHrs  float64
	ComponentWindowDays float64
	HistoryRetainDays   int
}

// SkyRouter holds the position fetcher settings. Username and password come
// only from the environment, never from the config file.
type SkyRouter struct {
	APIBase     string
	Username    string
	Password    string
	TimeoutSecs int
}

// Daemon holds the scheduler intervals for -daemon mode.
type Daemon struct {
	FetchMinutes     int
	DashboardMinutes int
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string
	Format string
}

// defaultBases mirrors the operator's fleet footprint and is used whenever
// the config file does not define a bases list.
var defaultBases = []models.Base{
	{ID: "LOGAN", Name: "Logan", Latitude: 41.7912, Longitude: -111.8522, RadiusMiles: 5},
	{ID: "MCKAY", Name: "McKay", Latitude: 41.2545, Longitude: -112.0126, RadiusMiles: 5},
	{ID: "IMED", Name: "IMed", Latitude: 40.2338, Longitude: -111.6585, RadiusMiles: 5},
	{ID: "PROVO", Name: "Provo", Latitude: 40.2192, Longitude: -111.7233, RadiusMiles: 5},
	{ID: "ROOSEVELT", Name: "Roosevelt", Latitude: 40.2765, Longitude: -110.0518, RadiusMiles: 5},
	{ID: "CEDAR_CITY", Name: "Cedar City", Latitude: 37.7010, Longitude: -113.0989, RadiusMiles: 5},
	{ID: "ST_GEORGE", Name: "St George", Latitude: 37.0365, Longitude: -113.5101, RadiusMiles: 5},
	{ID: "KSLC", Name: "KSLC", Latitude: 40.7884, Longitude: -111.9778, RadiusMiles: 10},
}

// defaultIntervals maps each tracked phase inspection interval to the ATA
// code patterns that identify it in the due-list export.
var defaultIntervals = map[int][]string{
	50:   {`05 1000`},
	100:  {`64 01\[273\]`},
	200:  {`05 1005`},
	400:  {`05 1010`},
	800:  {`05 1015`},
	2400: {`62 11\[373\]`},
	3200: {`05 1020`},
}

// Load loads configuration from the config file and environment variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("data_dir", "data")
	v.SetDefault("input.daily", "Due-List_Latest.csv")
	v.SetDefault("input.weekly", "Due-List_BIG_WEEKLY.csv")
	v.SetDefault("output.dashboard", "fleet_dashboard.html")
	v.SetDefault("snapshots.positions", "skyrouter_status.json")
	v.SetDefault("snapshots.assignments", "base_assignments.json")
	v.SetDefault("snapshots.legacy_history", "flight_hours_history.json")
	v.SetDefault("db_path", "fleet_history.db")

	v.SetDefault("thresholds.due_soon_days", 30)
	v.SetDefault("thresholds.critical_days", 7)
	v.SetDefault("thresholds.due_soon_hours", 100.0)
	v.SetDefault("thresholds.critical_hours", 25.0)
	v.SetDefault("thresholds.component_window_hours", 200.0)
	v.SetDefault("thresholds.component_window_days", 60.0)
	v.SetDefault("thresholds.history_retain_days", 90)

	v.SetDefault("skyrouter.api_base", "https://new.skyrouter.com/Bsn.Skyrouter.DataExchange/")
	v.SetDefault("skyrouter.timeout_secs", 30)

	v.SetDefault("daemon.fetch_minutes", 15)
	v.SetDefault("daemon.dashboard_minutes", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/fleetboard")
	v.AddConfigPath(".")

	if configPath := os.Getenv("FLEETBOARD_CONFIG_PATH"); configPath != "" {
		v.SetConfigFile(configPath)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults + env vars
	}

	v.SetEnvPrefix("FLEETBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The fetcher credentials keep their historical, unprefixed names.
	_ = v.BindEnv("skyrouter.username", "SKYROUTER_USER")
	_ = v.BindEnv("skyrouter.password", "SKYROUTER_PASS")

	cfg := &Config{
		DataDir:         v.GetString("data_dir"),
		DailyCSV:        v.GetString("input.daily"),
		WeeklyCSV:       v.GetString("input.weekly"),
		DashboardOut:    v.GetString("output.dashboard"),
		PositionsFile:   v.GetString("snapshots.positions"),
		AssignmentsFile: v.GetString("snapshots.assignments"),
		LegacyHistory:   v.GetString("snapshots.legacy_history"),
		DBPath:          v.GetString("db_path"),
		Thresholds: Thresholds{
			DueSoonDays:         v.GetInt("thresholds.due_soon_days"),
			CriticalDays:        v.GetInt("thresholds.critical_days"),
			DueSoonHours:        v.GetFloat64("thresholds.due_soon_hours"),
			CriticalHours:       v.GetFloat64("thresholds.critical_hours"),
			ComponentWindowHrs:  v.GetFloat64("thresholds.component_window_hours"),
			ComponentWindowDays: v.GetFloat64("thresholds.component_window_days"),
			HistoryRetainDays:   v.GetInt("thresholds.history_retain_days"),
		},
		Intervals: defaultIntervals,
		SkyRouter: SkyRouter{
			APIBase:     v.GetString("skyrouter.api_base"),
			Username:    v.GetString("skyrouter.username"),
			Password:    v.GetString("skyrouter.password"),
			TimeoutSecs: v.GetInt("skyrouter.timeout_secs"),
		},
		Daemon: Daemon{
			FetchMinutes:     v.GetInt("daemon.fetch_minutes"),
			DashboardMinutes: v.GetInt("daemon.dashboard_minutes"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	var bases []models.Base
	if err := v.UnmarshalKey("bases", &bases); err != nil {
		return nil, fmt.Errorf("invalid bases configuration: %w", err)
	}
	for i := range bases {
		bases[i].ID = strings.ToUpper(strings.TrimSpace(bases[i].ID))
	}
	if len(bases) == 0 {
		bases = defaultBases
	}
	cfg.Bases = bases

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Path resolves a data file name against the configured data directory.
func (c *Config) Path(name string) string {
	return filepath.Join(c.DataDir, name)
}

// validate validates the configuration values.
func validate(cfg *Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if cfg.DailyCSV == "" {
		return fmt.Errorf("input.daily is required")
	}

	if cfg.Thresholds.DueSoonDays <= 0 {
		return fmt.Errorf("thresholds.due_soon_days must be greater than 0")
	}

	if cfg.Thresholds.HistoryRetainDays <= 0 {
		return fmt.Errorf("thresholds.history_retain_days must be greater than 0")
	}

	for _, b := range cfg.Bases {
		if b.ID == "" {
			return fmt.Errorf("every base needs an id")
		}
		if b.RadiusMiles <= 0 {
			return fmt.Errorf("base %s: radius_miles must be greater than 0", b.ID)
		}
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[strings.ToLower(cfg.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", cfg.Log.Level)
	}

	validLogFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validLogFormats[strings.ToLower(cfg.Log.Format)] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", cfg.Log.Format)
	}

	return nil
}
