// Package config loads runtime settings from defaults, an optional YAML
// file, BMAVOICE_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ZyrusXD/BMA-Voice/internal/ledger"
)

// EnvPrefix namespaces environment overrides, e.g. BMAVOICE_SERVER_ADDR.
const EnvPrefix = "BMAVOICE"

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Geo         GeoConfig         `mapstructure:"geo"`
	Missions    MissionsConfig    `mapstructure:"missions"`
	Ledger      LedgerConfig      `mapstructure:"ledger"`
	Scheduler   SchedulerConfig   `mapstructure:"scheduler"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Cron        CronConfig        `mapstructure:"cron"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Format is text or json.
	Format string `mapstructure:"format"`
}

type GeoConfig struct {
	// DistrictsPath is a GeoJSON FeatureCollection of district polygons.
	DistrictsPath string `mapstructure:"districts_path"`
}

type MissionsConfig struct {
	CatalogPath string `mapstructure:"catalog_path"`
	// SeedOnStart loads the catalog file when the server starts.
	SeedOnStart bool `mapstructure:"seed_on_start"`
}

type LedgerConfig struct {
	DailyLimit int `mapstructure:"daily_limit"`
	// Timezone is an IANA name; calendar days start at its midnight.
	Timezone  string         `mapstructure:"timezone"`
	Points    map[string]int `mapstructure:"points"`
	Reactions map[string]int `mapstructure:"reactions"`
}

type SchedulerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Interval    time.Duration `mapstructure:"interval"`
	PollWeekday string        `mapstructure:"poll_weekday"`
}

type LeaderboardConfig struct {
	Size int           `mapstructure:"size"`
	TTL  time.Duration `mapstructure:"ttl"`
}

type CronConfig struct {
	// TokenHash is the bcrypt hash of the X-Auth-Token secret. Empty
	// disables the /cron endpoints.
	TokenHash      string `mapstructure:"token_hash"`
	RequestsPerMin int    `mapstructure:"requests_per_min"`
	BackfillBatch  int    `mapstructure:"backfill_batch"`
}

// Default returns the built-in configuration.
func Default() *Config {
	points := ledger.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{Path: "bmavoice.db"},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Geo:      GeoConfig{DistrictsPath: "data/bangkok_districts.geojson"},
		Missions: MissionsConfig{CatalogPath: "configs/missions.yaml", SeedOnStart: true},
		Ledger: LedgerConfig{
			DailyLimit: points.DailyLimit,
			Timezone:   "UTC",
			Points:     points.Points,
			Reactions:  points.Reactions,
		},
		Scheduler: SchedulerConfig{
			Enabled:     true,
			Interval:    time.Minute,
			PollWeekday: "monday",
		},
		Leaderboard: LeaderboardConfig{Size: 10, TTL: 30 * time.Second},
		Cron:        CronConfig{RequestsPerMin: 10, BackfillBatch: 500},
	}
}

// SetDefaults registers every default on v and wires environment lookup.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("geo.districts_path", d.Geo.DistrictsPath)
	v.SetDefault("missions.catalog_path", d.Missions.CatalogPath)
	v.SetDefault("missions.seed_on_start", d.Missions.SeedOnStart)
	v.SetDefault("ledger.daily_limit", d.Ledger.DailyLimit)
	v.SetDefault("ledger.timezone", d.Ledger.Timezone)
	v.SetDefault("ledger.points", d.Ledger.Points)
	v.SetDefault("ledger.reactions", d.Ledger.Reactions)
	v.SetDefault("scheduler.enabled", d.Scheduler.Enabled)
	v.SetDefault("scheduler.interval", d.Scheduler.Interval)
	v.SetDefault("scheduler.poll_weekday", d.Scheduler.PollWeekday)
	v.SetDefault("leaderboard.size", d.Leaderboard.Size)
	v.SetDefault("leaderboard.ttl", d.Leaderboard.TTL)
	v.SetDefault("cron.token_hash", d.Cron.TokenHash)
	v.SetDefault("cron.requests_per_min", d.Cron.RequestsPerMin)
	v.SetDefault("cron.backfill_batch", d.Cron.BackfillBatch)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// LoadDotEnv exports the variables in the given .env files into the process
// environment. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads v into a Config and validates it. Point tables merge over the
// defaults entry by entry.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	d := Default()
	cfg.Ledger.Points = mergeTable(d.Ledger.Points, cfg.Ledger.Points)
	cfg.Ledger.Reactions = mergeTable(d.Ledger.Reactions, cfg.Ledger.Reactions)
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}
	return &cfg, nil
}

func mergeTable(base, over map[string]int) map[string]int {
	out := make(map[string]int, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}

// Location resolves the ledger time zone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Ledger.Timezone)
}

// Weekday resolves scheduler.poll_weekday.
func (c *Config) Weekday() (time.Weekday, error) {
	return ParseWeekday(c.Scheduler.PollWeekday)
}

// LedgerSettings converts the ledger section into ledger.Config.
func (c *Config) LedgerSettings() (ledger.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return ledger.Config{}, err
	}
	return ledger.Config{
		Points:     c.Ledger.Points,
		Reactions:  c.Ledger.Reactions,
		DailyLimit: c.Ledger.DailyLimit,
		Location:   loc,
	}, nil
}

// ParseWeekday accepts full English day names or their three-letter forms.
func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}
