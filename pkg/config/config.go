package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Storage   StorageConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// StorageConfig controls durable persistence of rendered schedule exports
// and the signed, reusable download links issued for them. SigningSecret
// empty disables signed downloads; the direct render routes still work.
type StorageConfig struct {
	Dir           string
	SigningSecret string
	SignedURLTTL  time.Duration
}

// BreakWindowConfig is one configured institute-wide or per-department
// break window, parsed from a compact "HH:MM-HH:MM" environment value.
type BreakWindowConfig struct {
	Kind      string // "morning", "lunch", "snack"
	Dept      string // only meaningful when Kind == "lunch"
	StartMin  int
	EndMin    int
	Label     string
}

// SchedulerConfig carries every runtime-tunable parameter of the
// constraint-aware timetable generator: the calendar grid, break windows,
// department list, backtracking cap, and proposal lifecycle.
type SchedulerConfig struct {
	Enabled     bool
	ProposalTTL time.Duration

	Days                  []string
	SlotGranularityMinutes int
	WorkingHoursStart      int // minutes from midnight
	WorkingHoursEnd        int // minutes from midnight
	Departments            []string
	Breaks                 []BreakWindowConfig

	MaxAttempts int
	Seed        int64
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		Enabled:                v.GetBool("ENABLE_SCHEDULER"),
		ProposalTTL:            parseDuration(v.GetString("SCHEDULER_PROPOSAL_TTL"), 30*time.Minute),
		Days:                   splitAndTrim(v.GetString("SCHEDULER_DAYS")),
		SlotGranularityMinutes: v.GetInt("SCHEDULER_SLOT_GRANULARITY_MINUTES"),
		WorkingHoursStart:      parseClockMinutes(v.GetString("SCHEDULER_WORKING_HOURS_START"), 9*60),
		WorkingHoursEnd:        parseClockMinutes(v.GetString("SCHEDULER_WORKING_HOURS_END"), 19*60+30),
		Departments:            splitAndTrim(v.GetString("SCHEDULER_DEPARTMENTS")),
		Breaks:                 parseBreakWindows(splitAndTrim(v.GetString("SCHEDULER_BREAK_WINDOWS"))),
		MaxAttempts:            v.GetInt("SCHEDULER_MAX_ATTEMPTS"),
		Seed:                   v.GetInt64("SCHEDULER_SEED"),
	}

	cfg.Storage = StorageConfig{
		Dir:           v.GetString("STORAGE_DIR"),
		SigningSecret: v.GetString("STORAGE_SIGNING_SECRET"),
		SignedURLTTL:  parseDuration(v.GetString("STORAGE_SIGNED_URL_TTL"), 24*time.Hour),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "scheduler")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_SCHEDULER", true)
	v.SetDefault("SCHEDULER_PROPOSAL_TTL", "30m")
	v.SetDefault("SCHEDULER_DAYS", "MON,TUE,WED,THU,FRI")
	v.SetDefault("SCHEDULER_SLOT_GRANULARITY_MINUTES", 30)
	v.SetDefault("SCHEDULER_WORKING_HOURS_START", "09:00")
	v.SetDefault("SCHEDULER_WORKING_HOURS_END", "19:30")
	v.SetDefault("SCHEDULER_DEPARTMENTS", "CSE,DSAI,ECE")
	v.SetDefault("SCHEDULER_BREAK_WINDOWS", "morning:10:30-11:00,lunch:CSE:13:00-14:00,lunch:DSAI:12:30-13:30,lunch:ECE:13:30-14:30,snack:16:30-16:45")
	v.SetDefault("SCHEDULER_MAX_ATTEMPTS", 2000)
	v.SetDefault("SCHEDULER_SEED", 42)

	v.SetDefault("STORAGE_DIR", "./exports")
	v.SetDefault("STORAGE_SIGNING_SECRET", "")
	v.SetDefault("STORAGE_SIGNED_URL_TTL", "24h")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

// parseClockMinutes parses "HH:MM" into minutes from midnight.
func parseClockMinutes(raw string, fallback int) int {
	parts := strings.Split(raw, ":")
	if len(parts) != 2 {
		return fallback
	}
	h, err1 := atoiSafe(parts[0])
	m, err2 := atoiSafe(parts[1])
	if err1 != nil || err2 != nil {
		return fallback
	}
	return h*60 + m
}

func atoiSafe(s string) (int, error) {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errors.New("not a digit")
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// parseBreakWindows parses entries shaped "morning:10:30-11:00",
// "lunch:CSE:13:00-14:00", or "snack:16:30-16:45" into BreakWindowConfig
// values; malformed entries are skipped rather than aborting startup,
// since a missing break window only loosens a constraint.
func parseBreakWindows(entries []string) []BreakWindowConfig {
	var out []BreakWindowConfig
	for _, entry := range entries {
		fields := strings.SplitN(entry, ":", 2)
		if len(fields) != 2 {
			continue
		}
		kind, rest := fields[0], fields[1]
		switch kind {
		case "morning", "snack":
			start, end, ok := splitRange(rest)
			if !ok {
				continue
			}
			label := "Morning Break"
			if kind == "snack" {
				label = "Snack Break"
			}
			out = append(out, BreakWindowConfig{Kind: kind, StartMin: start, EndMin: end, Label: label})
		case "lunch":
			deptAndRange := strings.SplitN(rest, ":", 2)
			if len(deptAndRange) != 2 {
				continue
			}
			dept, timeRange := deptAndRange[0], deptAndRange[1]
			start, end, ok := splitRange(timeRange)
			if !ok {
				continue
			}
			out = append(out, BreakWindowConfig{Kind: "lunch", Dept: dept, StartMin: start, EndMin: end, Label: "Lunch"})
		}
	}
	return out
}

func splitRange(raw string) (start, end int, ok bool) {
	bounds := strings.SplitN(raw, "-", 2)
	if len(bounds) != 2 {
		return 0, 0, false
	}
	start = parseClockMinutes(bounds[0], -1)
	end = parseClockMinutes(bounds[1], -1)
	if start < 0 || end < 0 {
		return 0, 0, false
	}
	return start, end, true
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
