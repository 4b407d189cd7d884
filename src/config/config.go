package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Config holds every setting the loans service reads from the environment.
type Config struct {
	ServerHost string
	GinMode    string

	DBDriver string
	DBDSN    string

	BooksServiceURL string
	UsersServiceURL string
	UpstreamTimeout time.Duration

	// UsersProbeUserID is fetched by the upstream report; 0 skips the lookup.
	UsersProbeUserID int

	MaxActiveLoans    int
	SingleLoanPerBook bool

	// SweepAt is the local time of day at which the overdue sweep runs.
	SweepAt      time.Duration
	SweepOnStart bool

	BookSummaryCacheTTL time.Duration

	LogLevel  string
	LogFormat string

	JWTSecret          string
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

// Load reads a .env file when present and builds the Config from the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "loading .env")
	}
	return FromEnv()
}

// FromEnv builds the Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		ServerHost:      getEnv("SERVER_HOST", ":8080"),
		GinMode:         getEnv("GIN_MODE", "release"),
		DBDriver:        strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBDSN:           os.Getenv("DB_DSN"),
		BooksServiceURL: strings.TrimRight(getEnv("BOOKS_SERVICE_URL", "http://localhost:8082"), "/"),
		UsersServiceURL: strings.TrimRight(getEnv("USERS_SERVICE_URL", "http://localhost:8081"), "/"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "text"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
	}

	var err error
	if cfg.UpstreamTimeout, err = getDuration("UPSTREAM_TIMEOUT", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.UsersProbeUserID, err = getInt("USERS_PROBE_USER_ID", 1); err != nil {
		return nil, err
	}
	if cfg.MaxActiveLoans, err = getInt("MAX_ACTIVE_LOANS", 5); err != nil {
		return nil, err
	}
	if cfg.MaxActiveLoans <= 0 {
		return nil, errors.New("MAX_ACTIVE_LOANS must be positive")
	}
	if cfg.SingleLoanPerBook, err = getBool("LOANS_SINGLE_LOAN_PER_BOOK", false); err != nil {
		return nil, err
	}
	if cfg.SweepAt, err = ParseTimeOfDay(getEnv("OVERDUE_SWEEP_AT", "06:00")); err != nil {
		return nil, errors.Wrap(err, "OVERDUE_SWEEP_AT")
	}
	if cfg.SweepOnStart, err = getBool("OVERDUE_SWEEP_ON_START", false); err != nil {
		return nil, err
	}
	if cfg.BookSummaryCacheTTL, err = getDuration("BOOK_SUMMARY_CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 0); err != nil {
		return nil, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 20); err != nil {
		return nil, err
	}

	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSAllowedOrigins = append(cfg.CORSAllowedOrigins, o)
			}
		}
	}

	switch cfg.DBDriver {
	case "postgres", "mysql", "sqlite":
	default:
		return nil, errors.Errorf("DB_DRIVER %q is not supported", cfg.DBDriver)
	}

	return cfg, nil
}

// ParseTimeOfDay parses "HH:MM" into an offset from midnight.
func ParseTimeOfDay(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, errors.Wrapf(err, "invalid time of day %q", s)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be an integer", key)
	}
	return n, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be a number", key)
	}
	return f, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, errors.Wrapf(err, "%s must be a boolean", key)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be a duration", key)
	}
	return d, nil
}
