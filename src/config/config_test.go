package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ServerHost)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "http://localhost:8082", cfg.BooksServiceURL)
	assert.Equal(t, 5, cfg.MaxActiveLoans)
	assert.Equal(t, 6*time.Hour, cfg.SweepAt)
	assert.Equal(t, 5*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, 1, cfg.UsersProbeUserID)
	assert.False(t, cfg.SingleLoanPerBook)
	assert.Empty(t, cfg.CORSAllowedOrigins)
}

func Test_FromEnv_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("BOOKS_SERVICE_URL", "http://books:9000/")
	t.Setenv("MAX_ACTIVE_LOANS", "3")
	t.Setenv("OVERDUE_SWEEP_AT", "23:30")
	t.Setenv("LOANS_SINGLE_LOAN_PER_BOOK", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("UPSTREAM_TIMEOUT", "750ms")

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "http://books:9000", cfg.BooksServiceURL)
	assert.Equal(t, 3, cfg.MaxActiveLoans)
	assert.Equal(t, 23*time.Hour+30*time.Minute, cfg.SweepAt)
	assert.True(t, cfg.SingleLoanPerBook)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 750*time.Millisecond, cfg.UpstreamTimeout)
}

func Test_FromEnv_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"MAX_ACTIVE_LOANS": "five",
		"UPSTREAM_TIMEOUT": "soon",
		"OVERDUE_SWEEP_AT": "25:99",
		"DB_DRIVER":        "oracle",
		"RATE_LIMIT_RPS":   "fast",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)

			_, err := FromEnv()

			assert.Error(t, err)
		})
	}
}

func Test_FromEnv_RejectsNonPositiveLoanLimit(t *testing.T) {
	t.Setenv("MAX_ACTIVE_LOANS", "0")

	_, err := FromEnv()

	assert.Error(t, err)
}
