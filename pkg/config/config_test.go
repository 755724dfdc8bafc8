package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 10*time.Minute, cfg.Scoring.SummaryCacheTTL)
	assert.Equal(t, 500, cfg.Scoring.MaxBulkItems)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, 2, cfg.Notifications.Workers)
	assert.True(t, cfg.Exports.Enabled)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SUMMARY_CACHE_TTL", "garbage")
	v.Set("RECOMPUTE_TIMEOUT", "5s")
	v.Set("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, 10*time.Minute, cfg.Scoring.SummaryCacheTTL)
	assert.Equal(t, 5*time.Second, cfg.Scoring.RecomputeTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}
