package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewConfigurationDefaults(t *testing.T) {
	conf, err := NewConfiguration("test_app")
	assert.Nil(t, err)
	assert.Equal(t, "test_app", conf.AppName)
	assert.Equal(t, DEVELOPMENT, conf.Env)
	assert.Equal(t, 8100, conf.Port)
	assert.Equal(t, DefaultSessionGapSeconds, conf.SessionGapSeconds)
	assert.Equal(t, DefaultLookbackDays, conf.LookbackDays)
	assert.Equal(t, DefaultBaselineDays, conf.BaselineDays)
	assert.Equal(t, DefaultMaxDuplicateRate, conf.MaxDuplicateRate)
	assert.Equal(t, DefaultMaxRevenueDrop, conf.MaxRevenueDrop)
	assert.Equal(t, "artifacts", conf.ArtifactsDir)
}

func TestNewConfigurationEnvOverrides(t *testing.T) {
	t.Setenv("CLICKPULSE_SESSION_GAP_SECONDS", "900")
	t.Setenv("CLICKPULSE_MAX_REVENUE_DROP", "0.25")
	t.Setenv("CLICKPULSE_FEED_PATH", "/data/feed.jsonl")

	conf, err := NewConfiguration("test_app")
	assert.Nil(t, err)
	assert.Equal(t, 900, conf.SessionGapSeconds)
	assert.Equal(t, 0.25, conf.MaxRevenueDrop)
	assert.Equal(t, "/data/feed.jsonl", conf.FeedPath)
}

func TestIsValidEnv(t *testing.T) {
	assert.True(t, IsValidEnv(DEVELOPMENT))
	assert.True(t, IsValidEnv(STAGING))
	assert.True(t, IsValidEnv(PRODUCTION))
	assert.False(t, IsValidEnv("local"))
	assert.False(t, IsValidEnv(""))
}

func TestInitConfInstallsGlobal(t *testing.T) {
	conf, err := NewConfiguration("test_app")
	assert.Nil(t, err)
	InitConf(conf)
	assert.Equal(t, conf, GetConfig())
	assert.True(t, IsDevelopment())
}
