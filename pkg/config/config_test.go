package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsDescribeMeetingLayout(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, 16, cfg.Scheduler.SlotCount)
	assert.Equal(t, 6, cfg.Scheduler.Capacity)
	assert.Equal(t, -11, cfg.Scheduler.ThresholdFloor)
	assert.True(t, cfg.Scheduler.DeriveFloor)
	assert.True(t, cfg.Scheduler.EnforceCapacity)
	assert.Equal(t, "hotcrp_email", cfg.Scheduler.EmailColumn)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 24*time.Hour, cfg.Exports.SignedURLTTL)
	assert.Equal(t, "pcsched", cfg.Redis.KeyPrefix)
	assert.False(t, cfg.JWT.Enabled)
	require.NoError(t, cfg.Scheduler.Validate())
}

func TestSchedulerValidation(t *testing.T) {
	valid := SchedulerConfig{SlotCount: 16, Capacity: 6, ThresholdFloor: -11, EmailColumn: "email", MaxPapersPerRun: 10, MaxReviewerCount: 10}

	cases := map[string]func(c *SchedulerConfig){
		"capacity below two": func(c *SchedulerConfig) { c.Capacity = 1 },
		"no slots":           func(c *SchedulerConfig) { c.SlotCount = 0 },
		"positive floor":     func(c *SchedulerConfig) { c.ThresholdFloor = 1 },
		"missing column":     func(c *SchedulerConfig) { c.EmailColumn = "" },
	}

	require.NoError(t, valid.Validate())
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"http://a", "http://b"}, splitAndTrim(" http://a , ,http://b"))
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("bogus", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}
