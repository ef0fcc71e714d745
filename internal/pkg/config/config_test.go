package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func lifecycleConfig() *Config {
	return &Config{
		ReviewExpiryMinutes: 90,
		WorkHoursStart:      10,
		WorkHoursEnd:        19,
		SweepInterval:       5 * time.Minute,
	}
}

func TestValidateAcceptsLifecycleDefaults(t *testing.T) {
	assert.NoError(t, lifecycleConfig().Validate())
}

func TestValidateRejectsInvertedWorkHours(t *testing.T) {
	cfg := lifecycleConfig()
	cfg.WorkHoursStart = 19
	cfg.WorkHoursEnd = 10
	assert.Error(t, cfg.Validate())

	// an empty window is just as useless as an inverted one
	cfg.WorkHoursStart = 12
	cfg.WorkHoursEnd = 12
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroSweepInterval(t *testing.T) {
	cfg := lifecycleConfig()
	cfg.SweepInterval = 0
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsZeroExpiry(t *testing.T) {
	cfg := lifecycleConfig()
	cfg.ReviewExpiryMinutes = 0
	assert.Error(t, cfg.Validate())
}
