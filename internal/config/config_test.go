package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 1.0, cfg.RigidA)
	assert.Equal(t, 0.0, cfg.RigidB)
	assert.True(t, cfg.CrisisFlagLock)
	assert.Equal(t, 2.0, cfg.CrisisScoreThreshold)
	assert.Equal(t, []string{"severe"}, cfg.CrisisSeverityLock)
	assert.Equal(t, 0.40, cfg.TierMediumThreshold)
	assert.Equal(t, 0.75, cfg.TierHighThreshold)
	assert.Equal(t, 0.70, cfg.EscalateMediumScore)
	assert.Equal(t, 0.95, cfg.EscalateHighScore)
	assert.Equal(t, 5, cfg.MaxPersuasionTurns)
	assert.Equal(t, 6, cfg.SessionWindow)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TIER_MEDIUM_THRESHOLD", "0.5")
	t.Setenv("MAX_PERSUASION_TURNS", "3")
	t.Setenv("CRISIS_SEVERITY_LOCK", "severe, moderately_severe")
	t.Setenv("SESSION_TTL", "1h")
	t.Setenv("CRISIS_FLAG_LOCK", "false")

	cfg := Load()

	assert.Equal(t, 0.5, cfg.TierMediumThreshold)
	assert.Equal(t, 3, cfg.MaxPersuasionTurns)
	assert.Equal(t, []string{"severe", "moderately_severe"}, cfg.CrisisSeverityLock)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.CrisisFlagLock)
}

func TestSeverityRiskOverrides(t *testing.T) {
	tests := []struct {
		name string
		json string
		want map[string]float64
	}{
		{"empty", "", map[string]float64{}},
		{"valid", `{"severe":0.9,"mild":0.25}`, map[string]float64{"severe": 0.9, "mild": 0.25}},
		{"malformed falls back to empty", `{"severe":`, map[string]float64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{SeverityRiskJSON: tt.json}
			assert.Equal(t, tt.want, cfg.SeverityRiskOverrides())
		})
	}
}
