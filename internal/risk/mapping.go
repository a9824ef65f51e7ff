package risk

import (
	"strings"

	"github.com/havenmind/havenmind-ai-platform/internal/assessment"
	"github.com/havenmind/havenmind-ai-platform/internal/config"
)

// defaultSeverityRisk is the base severity label to risk score table.
var defaultSeverityRisk = map[string]float64{
	"minimal":           0.15,
	"mild":              0.35,
	"moderate":          0.60,
	"moderately_severe": 0.80,
	"severe":            0.95,
}

// moderateFallbackRisk is used when a severity label has no table entry.
// Unknown labels must never silently route to the most permissive tier.
const moderateFallbackRisk = 0.60

// MappingConfig parameterizes severity-to-rigidity scoring and hard locking.
type MappingConfig struct {
	// SeverityRisk overrides entries of the default severity table.
	SeverityRisk map[string]float64
	// RigidA and RigidB define the affine transform rigidity = A*risk + B,
	// clamped to [0,1].
	RigidA float64
	RigidB float64

	// CrisisFlagLock enables hard locking on the assessment crisis indicator.
	CrisisFlagLock bool
	// CrisisScoreThreshold hard locks when the crisis item score reaches it.
	// A non-positive threshold disables the check.
	CrisisScoreThreshold float64
	// CrisisSeverityLock lists severity labels that hard lock on their own.
	CrisisSeverityLock []string
}

// DefaultMappingConfig mirrors the production defaults.
func DefaultMappingConfig() MappingConfig {
	return MappingConfig{
		RigidA:               1.0,
		RigidB:               0.0,
		CrisisFlagLock:       true,
		CrisisScoreThreshold: 2,
		CrisisSeverityLock:   []string{"severe"},
	}
}

// MappingConfigFromEnv builds a MappingConfig from loaded configuration.
func MappingConfigFromEnv(cfg *config.Config) MappingConfig {
	return MappingConfig{
		SeverityRisk:         cfg.SeverityRiskOverrides(),
		RigidA:               cfg.RigidA,
		RigidB:               cfg.RigidB,
		CrisisFlagLock:       cfg.CrisisFlagLock,
		CrisisScoreThreshold: cfg.CrisisScoreThreshold,
		CrisisSeverityLock:   cfg.CrisisSeverityLock,
	}
}

// NormalizeSeverity canonicalizes a severity label: lowercased, trimmed,
// internal whitespace collapsed to underscores.
func NormalizeSeverity(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(label))), "_")
}

// RigidityScorer converts assessment severity into a risk score and a policy
// rigidity, and detects hard-lock conditions.
type RigidityScorer struct {
	cfg MappingConfig
}

// NewRigidityScorer builds a scorer from cfg.
func NewRigidityScorer(cfg MappingConfig) *RigidityScorer {
	return &RigidityScorer{cfg: cfg}
}

// SeverityToRisk maps a severity label to a risk score in [0,1]. Labels
// absent from both the override and default tables fall back to the moderate
// risk score.
func (s *RigidityScorer) SeverityToRisk(label string) float64 {
	norm := NormalizeSeverity(label)
	if v, ok := s.cfg.SeverityRisk[norm]; ok {
		return clamp01(v)
	}
	if v, ok := defaultSeverityRisk[norm]; ok {
		return v
	}
	return moderateFallbackRisk
}

// RiskToRigidity applies the affine transform and clamps to [0,1].
func (s *RigidityScorer) RiskToRigidity(risk float64) float64 {
	return clamp01(s.cfg.RigidA*risk + s.cfg.RigidB)
}

// IsHardLock reports whether the assessment trips any enabled crisis
// condition. Each condition is checked independently.
func (s *RigidityScorer) IsHardLock(severity string, flags assessment.RiskFlags) bool {
	if s.cfg.CrisisFlagLock && flags.CrisisIndicator {
		return true
	}
	if s.cfg.CrisisScoreThreshold > 0 && float64(flags.CrisisScore) >= s.cfg.CrisisScoreThreshold {
		return true
	}
	norm := NormalizeSeverity(severity)
	for _, locked := range s.cfg.CrisisSeverityLock {
		if NormalizeSeverity(locked) == norm {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
