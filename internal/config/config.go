package config

import (
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Env      string
	LogLevel string

	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	LLMProvider    string // "bedrock", "ollama", or "gemini"
	LLMTimeout     time.Duration
	BedrockModelID string
	OllamaBaseURL  string
	OllamaModel    string
	GeminiAPIKey   string
	GeminiModelID  string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	ClassifierProvider string // "llm" or "keyword"
	ClassifierTimeout  time.Duration

	// Risk mapping
	SeverityRiskJSON     string // optional overrides, e.g. {"severe":0.9}
	RigidA               float64
	RigidB               float64
	CrisisFlagLock       bool
	CrisisScoreThreshold float64
	CrisisSeverityLock   []string

	// Routing thresholds
	TierMediumThreshold float64
	TierHighThreshold   float64
	EscalateMediumScore float64
	EscalateHighScore   float64
	QuestionnaireScore  float64
	IntakeTurnThreshold int
	MaxPersuasionTurns  int
	SessionWindow       int
	SessionTTL          time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		LLMProvider:    strings.ToLower(strings.TrimSpace(getEnv("LLM_PROVIDER", "ollama"))),
		LLMTimeout:     getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
		BedrockModelID: getEnv("BEDROCK_MODEL_ID", ""),
		OllamaBaseURL:  getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:    getEnv("OLLAMA_MODEL", "llama3.1:8b"),
		GeminiAPIKey:   getEnv("GEMINI_API_KEY", ""),
		GeminiModelID:  getEnv("GEMINI_MODEL_ID", ""),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		ClassifierProvider: strings.ToLower(strings.TrimSpace(getEnv("CLASSIFIER_PROVIDER", "keyword"))),
		ClassifierTimeout:  getEnvAsDuration("CLASSIFIER_TIMEOUT", 10*time.Second),

		SeverityRiskJSON:     getEnv("SEVERITY_RISK_JSON", ""),
		RigidA:               getEnvAsFloat("RIGID_TRANSFORM_A", 1.0),
		RigidB:               getEnvAsFloat("RIGID_TRANSFORM_B", 0.0),
		CrisisFlagLock:       getEnvAsBool("CRISIS_FLAG_LOCK", true),
		CrisisScoreThreshold: getEnvAsFloat("CRISIS_SCORE_THRESHOLD", 2),
		CrisisSeverityLock:   getEnvAsList("CRISIS_SEVERITY_LOCK", []string{"severe"}),

		TierMediumThreshold: getEnvAsFloat("TIER_MEDIUM_THRESHOLD", 0.40),
		TierHighThreshold:   getEnvAsFloat("TIER_HIGH_THRESHOLD", 0.75),
		EscalateMediumScore: getEnvAsFloat("ESCALATE_MEDIUM_SCORE", 0.70),
		EscalateHighScore:   getEnvAsFloat("ESCALATE_HIGH_SCORE", 0.95),
		QuestionnaireScore:  getEnvAsFloat("QUESTIONNAIRE_TRIGGER_SCORE", 0.80),
		IntakeTurnThreshold: getEnvAsInt("INTAKE_TURN_THRESHOLD", 5),
		MaxPersuasionTurns:  getEnvAsInt("MAX_PERSUASION_TURNS", 5),
		SessionWindow:       getEnvAsInt("SESSION_WINDOW", 6),
		SessionTTL:          getEnvAsDuration("SESSION_TTL", 24*time.Hour),
	}
}

// SeverityRiskOverrides decodes SEVERITY_RISK_JSON into a label->risk map.
// Malformed JSON yields an empty map so routing always starts from defaults.
func (c *Config) SeverityRiskOverrides() map[string]float64 {
	overrides := map[string]float64{}
	if strings.TrimSpace(c.SeverityRiskJSON) == "" {
		return overrides
	}
	if err := json.Unmarshal([]byte(c.SeverityRiskJSON), &overrides); err != nil {
		return map[string]float64{}
	}
	return overrides
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	parts := strings.Split(valueStr, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
