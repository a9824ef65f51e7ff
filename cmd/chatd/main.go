package main

import (
	"bufio"
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/havenmind/havenmind-ai-platform/cmd/mainconfig"
	appconfig "github.com/havenmind/havenmind-ai-platform/internal/config"

	"github.com/havenmind/havenmind-ai-platform/internal/assessment"
	"github.com/havenmind/havenmind-ai-platform/internal/audit"
	"github.com/havenmind/havenmind-ai-platform/internal/conversation"
	"github.com/havenmind/havenmind-ai-platform/internal/llm"
	"github.com/havenmind/havenmind-ai-platform/internal/observability/metrics"
	"github.com/havenmind/havenmind-ai-platform/internal/perception"
	"github.com/havenmind/havenmind-ai-platform/internal/policy"
	"github.com/havenmind/havenmind-ai-platform/internal/risk"
	"github.com/havenmind/havenmind-ai-platform/internal/safety"
	"github.com/havenmind/havenmind-ai-platform/internal/session"
	"github.com/havenmind/havenmind-ai-platform/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	// The high tier script must pass its own validation before serving anyone.
	validator := safety.NewValidator()
	if res := validator.ValidateResponse(policy.FixedSafetyScript, "high"); !res.Valid {
		logger.Error("fixed safety script failed validation", "issues", res.Issues)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := buildLLMClient(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build llm client", "error", err)
		os.Exit(1)
	}

	sessions := buildSessionStore(cfg, logger)
	repo := buildAuditRepository(cfg, logger)

	scorer := risk.NewRigidityScorer(risk.MappingConfigFromEnv(cfg))
	routingMetrics := metrics.NewRoutingMetrics(nil)

	var classifier perception.Classifier
	if cfg.ClassifierProvider == "llm" {
		classifier = perception.NewLLMClassifier(client, modelFor(cfg))
	} else {
		classifier = perception.NewKeywordClassifier(logger)
	}

	engine := conversation.NewEngine(conversation.Deps{
		Decider:      risk.NewRouteDecider(scorer, cfg.TierMediumThreshold, cfg.TierHighThreshold, logger),
		Updater:      risk.NewRouteUpdater(cfg.EscalateMediumScore, cfg.EscalateHighScore, logger),
		Mapper:       risk.NewQuestionnaireMapper(),
		Perception:   perception.NewService(classifier, cfg.QuestionnaireScore, cfg.EscalateHighScore, cfg.ClassifierTimeout, logger),
		Trigger:      perception.NewQuestionnaireTrigger(cfg.IntakeTurnThreshold),
		Sessions:     sessions,
		Repo:         repo,
		Gate:         safety.NewGate(nil, validator, routingMetrics, logger),
		LowPolicy:    policy.NewLowTierChat(client, modelFor(cfg), logger),
		MediumPolicy: policy.NewMediumTierPersuasion(client, modelFor(cfg), cfg.MaxPersuasionTurns, logger),
		HighPolicy:   policy.NewHighTierScript(logger),
		Metrics:      routingMetrics,
		Logger:       logger,
		LLMTimeout:   cfg.LLMTimeout,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutting down chatd...")
		cancel()
	}()

	runConsole(ctx, engine, logger)
}

// runConsole is a minimal interactive loop for local testing. Messages go
// through the full pipeline; "/assess <scale> <a1,a2,...>" submits a
// questionnaire.
func runConsole(ctx context.Context, engine *conversation.Engine, logger *logging.Logger) {
	const userID = "console-user"

	fmt.Println("chatd console. Type a message, /assess <scale> <answers>, or /quit.")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}

		if strings.HasPrefix(line, "/assess ") {
			parts := strings.Fields(line)
			if len(parts) != 3 {
				fmt.Println("usage: /assess <phq9|gad7|pss10> <a1,a2,...>")
				continue
			}
			answers := strings.Split(parts[2], ",")
			out, err := engine.SubmitAssessment(ctx, userID, assessment.ScaleID(parts[1]), answers)
			if err != nil {
				fmt.Printf("error: %v\n", err)
				continue
			}
			fmt.Printf("severity=%s tier=%s rigidity=%.2f reason=%s\n",
				out.Result.Severity, out.Decision.Tier, out.Decision.Rigidity, out.Decision.Reason)
			continue
		}

		reply, err := engine.HandleMessage(ctx, userID, line)
		if err != nil {
			logger.Error("message failed", "error", err)
			continue
		}

		fmt.Printf("[%s] %s\n", reply.Tier, reply.Text)
		if reply.SafetyBanner != "" {
			fmt.Printf("!! %s\n", reply.SafetyBanner)
		}
		if reply.IntakeRequested {
			fmt.Printf("(intake suggested: %s)\n", reply.IntakeScale)
		}
	}
}

func modelFor(cfg *appconfig.Config) string {
	switch cfg.LLMProvider {
	case "bedrock":
		return cfg.BedrockModelID
	case "gemini":
		return cfg.GeminiModelID
	default:
		return cfg.OllamaModel
	}
}

func buildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (llm.Client, error) {
	var primary llm.Client

	switch cfg.LLMProvider {
	case "bedrock":
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		primary = llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg))
	case "gemini":
		client, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			return nil, err
		}
		primary = client
	default:
		primary = llm.NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel)
	}

	// A configured Gemini key doubles as the fallback provider.
	if cfg.LLMProvider != "gemini" && cfg.GeminiAPIKey != "" {
		fallback, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Warn("gemini fallback unavailable", "error", err)
			return primary, nil
		}
		return llm.NewFallbackClient(primary, fallback, logger.Logger), nil
	}

	return primary, nil
}

func buildSessionStore(cfg *appconfig.Config, logger *logging.Logger) session.Store {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory session store")
		return session.NewMemoryStore(cfg.SessionWindow)
	}

	opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
	if cfg.RedisTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return session.NewRedisStore(redis.NewClient(opts), cfg.SessionWindow, cfg.SessionTTL, nil)
}

func buildAuditRepository(cfg *appconfig.Config, logger *logging.Logger) audit.Repository {
	if cfg.DatabaseURL == "" {
		logger.Info("DATABASE_URL not set, using in-memory audit repository")
		return audit.NewMemoryRepository()
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open database, falling back to memory", "error", err)
		return audit.NewMemoryRepository()
	}
	return audit.NewPostgresRepository(db)
}
