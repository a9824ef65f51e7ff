package perception

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/havenmind/havenmind-ai-platform/pkg/logging"
)

var keywordTracer = otel.Tracer("havenmind/keyword-classifier")

// SignalCategory labels the kind of risk signal a pattern detects.
type SignalCategory string

const (
	CategoryNone         SignalCategory = ""
	CategorySuicidal     SignalCategory = "suicidal_ideation"
	CategorySelfHarm     SignalCategory = "self_harm"
	CategoryHopelessness SignalCategory = "hopelessness"
	CategoryDistress     SignalCategory = "acute_distress"
)

// KeywordClassifier scores messages with weighted regex patterns. It needs no
// network round trip, so it doubles as the always-available fallback when the
// LLM classifier is down.
type KeywordClassifier struct {
	logger   *logging.Logger
	patterns map[SignalCategory][]*riskPattern
}

type riskPattern struct {
	regex   *regexp.Regexp
	weight  float64
	keyword string
}

// NewKeywordClassifier creates a classifier with the built-in pattern set.
func NewKeywordClassifier(logger *logging.Logger) *KeywordClassifier {
	if logger == nil {
		logger = logging.Default()
	}

	c := &KeywordClassifier{
		logger:   logger.Component("keyword_classifier"),
		patterns: make(map[SignalCategory][]*riskPattern),
	}

	c.patterns[CategorySuicidal] = []*riskPattern{
		{regex: regexp.MustCompile(`(?i)\bkill(ing)?\s+myself\b`), weight: 0.97, keyword: "kill myself"},
		{regex: regexp.MustCompile(`(?i)\bend(ing)?\s+my\s+life\b`), weight: 0.97, keyword: "end my life"},
		{regex: regexp.MustCompile(`(?i)\bsuicid(e|al)\b`), weight: 0.95, keyword: "suicide"},
		{regex: regexp.MustCompile(`(?i)\bwant\s+to\s+die\b`), weight: 0.95, keyword: "want to die"},
		{regex: regexp.MustCompile(`(?i)\bbetter\s+off\s+dead\b`), weight: 0.92, keyword: "better off dead"},
		{regex: regexp.MustCompile(`(?i)\bdon'?t\s+want\s+to\s+(be\s+alive|live)\b`), weight: 0.92, keyword: "don't want to live"},
		{regex: regexp.MustCompile(`(?i)\bplan\s+to\s+(die|end\s+it)\b`), weight: 0.96, keyword: "plan to die"},
	}

	c.patterns[CategorySelfHarm] = []*riskPattern{
		{regex: regexp.MustCompile(`(?i)\bhurt(ing)?\s+myself\b`), weight: 0.85, keyword: "hurt myself"},
		{regex: regexp.MustCompile(`(?i)\bself[\s-]?harm\b`), weight: 0.85, keyword: "self harm"},
		{regex: regexp.MustCompile(`(?i)\bcut(ting)?\s+myself\b`), weight: 0.85, keyword: "cutting myself"},
	}

	c.patterns[CategoryHopelessness] = []*riskPattern{
		{regex: regexp.MustCompile(`(?i)\bno\s+reason\s+to\s+(live|go\s+on)\b`), weight: 0.75, keyword: "no reason to live"},
		{regex: regexp.MustCompile(`(?i)\bcan'?t\s+(go\s+on|take\s+(it|this)\s+anymore)\b`), weight: 0.72, keyword: "can't go on"},
		{regex: regexp.MustCompile(`(?i)\b(hopeless|worthless)\b`), weight: 0.70, keyword: "hopeless"},
		{regex: regexp.MustCompile(`(?i)\bgive\s+up\s+on\s+(everything|life)\b`), weight: 0.72, keyword: "give up"},
		{regex: regexp.MustCompile(`(?i)\bnothing\s+matters\s+anymore\b`), weight: 0.70, keyword: "nothing matters"},
	}

	c.patterns[CategoryDistress] = []*riskPattern{
		{regex: regexp.MustCompile(`(?i)\bpanic\s+attack\b`), weight: 0.55, keyword: "panic attack"},
		{regex: regexp.MustCompile(`(?i)\bcan'?t\s+(sleep|eat)\b`), weight: 0.45, keyword: "can't sleep"},
		{regex: regexp.MustCompile(`(?i)\b(overwhelmed|falling\s+apart)\b`), weight: 0.50, keyword: "overwhelmed"},
		{regex: regexp.MustCompile(`(?i)\bcrying\s+(all|every)\b`), weight: 0.45, keyword: "crying constantly"},
	}

	return c
}

// Classify scores a message against every pattern and returns the strongest
// match. A message with no matches scores zero.
func (c *KeywordClassifier) Classify(ctx context.Context, message string) (Signal, error) {
	_, span := keywordTracer.Start(ctx, "perception.keyword_classify")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return Signal{}, nil
	}

	var (
		best     Signal
		bestCat  SignalCategory
		labelSet = map[SignalCategory]bool{}
	)
	for category, patterns := range c.patterns {
		for _, p := range patterns {
			if !p.regex.MatchString(message) {
				continue
			}
			labelSet[category] = true
			if p.weight > best.RiskScore {
				best.RiskScore = p.weight
				best.MatchedKeyword = p.keyword
				bestCat = category
			}
		}
	}

	for category := range labelSet {
		best.Labels = append(best.Labels, string(category))
	}

	if best.RiskScore > 0 {
		span.SetAttributes(
			attribute.Float64("signal.risk_score", best.RiskScore),
			attribute.String("signal.category", string(bestCat)),
			attribute.String("signal.keyword", best.MatchedKeyword),
		)
		c.logger.Info("risk signal detected",
			"category", bestCat,
			"risk_score", best.RiskScore,
			"keyword", best.MatchedKeyword,
		)
	}

	return best, nil
}
