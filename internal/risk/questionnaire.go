package risk

import "github.com/havenmind/havenmind-ai-platform/internal/assessment"

// QuestionnaireMapper converts raw questionnaire totals into a tier signal.
// It is a secondary signal: combined with an existing routing decision it may
// only raise the tier, never lower it.
type QuestionnaireMapper struct{}

// NewQuestionnaireMapper builds a mapper.
func NewQuestionnaireMapper() *QuestionnaireMapper {
	return &QuestionnaireMapper{}
}

// MapPHQ9 maps a PHQ-9 total and item-9 score to a tier. Any positive item 9
// routes high regardless of the total.
func (m *QuestionnaireMapper) MapPHQ9(total, item9 int) Tier {
	if item9 >= 1 {
		return TierHigh
	}
	switch {
	case total <= 9:
		return TierLow
	case total <= 14:
		return TierMedium
	default:
		return TierHigh
	}
}

// MapGAD7 maps a GAD-7 total to a tier using the same bands as PHQ-9.
func (m *QuestionnaireMapper) MapGAD7(total int) Tier {
	switch {
	case total <= 9:
		return TierLow
	case total <= 14:
		return TierMedium
	default:
		return TierHigh
	}
}

// MapResult maps a scored assessment to its questionnaire tier signal.
// Scales without dedicated bands reuse the GAD-7 banding on the total.
func (m *QuestionnaireMapper) MapResult(res assessment.Result) Tier {
	switch res.ScaleID {
	case assessment.ScalePHQ9:
		item9 := 0
		if len(res.ItemScores) >= 9 {
			item9 = res.ItemScores[8]
		}
		return m.MapPHQ9(res.TotalScore, item9)
	default:
		return m.MapGAD7(res.TotalScore)
	}
}

// Combine merges the questionnaire signal into an existing tier, keeping
// whichever ranks higher.
func (m *QuestionnaireMapper) Combine(current, signal Tier) Tier {
	if signal.Rank() > current.Rank() {
		return signal
	}
	return current
}
