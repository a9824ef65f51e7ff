package assessment

import (
	"fmt"
	"time"
)

// RiskFlags carries the safety-relevant signals derived from an assessment.
type RiskFlags struct {
	// CrisisIndicator is set when the scale's crisis item scored above zero
	// (PHQ-9 item 9, suicidal ideation).
	CrisisIndicator bool `json:"crisis_indicator"`
	// CrisisScore is the raw score of the crisis item.
	CrisisScore int `json:"crisis_score"`
	// SevereSymptoms is set when the overall severity band is "severe".
	SevereSymptoms bool `json:"severe_symptoms"`
}

// Result is the immutable outcome of one questionnaire submission.
type Result struct {
	ScaleID    ScaleID   `json:"scale_id"`
	TotalScore int       `json:"total_score"`
	Severity   string    `json:"severity"`
	ItemScores []int     `json:"item_scores"`
	Flags      RiskFlags `json:"flags"`
	ScoredAt   time.Time `json:"scored_at"`
}

// Score validates and scores a raw questionnaire submission. Malformed input
// (unknown scale, wrong item count, unparseable answers) is rejected with a
// descriptive error before any routing happens.
func Score(id ScaleID, answers []string) (Result, error) {
	scale, err := LookupScale(id)
	if err != nil {
		return Result{}, err
	}
	if len(answers) != scale.Items {
		return Result{}, fmt.Errorf("assessment: scale %s expects %d answers, got %d", scale.ID, scale.Items, len(answers))
	}

	itemScores := make([]int, 0, scale.Items)
	total := 0
	for i, raw := range answers {
		v, err := scale.parseAnswer(raw)
		if err != nil {
			return Result{}, fmt.Errorf("assessment: item %d: %w", i+1, err)
		}
		itemScores = append(itemScores, v)
		total += v
	}

	severity := scale.severityFor(total)

	flags := RiskFlags{SevereSymptoms: severity == "severe"}
	if scale.crisisItem > 0 {
		crisisScore := itemScores[scale.crisisItem-1]
		flags.CrisisScore = crisisScore
		flags.CrisisIndicator = crisisScore >= 1
	}

	return Result{
		ScaleID:    scale.ID,
		TotalScore: total,
		Severity:   severity,
		ItemScores: itemScores,
		Flags:      flags,
		ScoredAt:   time.Now().UTC(),
	}, nil
}
