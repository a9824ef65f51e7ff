// Package assessment scores standardized mental-health questionnaires and
// derives the risk flags consumed by routing.
package assessment

import (
	"fmt"
	"strconv"
	"strings"
)

// ScaleID identifies a supported questionnaire.
type ScaleID string

const (
	ScalePHQ9  ScaleID = "phq9"
	ScaleGAD7  ScaleID = "gad7"
	ScalePSS10 ScaleID = "pss10"
)

// severityBand maps a minimum total score (inclusive) to a severity label.
type severityBand struct {
	min   int
	label string
}

// Scale describes a questionnaire: item count, per-item score range and
// severity banding.
type Scale struct {
	ID         ScaleID
	Items      int
	ItemMin    int
	ItemMax    int
	bands      []severityBand // descending by min
	anchors    map[string]int
	crisisItem int // 1-based index of the crisis item, 0 if none
}

// phqAnchors are the verbal response options shared by PHQ-9 and GAD-7.
var phqAnchors = map[string]int{
	"not at all":              0,
	"several days":            1,
	"more than half the days": 2,
	"nearly every day":        3,
}

var pssAnchors = map[string]int{
	"never":        0,
	"almost never": 1,
	"sometimes":    2,
	"fairly often": 3,
	"very often":   4,
}

var scales = map[ScaleID]Scale{
	ScalePHQ9: {
		ID:      ScalePHQ9,
		Items:   9,
		ItemMin: 0,
		ItemMax: 3,
		bands: []severityBand{
			{20, "severe"},
			{15, "moderately_severe"},
			{10, "moderate"},
			{5, "mild"},
			{0, "minimal"},
		},
		anchors:    phqAnchors,
		crisisItem: 9,
	},
	ScaleGAD7: {
		ID:      ScaleGAD7,
		Items:   7,
		ItemMin: 0,
		ItemMax: 3,
		bands: []severityBand{
			{15, "severe"},
			{10, "moderate"},
			{5, "mild"},
			{0, "minimal"},
		},
		anchors: phqAnchors,
	},
	ScalePSS10: {
		ID:      ScalePSS10,
		Items:   10,
		ItemMin: 0,
		ItemMax: 4,
		bands: []severityBand{
			{27, "severe"},
			{14, "moderate"},
			{0, "minimal"},
		},
		anchors: pssAnchors,
	},
}

// LookupScale returns the scale definition for id.
func LookupScale(id ScaleID) (Scale, error) {
	scale, ok := scales[ScaleID(strings.ToLower(strings.TrimSpace(string(id))))]
	if !ok {
		return Scale{}, fmt.Errorf("assessment: unknown scale %q", id)
	}
	return scale, nil
}

// severityFor maps a total score to the scale's severity label.
func (s Scale) severityFor(total int) string {
	for _, band := range s.bands {
		if total >= band.min {
			return band.label
		}
	}
	return s.bands[len(s.bands)-1].label
}

// parseAnswer accepts a numeric item score or one of the scale's verbal
// anchors.
func (s Scale) parseAnswer(raw string) (int, error) {
	answer := strings.ToLower(strings.TrimSpace(raw))
	if answer == "" {
		return 0, fmt.Errorf("assessment: empty answer")
	}
	if v, err := strconv.Atoi(answer); err == nil {
		if v < s.ItemMin || v > s.ItemMax {
			return 0, fmt.Errorf("assessment: answer %d out of range [%d,%d]", v, s.ItemMin, s.ItemMax)
		}
		return v, nil
	}
	if v, ok := s.anchors[answer]; ok {
		return v, nil
	}
	return 0, fmt.Errorf("assessment: unrecognized answer %q", raw)
}
