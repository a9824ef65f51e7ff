// Package safety validates outgoing replies and guards the high tier's
// fixed script against downstream modification.
package safety

import (
	"fmt"
	"regexp"
	"strings"
)

var prohibitedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)how to (kill|hurt|harm) (yourself|myself)`),
	regexp.MustCompile(`(?i)suicide (method|way|how)`),
	regexp.MustCompile(`(?i)end (your|my) life`),
	regexp.MustCompile(`(?i)commit suicide`),
	regexp.MustCompile(`(?i)self-harm (method|way)`),
}

// requiredHighTierElements must all appear in any high tier reply.
var requiredHighTierElements = []string{"988", "safety", "help"}

// ValidationResult reports what a response check found.
type ValidationResult struct {
	Valid           bool     `json:"valid"`
	Issues          []string `json:"issues,omitempty"`
	MissingElements []string `json:"missing_elements,omitempty"`
}

// Validator checks reply content for safety compliance.
type Validator struct{}

// NewValidator creates a validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateResponse checks a reply for prohibited content, and on the high
// tier for the required crisis elements.
func (v *Validator) ValidateResponse(text, tier string) ValidationResult {
	result := ValidationResult{Valid: true}
	lower := strings.ToLower(text)

	for _, pattern := range prohibitedPatterns {
		if pattern.MatchString(lower) {
			result.Valid = false
			result.Issues = append(result.Issues, fmt.Sprintf("contains prohibited pattern: %s", pattern.String()))
		}
	}

	if tier == "high" {
		for _, element := range requiredHighTierElements {
			if !strings.Contains(lower, element) {
				result.Valid = false
				result.MissingElements = append(result.MissingElements, element)
			}
		}
		if len(result.MissingElements) > 0 {
			result.Issues = append(result.Issues, fmt.Sprintf("missing required safety elements: %v", result.MissingElements))
		}
	}

	return result
}

// CheckUserMessage scans a user message for crisis keywords. This is a fast
// secondary net behind the classifiers.
func (v *Validator) CheckUserMessage(message string) (bool, []string) {
	crisisKeywords := []string{
		"kill myself", "suicide", "end my life", "want to die",
		"hurt myself", "self-harm", "no point living", "no point in living",
		"don't want to live", "don't want to be alive",
	}

	lower := strings.ToLower(message)
	var detected []string
	for _, kw := range crisisKeywords {
		if strings.Contains(lower, kw) {
			detected = append(detected, kw)
		}
	}
	return len(detected) > 0, detected
}
