package perception

// QuestionnaireTrigger decides when a conversation should be offered a
// structured intake questionnaire: either the classifier crossed the
// questionnaire threshold, or enough turns have passed without any prior
// assessment on file.
type QuestionnaireTrigger struct {
	turnThreshold int
}

// NewQuestionnaireTrigger builds a trigger with the given turn threshold.
func NewQuestionnaireTrigger(turnThreshold int) *QuestionnaireTrigger {
	if turnThreshold <= 0 {
		turnThreshold = 5
	}
	return &QuestionnaireTrigger{turnThreshold: turnThreshold}
}

// ShouldTrigger evaluates one turn. turnCount is the number of user turns so
// far, hasPriorRecord whether any assessment exists for the user.
func (t *QuestionnaireTrigger) ShouldTrigger(verdict Verdict, turnCount int, hasPriorRecord bool) bool {
	if verdict.ShouldTriggerQuestionnaire {
		return true
	}
	if !hasPriorRecord && turnCount >= t.turnThreshold {
		return true
	}
	return false
}
