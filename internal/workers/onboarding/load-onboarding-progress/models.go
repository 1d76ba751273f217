// internal/workers/onboarding/load-onboarding-progress/models.go
package loadonboardingprogress

import "onboarding-workers/internal/models"

// Progress sources.
const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

type Input struct {
	ClientID         string `json:"clientId"`
	IncludeFormState bool   `json:"includeFormState,omitempty"`
}

type Output struct {
	ClientID          string            `json:"clientId"`
	DraftID           string            `json:"draftId"`
	StepCompletions   []int             `json:"stepCompletions"`
	OverallCompletion int               `json:"overallCompletion"`
	IncompleteSteps   []string          `json:"incompleteSteps"`
	IsComplete        bool              `json:"isComplete"`
	UpdatedAt         string            `json:"updatedAt"`
	Source            string            `json:"source"`
	FormState         *models.FormState `json:"formState,omitempty"`
}
