// internal/workers/onboarding/save-onboarding-draft/models.go
package saveonboardingdraft

import "onboarding-workers/internal/models"

type Input struct {
	ClientID    string            `json:"clientId"`
	DraftID     string            `json:"draftId,omitempty"`
	CurrentStep int               `json:"currentStep,omitempty"`
	FormState   *models.FormState `json:"formState"`
}

type Output struct {
	DraftID           string   `json:"draftId"`
	StepCompletions   []int    `json:"stepCompletions"`
	OverallCompletion int      `json:"overallCompletion"`
	IncompleteSteps   []string `json:"incompleteSteps"`
	SavedAt           string   `json:"savedAt"` // ISO 8601
	Cached            bool     `json:"cached"`
}
