// internal/workers/onboarding/calculate-form-completion/models.go
package calculateformcompletion

import "onboarding-workers/internal/models"

type Input struct {
	ClientID  string            `json:"clientId"`
	FormState *models.FormState `json:"formState"`
}

type Output struct {
	StepCompletions   []int    `json:"stepCompletions"`
	OverallCompletion int      `json:"overallCompletion"`
	IncompleteSteps   []string `json:"incompleteSteps"`
	IsComplete        bool     `json:"isComplete"`
	EvaluatedAt       string   `json:"evaluatedAt"` // ISO 8601
}
