// internal/workers/onboarding/create-onboarding-record/models.go
package createonboardingrecord

import "onboarding-workers/internal/models"

type Input struct {
	ClientID  string            `json:"clientId"`
	FormState *models.FormState `json:"formState"`
}

type Output struct {
	SubmissionID      string   `json:"submissionId"`
	SubmissionStatus  string   `json:"submissionStatus"`
	OverallCompletion int      `json:"overallCompletion"`
	IncompleteSteps   []string `json:"incompleteSteps"`
	CreatedAt         string   `json:"createdAt"` // ISO 8601
}
