// internal/workers/onboarding/validate-onboarding-submission/models.go
package validateonboardingsubmission

import "onboarding-workers/internal/models"

type Input struct {
	ClientID  string            `json:"clientId"`
	FormState *models.FormState `json:"formState"`
	// AllowIncomplete overrides the configured gate for this submission.
	AllowIncomplete *bool `json:"allowIncomplete,omitempty"`
}

type Output struct {
	IsValid           bool     `json:"isValid"`
	IsComplete        bool     `json:"isComplete"`
	OverallCompletion int      `json:"overallCompletion"`
	StepCompletions   []int    `json:"stepCompletions"`
	IncompleteSteps   []string `json:"incompleteSteps"`
	Warnings          []string `json:"warnings"`
}

// Gate outcomes, used as the metrics label.
const (
	OutcomeAccepted = "accepted"
	OutcomeWarned   = "warned"
	OutcomeBlocked  = "blocked"
	OutcomeInvalid  = "invalid"
)
