// internal/workers/onboarding/index-client-profile/models.go
package indexclientprofile

import "onboarding-workers/internal/models"

type Input struct {
	ClientID         string            `json:"clientId"`
	SubmissionID     string            `json:"submissionId,omitempty"`
	SubmissionStatus string            `json:"submissionStatus,omitempty"`
	SubmittedAt      string            `json:"submittedAt,omitempty"`
	FormState        *models.FormState `json:"formState"`
}

type Output struct {
	Index      string `json:"index"`
	DocumentID string `json:"documentId"`
	Result     string `json:"result"` // "created" or "updated"
	Version    int64  `json:"version"`
	IndexedAt  string `json:"indexedAt"`
}

// ClientProfile is the document stored in the profile index.
type ClientProfile struct {
	ClientID          string   `json:"clientId"`
	SubmissionID      string   `json:"submissionId,omitempty"`
	CompanyName       string   `json:"companyName"`
	MainCity          string   `json:"mainCity,omitempty"`
	ServiceAreas      string   `json:"serviceAreas,omitempty"`
	Services          []string `json:"services"`
	ClientType        string   `json:"clientType,omitempty"`
	BusinessEmail     string   `json:"businessEmail,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	DomainName        string   `json:"domainName,omitempty"`
	OverallCompletion int      `json:"overallCompletion"`
	StepCompletions   []int    `json:"stepCompletions"`
	IncompleteSteps   []string `json:"incompleteSteps"`
	Status            string   `json:"status,omitempty"`
	SubmittedAt       string   `json:"submittedAt"`
}

type indexResponse struct {
	ID      string `json:"_id"`
	Version int64  `json:"_version"`
	Result  string `json:"result"`
}
