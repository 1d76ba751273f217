// internal/workers/onboarding/create-crm-lead/models.go
package createcrmlead

import "onboarding-workers/internal/models"

type Input struct {
	ClientID     string            `json:"clientId"`
	SubmissionID string            `json:"submissionId,omitempty"`
	FormState    *models.FormState `json:"formState"`
}

type Output struct {
	LeadID   string `json:"leadId"`
	Created  bool   `json:"created"` // false when an existing lead was matched
	SyncedAt string `json:"syncedAt"`
}
