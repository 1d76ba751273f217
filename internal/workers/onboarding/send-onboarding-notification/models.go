// internal/workers/onboarding/send-onboarding-notification/models.go
package sendonboardingnotification

import "onboarding-workers/internal/models"

type Input struct {
	ClientID          string            `json:"clientId"`
	NotificationType  string            `json:"notificationType"`
	SubmissionID      string            `json:"submissionId,omitempty"`
	OverallCompletion int               `json:"overallCompletion,omitempty"`
	IncompleteSteps   []string          `json:"incompleteSteps,omitempty"`
	FormState         *models.FormState `json:"formState"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	Status         string   `json:"status"` // "sent", "failed", "disabled"
	Channels       []string `json:"channels"`
	SentAt         string   `json:"sentAt"` // ISO 8601
}

// Notification types
const (
	TypeOnboardingSubmitted = "onboarding_submitted"
	TypeOnboardingReminder  = "onboarding_reminder"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusFailed   = "failed"
	StatusDisabled = "disabled"
)

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)
