// internal/workers/onboarding/send-onboarding-notification/config.go
package sendonboardingnotification

import (
	"time"

	"onboarding-workers/internal/models"
)

type Config struct {
	EmailEnabled    bool
	SMSEnabled      bool
	AgencyInbox     string
	AgencyPhone     string
	PriorityClients []string
	AdminURL        string
	StepNames       []string
	Timeout         time.Duration
}

func LoadConfig() *Config {
	return &Config{
		StepNames: models.DefaultStepNames,
		Timeout:   30 * time.Second,
	}
}
