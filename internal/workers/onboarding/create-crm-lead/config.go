// internal/workers/onboarding/create-crm-lead/config.go
package createcrmlead

import (
	"time"

	"onboarding-workers/internal/models"
)

type Config struct {
	LeadSource string
	StepNames  []string
	Timeout    time.Duration
}

func LoadConfig() *Config {
	return &Config{
		LeadSource: "Onboarding Wizard",
		StepNames:  models.DefaultStepNames,
		Timeout:    30 * time.Second,
	}
}
