// internal/workers/onboarding/create-onboarding-record/config.go
package createonboardingrecord

import (
	"time"

	"onboarding-workers/internal/models"
)

type Config struct {
	StepNames []string
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		StepNames: models.DefaultStepNames,
		Timeout:   10 * time.Second,
	}
}
