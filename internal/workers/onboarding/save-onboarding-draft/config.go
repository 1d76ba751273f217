// internal/workers/onboarding/save-onboarding-draft/config.go
package saveonboardingdraft

import (
	"time"

	"onboarding-workers/internal/models"
)

type Config struct {
	StepNames []string
	CacheTTL  time.Duration
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		StepNames: models.DefaultStepNames,
		CacheTTL:  24 * time.Hour,
		Timeout:   10 * time.Second,
	}
}
