// internal/workers/onboarding/load-onboarding-progress/config.go
package loadonboardingprogress

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
		Timeout:   5 * time.Second,
	}
}
