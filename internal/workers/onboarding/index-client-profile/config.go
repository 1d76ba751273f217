// internal/workers/onboarding/index-client-profile/config.go
package indexclientprofile

import (
	"time"

	"onboarding-workers/internal/models"
)

type Config struct {
	IndexName string
	Refresh   string // "", "true", "false" or "wait_for"
	StepNames []string
	Timeout   time.Duration
}

func LoadConfig() *Config {
	return &Config{
		IndexName: "client-profiles",
		StepNames: models.DefaultStepNames,
		Timeout:   15 * time.Second,
	}
}
