// internal/workers/onboarding/calculate-form-completion/config.go
package calculateformcompletion

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
		Timeout:   5 * time.Second,
	}
}
