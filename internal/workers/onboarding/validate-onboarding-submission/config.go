// internal/workers/onboarding/validate-onboarding-submission/config.go
package validateonboardingsubmission

import (
	"time"

	"onboarding-workers/internal/common/validation"
	"onboarding-workers/internal/models"
)

type Config struct {
	StepNames       []string
	AllowIncomplete bool
	Timeout         time.Duration
	// FormSchema is the JSON schema for formState. When nil the handler takes
	// it from the activity registry.
	FormSchema  map[string]interface{}
	FormatRules map[string]string
}

// DefaultFormatRules maps text fields onto the format they must satisfy when filled.
func DefaultFormatRules() map[string]string {
	return map[string]string{
		models.FieldBusinessEmail: validation.FormatEmail,
		models.FieldLeadEmail:     validation.FormatEmail,
		models.FieldPhone:         validation.FormatPhone,
		models.FieldGBPLink:       validation.FormatURL,
		models.FieldDomainName:    validation.FormatDomain,
	}
}

func LoadConfig() *Config {
	return &Config{
		StepNames:   models.DefaultStepNames,
		Timeout:     10 * time.Second,
		FormatRules: DefaultFormatRules(),
	}
}
