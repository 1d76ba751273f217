// internal/workers/onboarding/send-onboarding-notification/templates.go
package sendonboardingnotification

import (
	"fmt"
	"strings"
)

type template struct {
	Subject string
	Body    string
	SMS     string
}

var templates = map[string]template{
	TypeOnboardingSubmitted: {
		Subject: "New onboarding submission: {{companyName}}",
		Body: "{{companyName}} ({{clientType}}) submitted onboarding at {{overallCompletion}}% completion.\n" +
			"{{incompleteSummary}}\n" +
			"Review: {{adminUrl}}",
		SMS: "New onboarding: {{companyName}} ({{overallCompletion}}%). {{adminUrl}}",
	},
	TypeOnboardingReminder: {
		Subject: "Finish setting up {{companyName}}",
		Body: "Your onboarding is {{overallCompletion}}% complete.\n" +
			"{{incompleteSummary}}\n" +
			"Pick up where you left off any time.",
	},
}

// renderTemplate fills the template's own {{key}} placeholders in one pass.
// Placeholders with no data render empty; braces inside values are kept as-is.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	keys := placeholders(tmpl)
	if len(keys) == 0 {
		return tmpl
	}

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		value := ""
		switch v := data[k].(type) {
		case nil:
		case string:
			value = v
		default:
			value = fmt.Sprintf("%v", v)
		}
		pairs = append(pairs, "{{"+k+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// placeholders lists the distinct keys of tmpl in order of appearance.
func placeholders(tmpl string) []string {
	var keys []string
	seen := map[string]bool{}
	rest := tmpl
	for {
		start := strings.Index(rest, "{{")
		if start == -1 {
			return keys
		}
		end := strings.Index(rest[start+2:], "}}")
		if end == -1 {
			return keys
		}
		key := rest[start+2 : start+2+end]
		if !seen[key] {
			seen[key] = true
			keys = append(keys, key)
		}
		rest = rest[start+2+end+2:]
	}
}

func incompleteSummary(steps []string) string {
	if len(steps) == 0 {
		return "All steps are complete."
	}
	return "Still to do: " + strings.Join(steps, ", ") + "."
}
