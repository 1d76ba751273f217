// internal/completion/progress.go
package completion

import (
	"fmt"

	"onboarding-workers/internal/models"
)

// Report is the full progress picture for one FormState.
type Report struct {
	StepCompletions   []int    `json:"stepCompletions"`
	OverallCompletion int      `json:"overallCompletion"`
	IncompleteSteps   []string `json:"incompleteSteps"`
	IsComplete        bool     `json:"isComplete"`
}

// CalculateAllStepCompletions returns the ten step percentages in wizard order.
func CalculateAllStepCompletions(s *models.FormState) []int {
	out := make([]int, StepCount)
	for i, rule := range Rules {
		out[i] = rule(s)
	}
	return out
}

// OverallCompletion returns the unweighted mean of the step percentages, rounded.
func OverallCompletion(s *models.FormState) int {
	return overall(CalculateAllStepCompletions(s))
}

// GetIncompleteSteps labels every step below 100% as "<name> (<pct>%)", in
// step order. Steps without a name fall back to "Step N".
func GetIncompleteSteps(s *models.FormState, stepNames []string) []string {
	return incomplete(CalculateAllStepCompletions(s), stepNames)
}

// Evaluate computes every aggregate in a single pass over the rules.
func Evaluate(s *models.FormState, stepNames []string) Report {
	return reportFrom(CalculateAllStepCompletions(s), stepNames)
}

func reportFrom(steps []int, stepNames []string) Report {
	missing := incomplete(steps, stepNames)
	return Report{
		StepCompletions:   steps,
		OverallCompletion: overall(steps),
		IncompleteSteps:   missing,
		IsComplete:        len(missing) == 0,
	}
}

func overall(steps []int) int {
	if len(steps) == 0 {
		return 0
	}
	sum := 0
	for _, v := range steps {
		sum += v
	}
	return roundPercent(float64(sum) / float64(len(steps)))
}

func incomplete(steps []int, stepNames []string) []string {
	out := []string{}
	for i, pct := range steps {
		if pct >= 100 {
			continue
		}
		out = append(out, fmt.Sprintf("%s (%d%%)", stepName(stepNames, i), pct))
	}
	return out
}

func stepName(names []string, i int) string {
	if i < len(names) && IsFilled(names[i]) {
		return names[i]
	}
	return fmt.Sprintf("Step %d", i+1)
}

// IncompleteNames returns just the names of the steps below 100%.
func (r Report) IncompleteNames(stepNames []string) []string {
	out := []string{}
	for i, pct := range r.StepCompletions {
		if pct < 100 {
			out = append(out, stepName(stepNames, i))
		}
	}
	return out
}
