// Package completion computes how far a client has got through the onboarding
// wizard. Every function here is pure: it reads a FormState and never mutates it.
//
// Passing a nil *models.FormState is a programmer error and panics. Nil maps and
// slices inside a non-nil state are fine and read as "not filled".
package completion

import (
	"math"
	"strings"

	"onboarding-workers/internal/models"
)

// StepCount is the number of wizard steps.
const StepCount = 10

// IsFilled reports whether a form value counts as entered.
func IsFilled(value string) bool {
	return len(strings.TrimSpace(value)) > 0
}

func isAnswered(a models.Answer) bool {
	return IsFilled(string(a))
}

// checklist accumulates the predicates for a single step.
type checklist []bool

func (c *checklist) add(ok bool) {
	*c = append(*c, ok)
}

func (c *checklist) addIf(governing models.Answer, checks ...bool) {
	if !governing.IsYes() {
		return
	}
	*c = append(*c, checks...)
}

func (c checklist) percent() int {
	if len(c) == 0 {
		return 100
	}
	passed := 0
	for _, ok := range c {
		if ok {
			passed++
		}
	}
	return roundPercent(float64(passed) * 100 / float64(len(c)))
}

// roundPercent rounds half away from zero and clamps to [0, 100].
func roundPercent(v float64) int {
	return clamp(int(math.Round(v)), 0, 100)
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Step1 scores Business Info. The GBP and domain questions each hold one slot:
// a "yes" is only satisfied once the dependent link or domain is entered.
func Step1(s *models.FormState) int {
	var c checklist
	c.add(IsFilled(s.Field(models.FieldCompanyName)))
	c.add(answeredWith(s.Answer(models.QuestionHasGBP), s.Field(models.FieldGBPLink)))
	c.add(answeredWith(s.Answer(models.QuestionOwnsDomain), s.Field(models.FieldDomainName)))
	c.add(IsFilled(s.Field(models.FieldPhone)))
	c.add(IsFilled(s.Field(models.FieldBusinessEmail)))
	c.add(IsFilled(s.Field(models.FieldLeadEmail)))
	return c.percent()
}

// answeredWith holds when the question is answered and, for a "yes", the
// dependent value is filled as well.
func answeredWith(governing models.Answer, dependent string) bool {
	if governing.IsYes() {
		return IsFilled(dependent)
	}
	return isAnswered(governing)
}

// Step2 scores Location & Hours.
func Step2(s *models.FormState) int {
	var c checklist
	c.add(IsFilled(s.Field(models.FieldMainCity)))
	c.add(IsFilled(s.Field(models.FieldServiceAreas)))
	c.add(isAnswered(s.Answer(models.QuestionShowAddress)))
	c.add(isAnswered(s.Answer(models.QuestionShowHours)))

	c.addIf(s.Answer(models.QuestionShowAddress),
		IsFilled(s.Field(models.FieldStreetAddress)),
		IsFilled(s.Field(models.FieldCity)),
		IsFilled(s.Field(models.FieldState)),
		IsFilled(s.Field(models.FieldPostalCode)),
	)
	c.addIf(s.Answer(models.QuestionShowHours), hasOpenDay(s))
	return c.percent()
}

// hasOpenDay reports whether at least one weekday is marked open with both
// times entered.
func hasOpenDay(s *models.FormState) bool {
	for _, day := range models.Weekdays {
		h := s.Hours(day)
		if h.Open && IsFilled(h.OpenTime) && IsFilled(h.CloseTime) {
			return true
		}
	}
	return false
}

// Step3 scores Services.
func Step3(s *models.FormState) int {
	var c checklist
	c.add(hasNamedService(s.Services))
	c.add(IsFilled(s.Field(models.FieldServicePageInclusion)))
	c.add(IsFilled(s.Field(models.FieldPricingDisplay)))
	c.add(IsFilled(s.Field(models.FieldServicePageType)))
	c.add(IsFilled(s.Field(models.FieldFreeEstimates)))
	c.add(IsFilled(s.Field(models.FieldCustomerAction)))
	c.add(IsFilled(s.Field(models.FieldClientType)))
	return c.percent()
}

func hasNamedService(services []models.Service) bool {
	for _, svc := range services {
		if IsFilled(svc.Name) {
			return true
		}
	}
	return false
}

// Step4 scores Operations.
func Step4(s *models.FormState) int {
	var c checklist
	c.add(IsFilled(s.Field(models.FieldServiceProcess)))
	c.add(IsFilled(s.Field(models.FieldGuarantees)))
	c.add(IsFilled(s.Field(models.FieldBusinessUniqueness)))
	return c.percent()
}

// Step5 scores Trust.
func Step5(s *models.FormState) int {
	var c checklist
	c.add(IsFilled(s.Field(models.FieldQualityStatement)))
	return c.percent()
}

// Step6 scores Team & Story. Founder photos are counted even though the wizard
// labels them optional.
func Step6(s *models.FormState) int {
	var c checklist
	c.add(IsFilled(s.Field(models.FieldFounderMessage)))
	c.add(s.UploadCount(models.UploadLogoFiles) > 0)
	c.add(s.UploadCount(models.UploadFounderPhotos) > 0)
	return c.percent()
}

// Step7 scores Branding Details. Colors, fonts and the brand book are advisory.
func Step7(_ *models.FormState) int {
	return 100
}

// Step8 scores Reviews & Social. Its fields moved to other steps.
func Step8(_ *models.FormState) int {
	return 100
}

// Step9 scores Offers.
func Step9(s *models.FormState) int {
	var c checklist
	c.add(isAnswered(s.Answer(models.QuestionSpecialOffers)))
	c.add(isAnswered(s.Answer(models.QuestionFinancing)))

	c.addIf(s.Answer(models.QuestionSpecialOffers), IsFilled(s.Field(models.FieldSpecialOffersDetails)))
	c.addIf(s.Answer(models.QuestionFinancing), IsFilled(s.Field(models.FieldFinancingDetails)))
	return c.percent()
}

// Step10 scores Final. Both fields are optional.
func Step10(_ *models.FormState) int {
	return 100
}

// Rules lists the step rules in wizard order.
var Rules = [StepCount]func(*models.FormState) int{
	Step1, Step2, Step3, Step4, Step5, Step6, Step7, Step8, Step9, Step10,
}
