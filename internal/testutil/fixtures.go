// internal/testutil/fixtures.go
package testutil

import "onboarding-workers/internal/models"

// CompleteFormState returns a form where every step scores 100.
func CompleteFormState() *models.FormState {
	s := models.NewFormState()
	s.Fields = map[string]string{
		models.FieldCompanyName:          "Acme Plumbing",
		models.FieldPhone:                "555-1234",
		models.FieldBusinessEmail:        "office@acme.com",
		models.FieldLeadEmail:            "leads@acme.com",
		models.FieldGBPLink:              "https://g.page/acme",
		models.FieldDomainName:           "acme.com",
		models.FieldMainCity:             "Chicago",
		models.FieldServiceAreas:         "Chicago, Evanston",
		models.FieldStreetAddress:        "1 Main St",
		models.FieldCity:                 "Chicago",
		models.FieldState:                "IL",
		models.FieldPostalCode:           "60601",
		models.FieldServicePageInclusion: "all",
		models.FieldPricingDisplay:       "starting-at",
		models.FieldServicePageType:      "individual",
		models.FieldFreeEstimates:        "yes",
		models.FieldCustomerAction:       "call",
		models.FieldClientType:           "residential",
		models.FieldServiceProcess:       "We inspect, quote and fix.",
		models.FieldGuarantees:           "Lifetime labor warranty",
		models.FieldBusinessUniqueness:   "Family owned since 1980",
		models.FieldQualityStatement:     "Licensed and insured",
		models.FieldFounderMessage:       "Hi, I'm Joe.",
		models.FieldSpecialOffersDetails: "10% off first visit",
		models.FieldFinancingDetails:     "0% APR for 12 months",
	}
	s.Answers = map[string]models.Answer{
		models.QuestionHasGBP:        models.AnswerYes,
		models.QuestionOwnsDomain:    models.AnswerYes,
		models.QuestionShowAddress:   models.AnswerYes,
		models.QuestionShowHours:     models.AnswerYes,
		models.QuestionSpecialOffers: models.AnswerYes,
		models.QuestionFinancing:     models.AnswerYes,
	}
	s.OperatingHours = map[string]models.DayHours{
		"monday": {Open: true, OpenTime: "08:00", CloseTime: "17:00"},
	}
	s.Services = []models.Service{{Name: "Drain cleaning", Price: "$99"}}
	s.Uploads = map[string][]string{
		models.UploadLogoFiles:     {"https://cdn.example.com/logo.png"},
		models.UploadFounderPhotos: {"https://cdn.example.com/joe.jpg"},
	}
	return s
}

// PartialFormState is CompleteFormState with the Trust step emptied and the
// Team & Story uploads removed.
func PartialFormState() *models.FormState {
	s := CompleteFormState()
	delete(s.Fields, models.FieldQualityStatement)
	s.Uploads = map[string][]string{}
	return s
}
