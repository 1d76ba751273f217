// internal/models/onboarding.go
package models

import "strings"

// Answer is a tri-state yes/no answer. The zero value means unanswered.
type Answer string

const (
	AnswerYes   Answer = "yes"
	AnswerNo    Answer = "no"
	AnswerUnset Answer = ""
)

// IsYes reports whether the answer governs its dependent fields into a checklist.
func (a Answer) IsYes() bool {
	return a == AnswerYes
}

// DayHours is one weekday's row in the operating-hours editor.
type DayHours struct {
	Open      bool   `json:"open"`
	OpenTime  string `json:"openTime"`
	CloseTime string `json:"closeTime"`
}

// Service is one entry of the business's service menu.
type Service struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

// FormState is a snapshot of everything the client has entered in the
// onboarding wizard. Callers treat it as immutable once handed to the
// completion engine.
type FormState struct {
	Fields         map[string]string   `json:"fields"`
	Answers        map[string]Answer   `json:"singleChoiceAnswers"`
	OperatingHours map[string]DayHours `json:"operatingHours"`
	Services       []Service           `json:"services"`
	Uploads        map[string][]string `json:"uploadedFileSets"`
}

// NewFormState returns an empty state with all maps allocated.
func NewFormState() *FormState {
	return &FormState{
		Fields:         make(map[string]string),
		Answers:        make(map[string]Answer),
		OperatingHours: make(map[string]DayHours),
		Services:       []Service{},
		Uploads:        make(map[string][]string),
	}
}

// Field returns the named text field, or "" when absent.
func (s *FormState) Field(name string) string {
	return s.Fields[name]
}

// Answer returns the named yes/no answer, or AnswerUnset when absent.
func (s *FormState) Answer(name string) Answer {
	return s.Answers[name]
}

// Hours returns the operating hours for a weekday. Absent days read as closed.
func (s *FormState) Hours(day string) DayHours {
	return s.OperatingHours[day]
}

// UploadCount returns how many files were uploaded into the named set.
func (s *FormState) UploadCount(set string) int {
	n := 0
	for _, url := range s.Uploads[set] {
		if strings.TrimSpace(url) != "" {
			n++
		}
	}
	return n
}

// Step 1: business info
const (
	FieldCompanyName   = "companyName"
	FieldPhone         = "phone"
	FieldBusinessEmail = "businessEmail"
	FieldLeadEmail     = "leadRoutingEmail"
	FieldGBPLink       = "googleBusinessProfileLink"
	FieldDomainName    = "domainName"

	QuestionHasGBP     = "hasGoogleBusinessProfile"
	QuestionOwnsDomain = "ownsDomain"
)

// Step 2: location and hours
const (
	FieldMainCity      = "mainCity"
	FieldServiceAreas  = "serviceAreas"
	FieldStreetAddress = "streetAddress"
	FieldCity          = "city"
	FieldState         = "state"
	FieldPostalCode    = "postalCode"

	QuestionShowAddress = "showAddress"
	QuestionShowHours   = "showHours"
)

// Step 3: services. The choice questions have more than two options, so they
// are stored as text fields.
const (
	FieldServicePageInclusion = "servicePageInclusion"
	FieldPricingDisplay       = "pricingDisplay"
	FieldServicePageType      = "servicePageType"
	FieldFreeEstimates        = "freeEstimates"
	FieldCustomerAction       = "customerAction"
	FieldClientType           = "clientType"
)

// Step 4: operations
const (
	FieldServiceProcess     = "serviceProcess"
	FieldGuarantees         = "guarantees"
	FieldBusinessUniqueness = "businessUniqueness"
)

// Step 5: trust
const FieldQualityStatement = "qualityStatement"

// Step 6: team and story
const (
	FieldFounderMessage = "founderMessage"

	UploadLogoFiles     = "logoFiles"
	UploadFounderPhotos = "founderPhotos"
)

// Step 7: branding details (advisory only)
const (
	FieldBrandColors = "brandColors"
	FieldBrandFonts  = "brandFonts"
	UploadBrandBook  = "brandBook"
)

// Step 8: reviews and social (advisory only)
const (
	FieldReviewLinks = "reviewLinks"
	FieldSocialLinks = "socialLinks"
)

// Step 9: offers
const (
	FieldSpecialOffersDetails = "specialOffersDetails"
	FieldFinancingDetails     = "financingDetails"

	QuestionSpecialOffers = "hasSpecialOffers"
	QuestionFinancing     = "offersFinancing"
)

// Step 10: final (both optional)
const (
	FieldAdditionalNotes = "additionalNotes"
	FieldReferralSource  = "referralSource"
)

// Weekdays in the order the hours editor renders them.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DefaultStepNames are the wizard's step titles in order.
var DefaultStepNames = []string{
	"Business Info",
	"Location & Hours",
	"Services",
	"Operations",
	"Trust",
	"Team & Story",
	"Branding Details",
	"Reviews & Social",
	"Offers",
	"Final",
}

// OnboardingProgress is the persisted and cached view of a client's progress.
type OnboardingProgress struct {
	ClientID          string   `json:"clientId"`
	DraftID           string   `json:"draftId,omitempty"`
	StepCompletions   []int    `json:"stepCompletions"`
	OverallCompletion int      `json:"overallCompletion"`
	IncompleteSteps   []string `json:"incompleteSteps"`
	UpdatedAt         string   `json:"updatedAt"`
}

// OnboardingSubmission is a finalized wizard submission.
type OnboardingSubmission struct {
	ID                string     `json:"id"`
	ClientID          string     `json:"clientId"`
	FormState         *FormState `json:"formState"`
	OverallCompletion int        `json:"overallCompletion"`
	Status            string     `json:"status"`
	CreatedAt         string     `json:"createdAt"`
	UpdatedAt         string     `json:"updatedAt"`
}

// Submission statuses
const (
	SubmissionStatusSubmitted  = "submitted"
	SubmissionStatusIncomplete = "submitted_incomplete"
)
