// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Onboarding business errors
const (
	ErrCodeOnboardingIncomplete  ErrorCode = "ONBOARDING_INCOMPLETE"
	ErrCodeFormValidationFailed  ErrorCode = "FORM_VALIDATION_FAILED"
	ErrCodeDraftNotFound         ErrorCode = "DRAFT_NOT_FOUND"
	ErrCodeDuplicateSubmission   ErrorCode = "DUPLICATE_SUBMISSION"
	ErrCodeInvalidInput          ErrorCode = "INVALID_INPUT"
	ErrCodeParseError            ErrorCode = "PARSE_ERROR"
	ErrCodeInternal              ErrorCode = "INTERNAL_ERROR"
	ErrCodeUnsupportedNotifyType ErrorCode = "UNSUPPORTED_NOTIFICATION_TYPE"
)

// Technical errors
const (
	ErrCodeDraftSaveFailed          ErrorCode = "DRAFT_SAVE_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeDatabaseInsertFailed     ErrorCode = "DATABASE_INSERT_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"
	ErrCodeNotificationSendFailed   ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeIndexFailed              ErrorCode = "INDEX_FAILED"
	ErrCodeCRMSyncFailed            ErrorCode = "CRM_SYNC_FAILED"
	ErrCodeCRMTimeout               ErrorCode = "CRM_TIMEOUT"
	ErrCodeJobTimeout               ErrorCode = "JOB_TIMEOUT"
	ErrCodeExternalService          ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error's metadata and returns the error.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

func detailsOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// AsStandardError finds the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewOnboardingIncompleteError blocks a final submission that still has
// incomplete steps.
func NewOnboardingIncompleteError(overall int, incompleteSteps []string) *StandardError {
	e := newError(ErrCodeOnboardingIncomplete,
		"Onboarding form is not complete",
		strings.Join(incompleteSteps, ", "),
		false, nil)
	return e.WithMetadata("overallCompletion", overall).WithMetadata("incompleteSteps", incompleteSteps)
}

// NewFormValidationFailedError reports schema or format violations.
func NewFormValidationFailedError(violations []string) *StandardError {
	e := newError(ErrCodeFormValidationFailed,
		"Onboarding form failed validation",
		strings.Join(violations, "; "),
		false, nil)
	return e.WithMetadata("violations", violations)
}

// NewDraftSaveFailedError is retryable.
func NewDraftSaveFailedError(clientID string, err error) *StandardError {
	return newError(ErrCodeDraftSaveFailed, "Failed to save onboarding draft", detailsOf(err), true, err).
		WithMetadata("clientId", clientID)
}

func NewDraftNotFoundError(clientID string) *StandardError {
	return newError(ErrCodeDraftNotFound, "No onboarding draft for client", clientID, false, nil).
		WithMetadata("clientId", clientID)
}

func NewDuplicateSubmissionError(clientID string) *StandardError {
	return newError(ErrCodeDuplicateSubmission, "Onboarding already submitted for client", clientID, false, nil).
		WithMetadata("clientId", clientID)
}

func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection failed", detailsOf(err), true, err)
}

func NewDatabaseInsertFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseInsertFailed, "Failed to insert record", detailsOf(err), true, err)
}

func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, fmt.Sprintf("Query %s failed", query), detailsOf(err), true, err)
}

// NewCacheUnavailableError is only surfaced when no database fallback exists.
func NewCacheUnavailableError(err error) *StandardError {
	return newError(ErrCodeCacheUnavailable, "Progress cache unavailable", detailsOf(err), true, err)
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed,
		fmt.Sprintf("Failed to send %s notification", notificationType),
		detailsOf(err), true, err)
}

func NewUnsupportedNotificationTypeError(notificationType string) *StandardError {
	return newError(ErrCodeUnsupportedNotifyType, "Unsupported notification type", notificationType, false, nil)
}

func NewIndexFailedError(index string, err error) *StandardError {
	return newError(ErrCodeIndexFailed, fmt.Sprintf("Failed to index into %s", index), detailsOf(err), true, err)
}

func NewCRMSyncFailedError(err error) *StandardError {
	return newError(ErrCodeCRMSyncFailed, "Failed to sync lead to CRM", detailsOf(err), true, err)
}

func NewCRMTimeoutError(err error) *StandardError {
	return newError(ErrCodeCRMTimeout, "CRM request timed out", detailsOf(err), true, err)
}

func NewJobTimeoutError(err error) *StandardError {
	return newError(ErrCodeJobTimeout, "Job timed out", detailsOf(err), true, err)
}

// NewTimeoutError marks a deadline hit while calling service.
func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeJobTimeout, fmt.Sprintf("%s request timed out", service), detailsOf(err), true, err).
		WithMetadata("service", service)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("%s call failed", service), detailsOf(err), true, err).
		WithMetadata("service", service)
}

func NewParseError(err error) *StandardError {
	return newError(ErrCodeParseError, "Failed to parse job variables", detailsOf(err), false, err)
}

func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", detailsOf(err), false, err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal codes onto the error codes caught by the
// onboarding process boundary events.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeOnboardingIncomplete:     "ONBOARDING_INCOMPLETE",
	ErrCodeFormValidationFailed:     "FORM_VALIDATION_FAILED",
	ErrCodeDraftNotFound:            "DRAFT_NOT_FOUND",
	ErrCodeDuplicateSubmission:      "DUPLICATE_SUBMISSION",
	ErrCodeInvalidInput:             "INVALID_INPUT",
	ErrCodeParseError:               "PARSE_ERROR",
	ErrCodeUnsupportedNotifyType:    "INVALID_INPUT",
	ErrCodeDraftSaveFailed:          "DRAFT_SAVE_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_ERROR",
	ErrCodeDatabaseInsertFailed:     "DATABASE_ERROR",
	ErrCodeQueryExecutionFailed:     "DATABASE_ERROR",
	ErrCodeCacheUnavailable:         "CACHE_UNAVAILABLE",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeIndexFailed:              "INDEX_FAILED",
	ErrCodeCRMSyncFailed:            "CRM_SYNC_FAILED",
	ErrCodeCRMTimeout:               "CRM_SYNC_FAILED",
	ErrCodeJobTimeout:               "JOB_TIMEOUT",
	ErrCodeExternalService:          "EXTERNAL_SERVICE_ERROR",
}

// GetRetryCount returns the number of job retries for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDraftSaveFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeDatabaseInsertFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeIndexFailed,
		ErrCodeCRMSyncFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeCacheUnavailable,
		ErrCodeCRMTimeout,
		ErrCodeJobTimeout:
		return 2

	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.HasPrefix(codeStr, "ONBOARDING") || strings.Contains(codeStr, "SUBMISSION"):
		return "ONBOARDING"
	case strings.Contains(codeStr, "DRAFT") || strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "CACHE"):
		return "CACHE"
	case strings.Contains(codeStr, "INDEX"):
		return "SEARCH"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.HasPrefix(codeStr, "CRM"):
		return "CRM"
	case strings.HasPrefix(codeStr, "EXTERNAL"):
		return "INTEGRATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "PARSE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
