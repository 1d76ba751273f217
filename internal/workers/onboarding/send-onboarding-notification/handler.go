// internal/workers/onboarding/send-onboarding-notification/handler.go
package sendonboardingnotification

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	awsclient "onboarding-workers/internal/common/aws"
	"onboarding-workers/internal/common/camunda"
	apperrors "onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/completion"
	"onboarding-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "send-onboarding-notification"
)

// EmailSender is satisfied by *awsclient.SESClient.
type EmailSender interface {
	Send(ctx context.Context, msg awsclient.Email) (string, error)
}

// SMSSender is satisfied by *awsclient.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, message string) (string, error)
}

type Handler struct {
	config     *Config
	email      EmailSender
	sms        SMSSender
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler builds the handler. A nil sender disables its channel.
func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	defaults := LoadConfig()
	if len(config.StepNames) == 0 {
		config.StepNames = defaults.StepNames
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		email:      email,
		sms:        sms,
		logger:     log,
		errHandler: apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, apperrors.NewParseError(err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewJobTimeoutError(err)
	}
	tmpl, ok := templates[input.NotificationType]
	if !ok {
		return nil, apperrors.NewUnsupportedNotificationTypeError(input.NotificationType)
	}
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, apperrors.NewInvalidInputError("clientId is required")
	}

	state := input.FormState
	if state == nil {
		state = models.NewFormState()
	}
	incomplete := input.IncompleteSteps
	overall := input.OverallCompletion
	if input.FormState != nil && len(incomplete) == 0 {
		report := completion.Evaluate(state, h.config.StepNames)
		incomplete = report.IncompleteSteps
		overall = report.OverallCompletion
	}

	data := map[string]interface{}{
		"clientId":          input.ClientID,
		"submissionId":      input.SubmissionID,
		"companyName":       state.Field(models.FieldCompanyName),
		"clientType":        state.Field(models.FieldClientType),
		"overallCompletion": overall,
		"incompleteSummary": incompleteSummary(incomplete),
		"adminUrl":          h.adminLink(input.ClientID),
	}

	output := &Output{
		NotificationID: uuid.New().String(),
		Status:         StatusDisabled,
		Channels:       []string{},
		SentAt:         time.Now().UTC().Format(time.RFC3339),
	}

	recipient := h.config.AgencyInbox
	if input.NotificationType == TypeOnboardingReminder {
		recipient = state.Field(models.FieldBusinessEmail)
	}

	if h.emailEnabled() && recipient != "" {
		msgID, err := h.email.Send(ctx, awsclient.Email{
			To:       []string{recipient},
			Subject:  renderTemplate(tmpl.Subject, data),
			TextBody: renderTemplate(tmpl.Body, data),
		})
		if err != nil {
			metrics.NotificationsSent.WithLabelValues(ChannelEmail, StatusFailed).Inc()
			return nil, apperrors.NewNotificationSendFailedError(input.NotificationType, err)
		}
		metrics.NotificationsSent.WithLabelValues(ChannelEmail, StatusSent).Inc()
		output.Channels = append(output.Channels, ChannelEmail)
		h.logger.Info("notification email sent", map[string]interface{}{
			"clientId":  input.ClientID,
			"type":      input.NotificationType,
			"messageId": msgID,
		})
	}

	// SMS is a courtesy ping for priority clients; a failure never fails the job.
	if tmpl.SMS != "" && h.smsEnabled() && h.isPriority(state.Field(models.FieldClientType)) {
		if _, err := h.sms.SendSMS(ctx, h.config.AgencyPhone, renderTemplate(tmpl.SMS, data)); err != nil {
			metrics.NotificationsSent.WithLabelValues(ChannelSMS, StatusFailed).Inc()
			h.logger.Warn("notification SMS failed", map[string]interface{}{
				"clientId": input.ClientID,
				"error":    err,
			})
		} else {
			metrics.NotificationsSent.WithLabelValues(ChannelSMS, StatusSent).Inc()
			output.Channels = append(output.Channels, ChannelSMS)
		}
	}

	if len(output.Channels) > 0 {
		output.Status = StatusSent
	} else {
		metrics.NotificationsSent.WithLabelValues("none", StatusDisabled).Inc()
	}
	return output, nil
}

func (h *Handler) emailEnabled() bool {
	return h.config.EmailEnabled && h.email != nil
}

func (h *Handler) smsEnabled() bool {
	return h.config.SMSEnabled && h.sms != nil && h.config.AgencyPhone != ""
}

func (h *Handler) isPriority(clientType string) bool {
	for _, t := range h.config.PriorityClients {
		if strings.EqualFold(t, clientType) && clientType != "" {
			return true
		}
	}
	return false
}

func (h *Handler) adminLink(clientID string) string {
	if h.config.AdminURL == "" {
		return ""
	}
	return strings.TrimRight(h.config.AdminURL, "/") + "/clients/" + clientID
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	res := h.errHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(res.Standard.Code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
