// internal/workers/onboarding/create-crm-lead/handler.go
package createcrmlead

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"onboarding-workers/internal/common/camunda"
	apperrors "onboarding-workers/internal/common/errors"
	httpclient "onboarding-workers/internal/common/http"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/common/zoho"
	"onboarding-workers/internal/completion"
	"onboarding-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "create-crm-lead"
)

// LeadService is satisfied by *zoho.CRMClient.
type LeadService interface {
	CreateLead(ctx context.Context, lead *zoho.Lead) (string, error)
	SearchLeadsByEmail(ctx context.Context, email string) ([]zoho.Lead, error)
}

type Handler struct {
	config     *Config
	crm        LeadService
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, crm LeadService, log logger.Logger) *Handler {
	defaults := LoadConfig()
	if config.LeadSource == "" {
		config.LeadSource = defaults.LeadSource
	}
	if len(config.StepNames) == 0 {
		config.StepNames = defaults.StepNames
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		crm:        crm,
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
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, apperrors.NewInvalidInputError("clientId is required")
	}
	if input.FormState == nil {
		return nil, apperrors.NewInvalidInputError("formState is required")
	}

	lead := h.BuildLead(input)
	if lead.Company == "" {
		return nil, apperrors.NewInvalidInputError("companyName is required for a CRM lead")
	}

	// Resubmissions and retries must not create a second lead.
	if lead.Email != "" {
		existing, err := h.crm.SearchLeadsByEmail(ctx, lead.Email)
		if err != nil {
			return nil, h.mapCRMError(err)
		}
		if len(existing) > 0 {
			h.logger.Info("matched existing CRM lead", map[string]interface{}{
				"clientId": input.ClientID,
				"leadId":   existing[0].ID,
			})
			return &Output{
				LeadID:   existing[0].ID,
				Created:  false,
				SyncedAt: time.Now().UTC().Format(time.RFC3339),
			}, nil
		}
	}

	leadID, err := h.crm.CreateLead(ctx, lead)
	if err != nil {
		return nil, h.mapCRMError(err)
	}

	h.logger.Info("CRM lead created", map[string]interface{}{
		"clientId": input.ClientID,
		"leadId":   leadID,
	})

	return &Output{
		LeadID:   leadID,
		Created:  true,
		SyncedAt: time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// BuildLead maps the submitted form onto a Zoho lead.
func (h *Handler) BuildLead(input *Input) *zoho.Lead {
	s := input.FormState
	report := completion.Evaluate(s, h.config.StepNames)
	company := strings.TrimSpace(s.Field(models.FieldCompanyName))

	desc := []string{fmt.Sprintf("Onboarding %d%% complete.", report.OverallCompletion)}
	if t := s.Field(models.FieldClientType); t != "" {
		desc = append(desc, "Client type: "+t+".")
	}
	if len(report.IncompleteSteps) > 0 {
		desc = append(desc, "Incomplete: "+strings.Join(report.IncompleteSteps, ", ")+".")
	}
	if input.SubmissionID != "" {
		desc = append(desc, "Submission: "+input.SubmissionID+".")
	}

	return &zoho.Lead{
		Company:     company,
		LastName:    company,
		Email:       strings.TrimSpace(s.Field(models.FieldBusinessEmail)),
		Phone:       strings.TrimSpace(s.Field(models.FieldPhone)),
		Website:     website(s.Field(models.FieldDomainName)),
		City:        leadCity(s),
		State:       strings.TrimSpace(s.Field(models.FieldState)),
		Street:      strings.TrimSpace(s.Field(models.FieldStreetAddress)),
		ZipCode:     strings.TrimSpace(s.Field(models.FieldPostalCode)),
		Source:      h.config.LeadSource,
		Description: strings.Join(desc, " "),
	}
}

// leadCity prefers the street-address city and falls back to the main service city.
func leadCity(s *models.FormState) string {
	if city := strings.TrimSpace(s.Field(models.FieldCity)); city != "" {
		return city
	}
	return strings.TrimSpace(s.Field(models.FieldMainCity))
}

func website(domain string) string {
	domain = strings.TrimSpace(domain)
	if domain == "" || strings.Contains(domain, "://") {
		return domain
	}
	return "https://" + domain
}

func (h *Handler) mapCRMError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewCRMTimeoutError(err)
	}
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) &&
		statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 &&
		statusErr.StatusCode != http.StatusTooManyRequests {
		return apperrors.NewInvalidInputError(fmt.Sprintf("CRM rejected lead: %v", err))
	}
	return apperrors.NewCRMSyncFailedError(err)
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	res := h.errHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(res.Standard.Code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
