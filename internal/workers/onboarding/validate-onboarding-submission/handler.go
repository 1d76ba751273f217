// internal/workers/onboarding/validate-onboarding-submission/handler.go
package validateonboardingsubmission

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"onboarding-workers/internal/common/camunda"
	apperrors "onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/common/validation"
	"onboarding-workers/internal/completion"
	"onboarding-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-onboarding-submission"
)

type Handler struct {
	config     *Config
	memo       *completion.Memo
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler builds the gate. reg and memo may be nil.
func NewHandler(config *Config, reg *registry.ActivityRegistry, memo *completion.Memo, log logger.Logger) *Handler {
	defaults := LoadConfig()
	if len(config.StepNames) == 0 {
		config.StepNames = defaults.StepNames
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}
	if config.FormatRules == nil {
		config.FormatRules = defaults.FormatRules
	}
	if config.FormSchema == nil && reg != nil {
		if schema, ok := reg.InputProperty(TaskType, "formState"); ok {
			config.FormSchema = schema
		}
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		memo:       memo,
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
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, apperrors.NewInvalidInputError("clientId is required")
	}
	if input.FormState == nil {
		return nil, apperrors.NewInvalidInputError("formState is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewJobTimeoutError(err)
	}

	result, err := validation.ValidateSchema(h.config.FormSchema, input.FormState)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("schema check: %w", err))
	}
	result.Merge(validation.CheckFormats(input.FormState.Fields, h.config.FormatRules))
	if !result.Valid {
		metrics.SubmissionsGated.WithLabelValues(OutcomeInvalid).Inc()
		h.logger.Warn("submission failed validation", map[string]interface{}{
			"clientId":   input.ClientID,
			"violations": result.GetErrorMessages(),
		})
		return nil, apperrors.NewFormValidationFailedError(result.GetErrorMessages())
	}

	report := h.evaluate(input)

	output := &Output{
		IsValid:           true,
		IsComplete:        report.IsComplete,
		OverallCompletion: report.OverallCompletion,
		StepCompletions:   report.StepCompletions,
		IncompleteSteps:   report.IncompleteSteps,
		Warnings:          []string{},
	}

	if report.IsComplete {
		metrics.SubmissionsGated.WithLabelValues(OutcomeAccepted).Inc()
		return output, nil
	}

	allow := h.config.AllowIncomplete
	if input.AllowIncomplete != nil {
		allow = *input.AllowIncomplete
	}
	if !allow {
		metrics.SubmissionsGated.WithLabelValues(OutcomeBlocked).Inc()
		h.logger.Info("submission blocked", map[string]interface{}{
			"clientId":          input.ClientID,
			"overallCompletion": report.OverallCompletion,
			"incompleteSteps":   report.IncompleteSteps,
		})
		return nil, apperrors.NewOnboardingIncompleteError(report.OverallCompletion, report.IncompleteSteps)
	}

	metrics.SubmissionsGated.WithLabelValues(OutcomeWarned).Inc()
	for _, step := range report.IncompleteSteps {
		output.Warnings = append(output.Warnings, "incomplete step: "+step)
	}
	return output, nil
}

func (h *Handler) evaluate(input *Input) completion.Report {
	if h.memo != nil {
		report, _ := h.memo.Evaluate(input.FormState, h.config.StepNames)
		return report
	}
	return completion.Evaluate(input.FormState, h.config.StepNames)
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	res := h.errHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(res.Standard.Code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
