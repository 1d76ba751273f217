// internal/workers/onboarding/calculate-form-completion/handler.go
package calculateformcompletion

import (
	"context"
	"encoding/json"
	"time"

	"onboarding-workers/internal/common/camunda"
	apperrors "onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/common/observability"
	"onboarding-workers/internal/completion"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-form-completion"
)

type Handler struct {
	config     *Config
	memo       *completion.Memo
	obs        *observability.Observability
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler builds the handler. memo may be nil, in which case every job is
// evaluated from scratch.
func NewHandler(config *Config, memo *completion.Memo, log logger.Logger) *Handler {
	if len(config.StepNames) == 0 {
		config.StepNames = LoadConfig().StepNames
	}
	if config.Timeout <= 0 {
		config.Timeout = LoadConfig().Timeout
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		memo:       memo,
		logger:     log,
		errHandler: apperrors.NewErrorHandler(log),
	}
}

// WithObservability records completion into the otel histogram as well.
func (h *Handler) WithObservability(obs *observability.Observability) *Handler {
	h.obs = obs
	return h
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
	if input.FormState == nil {
		return nil, apperrors.NewInvalidInputError("formState is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewJobTimeoutError(err)
	}

	var report completion.Report
	cached := false
	if h.memo != nil {
		report, cached = h.memo.Evaluate(input.FormState, h.config.StepNames)
	} else {
		report = completion.Evaluate(input.FormState, h.config.StepNames)
	}

	metrics.ObserveCompletion(report.OverallCompletion, report.IncompleteNames(h.config.StepNames))
	if h.obs != nil {
		h.obs.RecordCompletion(ctx, report.OverallCompletion, report.IsComplete)
	}

	h.logger.Info("form completion evaluated", map[string]interface{}{
		"clientId":          input.ClientID,
		"overallCompletion": report.OverallCompletion,
		"incompleteSteps":   len(report.IncompleteSteps),
		"memoHit":           cached,
	})

	return &Output{
		StepCompletions:   report.StepCompletions,
		OverallCompletion: report.OverallCompletion,
		IncompleteSteps:   report.IncompleteSteps,
		IsComplete:        report.IsComplete,
		EvaluatedAt:       time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	res := h.errHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(res.Standard.Code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
