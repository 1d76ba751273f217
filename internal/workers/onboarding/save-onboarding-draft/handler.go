// internal/workers/onboarding/save-onboarding-draft/handler.go
package saveonboardingdraft

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"onboarding-workers/internal/common/camunda"
	"onboarding-workers/internal/common/database"
	apperrors "onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/completion"
	"onboarding-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "save-onboarding-draft"
)

const upsertDraftSQL = `
	INSERT INTO onboarding_drafts (
		client_id, draft_id, form_state, step_completions,
		overall_completion, current_step, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	ON CONFLICT (client_id) DO UPDATE SET
		form_state         = EXCLUDED.form_state,
		step_completions   = EXCLUDED.step_completions,
		overall_completion = EXCLUDED.overall_completion,
		current_step       = EXCLUDED.current_step,
		updated_at         = EXCLUDED.updated_at
	RETURNING draft_id`

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	memo       *completion.Memo
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler builds the handler. redisClient and memo may be nil.
func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, memo *completion.Memo, log logger.Logger) *Handler {
	defaults := LoadConfig()
	if len(config.StepNames) == 0 {
		config.StepNames = defaults.StepNames
	}
	if config.CacheTTL <= 0 {
		config.CacheTTL = defaults.CacheTTL
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		db:         db,
		redis:      redisClient,
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
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewJobTimeoutError(err)
	}
	if strings.TrimSpace(input.ClientID) == "" {
		return nil, apperrors.NewInvalidInputError("clientId is required")
	}
	if input.FormState == nil {
		return nil, apperrors.NewInvalidInputError("formState is required")
	}
	currentStep := input.CurrentStep
	if currentStep < 1 || currentStep > completion.StepCount {
		currentStep = 1
	}

	report := h.evaluate(input.FormState)

	formJSON, err := json.Marshal(input.FormState)
	if err != nil {
		return nil, apperrors.NewDraftSaveFailedError(input.ClientID, fmt.Errorf("marshal form state: %w", err))
	}
	stepsJSON, err := json.Marshal(report.StepCompletions)
	if err != nil {
		return nil, apperrors.NewDraftSaveFailedError(input.ClientID, fmt.Errorf("marshal step completions: %w", err))
	}

	draftID := input.DraftID
	if draftID == "" {
		draftID = uuid.New().String()
	}
	now := time.Now().UTC()

	var savedDraftID string
	err = h.db.QueryRowContext(ctx, upsertDraftSQL,
		input.ClientID,
		draftID,
		formJSON,
		stepsJSON,
		report.OverallCompletion,
		currentStep,
		now,
	).Scan(&savedDraftID)
	if err != nil {
		return nil, apperrors.NewDraftSaveFailedError(input.ClientID, err)
	}

	savedAt := now.Format(time.RFC3339)
	progress := models.OnboardingProgress{
		ClientID:          input.ClientID,
		DraftID:           savedDraftID,
		StepCompletions:   report.StepCompletions,
		OverallCompletion: report.OverallCompletion,
		IncompleteSteps:   report.IncompleteSteps,
		UpdatedAt:         savedAt,
	}
	cached := h.cacheProgress(ctx, &progress)

	h.logger.Info("draft saved", map[string]interface{}{
		"clientId":          input.ClientID,
		"draftId":           savedDraftID,
		"overallCompletion": report.OverallCompletion,
		"cached":            cached,
	})

	return &Output{
		DraftID:           savedDraftID,
		StepCompletions:   report.StepCompletions,
		OverallCompletion: report.OverallCompletion,
		IncompleteSteps:   report.IncompleteSteps,
		SavedAt:           savedAt,
		Cached:            cached,
	}, nil
}

// cacheProgress is best effort; the draft row is the source of truth.
func (h *Handler) cacheProgress(ctx context.Context, progress *models.OnboardingProgress) bool {
	if h.redis == nil {
		return false
	}
	data, err := json.Marshal(progress)
	if err != nil {
		h.logger.Warn("failed to marshal progress", map[string]interface{}{"error": err})
		return false
	}
	if err := h.redis.Set(ctx, database.ProgressKey(progress.ClientID), data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("progress cache write failed", map[string]interface{}{
			"clientId": progress.ClientID,
			"error":    err,
		})
		return false
	}
	return true
}

func (h *Handler) evaluate(s *models.FormState) completion.Report {
	if h.memo != nil {
		report, _ := h.memo.Evaluate(s, h.config.StepNames)
		return report
	}
	return completion.Evaluate(s, h.config.StepNames)
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	res := h.errHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(res.Standard.Code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
