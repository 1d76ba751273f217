// internal/workers/onboarding/load-onboarding-progress/handler.go
package loadonboardingprogress

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
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
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "load-onboarding-progress"
)

const selectDraftSQL = `SELECT draft_id, form_state, updated_at FROM onboarding_drafts WHERE client_id = $1`

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

	// The cache holds no form state, so a caller asking for it always
	// goes to the database.
	if !input.IncludeFormState {
		if progress, ok := h.cachedProgress(ctx, input.ClientID); ok {
			return &Output{
				ClientID:          input.ClientID,
				DraftID:           progress.DraftID,
				StepCompletions:   progress.StepCompletions,
				OverallCompletion: progress.OverallCompletion,
				IncompleteSteps:   progress.IncompleteSteps,
				IsComplete:        len(progress.IncompleteSteps) == 0,
				UpdatedAt:         progress.UpdatedAt,
				Source:            SourceCache,
			}, nil
		}
	}

	var (
		draftID   string
		formJSON  []byte
		updatedAt time.Time
	)
	err := h.db.QueryRowContext(ctx, selectDraftSQL, input.ClientID).Scan(&draftID, &formJSON, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NewDraftNotFoundError(input.ClientID)
	}
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("load draft", err)
	}

	state := models.NewFormState()
	if err := json.Unmarshal(formJSON, state); err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("decode stored form state: %w", err))
	}

	report := h.evaluate(state)
	progress := models.OnboardingProgress{
		ClientID:          input.ClientID,
		DraftID:           draftID,
		StepCompletions:   report.StepCompletions,
		OverallCompletion: report.OverallCompletion,
		IncompleteSteps:   report.IncompleteSteps,
		UpdatedAt:         updatedAt.UTC().Format(time.RFC3339),
	}
	h.refillCache(ctx, &progress)

	output := &Output{
		ClientID:          input.ClientID,
		DraftID:           draftID,
		StepCompletions:   report.StepCompletions,
		OverallCompletion: report.OverallCompletion,
		IncompleteSteps:   report.IncompleteSteps,
		IsComplete:        report.IsComplete,
		UpdatedAt:         progress.UpdatedAt,
		Source:            SourceDatabase,
	}
	if input.IncludeFormState {
		output.FormState = state
	}
	return output, nil
}

func (h *Handler) cachedProgress(ctx context.Context, clientID string) (*models.OnboardingProgress, bool) {
	if h.redis == nil {
		return nil, false
	}
	raw, err := h.redis.Get(ctx, database.ProgressKey(clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.ProgressCacheLookups.WithLabelValues("miss").Inc()
		return nil, false
	}
	if err != nil {
		metrics.ProgressCacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("progress cache read failed", map[string]interface{}{
			"clientId": clientID,
			"error":    err,
		})
		return nil, false
	}

	var progress models.OnboardingProgress
	if err := json.Unmarshal(raw, &progress); err != nil {
		metrics.ProgressCacheLookups.WithLabelValues("error").Inc()
		h.logger.Warn("discarding corrupt progress cache entry", map[string]interface{}{
			"clientId": clientID,
			"error":    err,
		})
		return nil, false
	}
	metrics.ProgressCacheLookups.WithLabelValues("hit").Inc()
	return &progress, true
}

func (h *Handler) refillCache(ctx context.Context, progress *models.OnboardingProgress) {
	if h.redis == nil {
		return
	}
	data, err := json.Marshal(progress)
	if err != nil {
		return
	}
	if err := h.redis.Set(ctx, database.ProgressKey(progress.ClientID), data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("progress cache refill failed", map[string]interface{}{
			"clientId": progress.ClientID,
			"error":    err,
		})
	}
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
