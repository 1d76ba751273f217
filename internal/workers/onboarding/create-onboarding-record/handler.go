// internal/workers/onboarding/create-onboarding-record/handler.go
package createonboardingrecord

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
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "create-onboarding-record"
)

// uniqueViolation is the Postgres SQLSTATE for a unique constraint hit.
const uniqueViolation = "23505"

type Handler struct {
	config     *Config
	db         *sql.DB
	redis      *redis.Client
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

// NewHandler builds the handler. redisClient may be nil.
func NewHandler(config *Config, db *sql.DB, redisClient *redis.Client, log logger.Logger) *Handler {
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
		db:         db,
		redis:      redisClient,
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

	// Completion is recomputed here rather than trusted from upstream.
	report := completion.Evaluate(input.FormState, h.config.StepNames)
	status := models.SubmissionStatusSubmitted
	if !report.IsComplete {
		status = models.SubmissionStatusIncomplete
	}

	var exists bool
	err := h.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM onboarding_submissions WHERE client_id = $1)`,
		input.ClientID).Scan(&exists)
	if err != nil {
		return nil, apperrors.NewQueryExecutionFailedError("duplicate check", err)
	}
	if exists {
		return nil, apperrors.NewDuplicateSubmissionError(input.ClientID)
	}

	formJSON, err := json.Marshal(input.FormState)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal form state: %w", err))
	}
	incompleteJSON, err := json.Marshal(report.IncompleteSteps)
	if err != nil {
		return nil, apperrors.NewDatabaseInsertFailedError(fmt.Errorf("marshal incomplete steps: %w", err))
	}

	submissionID := uuid.New().String()
	createdAt := time.Now().UTC().Format(time.RFC3339)

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO onboarding_submissions (
			id, client_id, form_state, overall_completion,
			incomplete_steps, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		submissionID,
		input.ClientID,
		formJSON,
		report.OverallCompletion,
		incompleteJSON,
		status,
		createdAt,
	)
	if err != nil {
		// Lost a race with a concurrent submission for the same client.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, apperrors.NewDuplicateSubmissionError(input.ClientID)
		}
		return nil, apperrors.NewDatabaseInsertFailedError(err)
	}

	h.writeAudit(ctx, submissionID, input.ClientID, report, createdAt)
	h.invalidateProgress(ctx, input.ClientID)

	h.logger.Info("onboarding record created", map[string]interface{}{
		"submissionId":      submissionID,
		"clientId":          input.ClientID,
		"overallCompletion": report.OverallCompletion,
		"status":            status,
	})

	return &Output{
		SubmissionID:      submissionID,
		SubmissionStatus:  status,
		OverallCompletion: report.OverallCompletion,
		IncompleteSteps:   report.IncompleteSteps,
		CreatedAt:         createdAt,
	}, nil
}

// writeAudit is non-critical.
func (h *Handler) writeAudit(ctx context.Context, submissionID, clientID string, report completion.Report, createdAt string) {
	details, err := json.Marshal(map[string]interface{}{
		"clientId":          clientID,
		"overallCompletion": report.OverallCompletion,
		"incompleteSteps":   report.IncompleteSteps,
	})
	if err != nil {
		h.logger.Warn("failed to marshal audit log details", map[string]interface{}{
			"error": err,
		})
		details = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"onboarding_submitted",
		"onboarding_submission",
		submissionID,
		details,
		createdAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":        err,
			"submissionId": submissionID,
		})
	}
}

// invalidateProgress drops the cached draft progress once the client has submitted.
func (h *Handler) invalidateProgress(ctx context.Context, clientID string) {
	if h.redis == nil {
		return
	}
	if err := h.redis.Del(ctx, database.ProgressKey(clientID)).Err(); err != nil {
		h.logger.Warn("progress cache invalidation failed", map[string]interface{}{
			"clientId": clientID,
			"error":    err,
		})
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	res := h.errHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(res.Standard.Code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
