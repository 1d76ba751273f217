// internal/workers/onboarding/index-client-profile/handler.go
package indexclientprofile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"onboarding-workers/internal/common/camunda"
	apperrors "onboarding-workers/internal/common/errors"
	"onboarding-workers/internal/common/logger"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/completion"
	"onboarding-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	TaskType = "index-client-profile"
)

type Handler struct {
	config     *Config
	client     *elasticsearch.Client
	logger     logger.Logger
	errHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, client *elasticsearch.Client, log logger.Logger) *Handler {
	defaults := LoadConfig()
	if config.IndexName == "" {
		config.IndexName = defaults.IndexName
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
		client:     client,
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

	doc := BuildProfile(input, h.config.StepNames)
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("marshal profile: %w", err))
	}

	opts := []func(*esapi.IndexRequest){
		h.client.Index.WithContext(ctx),
		h.client.Index.WithDocumentID(input.ClientID),
	}
	if h.config.Refresh != "" {
		opts = append(opts, h.client.Index.WithRefresh(h.config.Refresh))
	}

	res, err := h.client.Index(h.config.IndexName, bytes.NewReader(body), opts...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewTimeoutError("elasticsearch", err)
		}
		return nil, apperrors.NewIndexFailedError(h.config.IndexName, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, apperrors.NewIndexFailedError(h.config.IndexName, fmt.Errorf("index response: %s", res.String()))
	}

	var parsed indexResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperrors.NewIndexFailedError(h.config.IndexName, fmt.Errorf("decode index response: %w", err))
	}

	h.logger.Info("client profile indexed", map[string]interface{}{
		"clientId": input.ClientID,
		"index":    h.config.IndexName,
		"result":   parsed.Result,
		"version":  parsed.Version,
	})

	return &Output{
		Index:      h.config.IndexName,
		DocumentID: parsed.ID,
		Result:     parsed.Result,
		Version:    parsed.Version,
		IndexedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

// BuildProfile flattens a submitted form into the searchable profile document.
func BuildProfile(input *Input, stepNames []string) ClientProfile {
	s := input.FormState
	report := completion.Evaluate(s, stepNames)

	services := make([]string, 0, len(s.Services))
	for _, svc := range s.Services {
		if completion.IsFilled(svc.Name) {
			services = append(services, strings.TrimSpace(svc.Name))
		}
	}

	submittedAt := input.SubmittedAt
	if submittedAt == "" {
		submittedAt = time.Now().UTC().Format(time.RFC3339)
	}

	return ClientProfile{
		ClientID:          input.ClientID,
		SubmissionID:      input.SubmissionID,
		CompanyName:       strings.TrimSpace(s.Field(models.FieldCompanyName)),
		MainCity:          strings.TrimSpace(s.Field(models.FieldMainCity)),
		ServiceAreas:      strings.TrimSpace(s.Field(models.FieldServiceAreas)),
		Services:          services,
		ClientType:        s.Field(models.FieldClientType),
		BusinessEmail:     strings.TrimSpace(s.Field(models.FieldBusinessEmail)),
		Phone:             strings.TrimSpace(s.Field(models.FieldPhone)),
		DomainName:        strings.TrimSpace(s.Field(models.FieldDomainName)),
		OverallCompletion: report.OverallCompletion,
		StepCompletions:   report.StepCompletions,
		IncompleteSteps:   report.IncompleteSteps,
		Status:            input.SubmissionStatus,
		SubmittedAt:       submittedAt,
	}
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	res := h.errHandler.HandleJobError(ctx, client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(res.Standard.Code)).Inc()
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
