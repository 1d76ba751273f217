// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"sync"
	"time"

	"onboarding-workers/internal/common/config"
	"onboarding-workers/internal/common/metrics"
	"onboarding-workers/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// Job outcomes as seen from the commands a handler issued.
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeThrown    = "error_thrown"
	OutcomeNone      = "no_command"
)

// Worker is an open job worker for one task type.
type Worker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// StartWorker opens a job worker for taskType and wraps handler with Instrument.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler worker.JobHandler,
	obs *observability.Observability,
	log *zap.Logger,
) *Worker {
	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)

	return &Worker{worker: jobWorker, logger: log, taskType: taskType}
}

// Stop closes the job worker and waits for in-flight jobs.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
	w.worker.AwaitClose()
}

// Instrument wraps handler with the active-job gauge, a job span and the
// otel job counters. obs may be nil.
func Instrument(taskType string, handler worker.JobHandler, obs *observability.Observability) worker.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		ctx := context.Background()
		start := time.Now()
		rc := &recordingClient{JobClient: client}

		if obs == nil {
			handler(rc, job)
			return
		}

		ctx, span := obs.StartJobSpan(ctx, taskType, job.GetKey())
		handler(rc, job)

		outcome := rc.Outcome()
		var spanErr error
		if outcome == OutcomeFailed || outcome == OutcomeThrown {
			spanErr = fmt.Errorf("job %d %s", job.GetKey(), outcome)
		}
		observability.EndJobSpan(span, spanErr)
		obs.RecordJobProcessed(ctx, taskType, outcome)
		obs.RecordJobDuration(ctx, taskType, time.Since(start), outcome)
	}
}

// recordingClient notes which command the handler created last.
type recordingClient struct {
	worker.JobClient

	mu      sync.Mutex
	outcome string
}

func (r *recordingClient) set(outcome string) {
	r.mu.Lock()
	r.outcome = outcome
	r.mu.Unlock()
}

func (r *recordingClient) Outcome() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcome == "" {
		return OutcomeNone
	}
	return r.outcome
}

func (r *recordingClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	r.set(OutcomeCompleted)
	return r.JobClient.NewCompleteJobCommand()
}

func (r *recordingClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	r.set(OutcomeFailed)
	return r.JobClient.NewFailJobCommand()
}

func (r *recordingClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	r.set(OutcomeThrown)
	return r.JobClient.NewThrowErrorCommand()
}

// CompleteJob completes job with output as its variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.GetKey()).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("build complete command: %w", err)
	}
	if _, err := cmd.Send(ctx); err != nil {
		return fmt.Errorf("send complete command: %w", err)
	}
	return nil
}
