// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Action is what the error handler does with a failed job.
type Action string

const (
	ActionFail  Action = "fail"  // fail the job and let Zeebe retry it
	ActionThrow Action = "throw" // throw a BPMN error to the process
)

// Resolution is the outcome of classifying a job error.
type Resolution struct {
	Action   Action
	Retries  int32
	Standard *StandardError
	BPMN     *BPMNError
}

// Logger is the subset of logger.Logger the handler needs.
type Logger interface {
	Error(msg string, fields map[string]interface{})
}

// ErrorHandler reports worker errors back to Zeebe.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Resolve classifies err for a job that has remainingRetries left. Retryable
// codes fail the job while both the job and the code policy still allow a
// retry; everything else is thrown as a BPMN error.
func Resolve(err error, remainingRetries int32) Resolution {
	stdErr := normalizeError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	retries := int32(bpmnErr.Retries)
	if remainingRetries-1 < retries {
		retries = remainingRetries - 1
	}
	if retries > 0 {
		return Resolution{Action: ActionFail, Retries: retries, Standard: stdErr, BPMN: bpmnErr}
	}
	return Resolution{Action: ActionThrow, Standard: stdErr, BPMN: bpmnErr}
}

// HandleJobError resolves err and sends the matching command for job.
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) Resolution {
	res := Resolve(err, job.GetRetries())
	h.logError(job, res)

	var sendErr error
	switch res.Action {
	case ActionFail:
		sendErr = h.failJob(ctx, client, job, res)
	default:
		sendErr = h.throwBPMNError(ctx, client, job, res.BPMN)
	}
	if sendErr != nil {
		h.logger.Error("failed to report job error", map[string]interface{}{
			"jobKey": job.GetKey(),
			"action": string(res.Action),
			"error":  sendErr.Error(),
		})
	}
	return res
}

func normalizeError(err error) *StandardError {
	if err == nil {
		return NewInternalError(fmt.Errorf("nil error reported"))
	}
	if stdErr, ok := AsStandardError(err); ok {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(err, context.Canceled) {
		return NewJobTimeoutError(err)
	}
	return NewInternalError(err)
}

func (h *ErrorHandler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, res Resolution) error {
	cmd := client.NewFailJobCommand().
		JobKey(job.GetKey()).
		Retries(res.Retries).
		ErrorMessage(fmt.Sprintf("[%s] %s", res.BPMN.Code, res.BPMN.Message))

	withVars, err := cmd.VariablesFromMap(res.BPMN.ToErrorVariables())
	if err != nil {
		_, sendErr := cmd.Send(ctx)
		return sendErr
	}
	_, err = withVars.Send(ctx)
	return err
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) error {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.GetKey()).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables())
	if err != nil {
		_, sendErr := cmd.Send(ctx)
		return sendErr
	}
	withVars, err := cmd.VariablesFromString(string(varsJSON))
	if err != nil {
		_, sendErr := cmd.Send(ctx)
		return sendErr
	}
	_, err = withVars.Send(ctx)
	return err
}

func (h *ErrorHandler) logError(job entities.Job, res Resolution) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":           job.GetKey(),
		"jobType":          job.GetType(),
		"errorCode":        string(res.Standard.Code),
		"bpmnErrorCode":    res.BPMN.Code,
		"message":          res.BPMN.Message,
		"details":          res.Standard.Details,
		"action":           string(res.Action),
		"retries":          res.Retries,
		"errorCategory":    GetErrorCategory(res.Standard.Code),
		"workflowInstance": job.GetProcessInstanceKey(),
	})
}
