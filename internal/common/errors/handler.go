// internal/common/errors/handler.go
package errors

import (
	"context"
	"encoding/json"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// ErrorHandler handles job errors with standardized error handling
type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// JobOutcome is the decision taken for a failed job.
type JobOutcome struct {
	BPMN    *BPMNError
	Throw   bool
	Retries int
}

// Decide maps err to either a thrown BPMN error or a failed job with the
// number of retries left. Validation failures are always thrown.
func (h *ErrorHandler) Decide(job entities.Job, err error) JobOutcome {
	stdErr := AsStandardError(err)
	bpmnErr := ConvertToBPMNError(stdErr)

	if stdErr.Kind == KindValidation || !stdErr.Retryable || job.Retries <= 0 {
		return JobOutcome{BPMN: bpmnErr, Throw: true}
	}

	// job.Retries counts the current attempt.
	remaining := int(job.Retries) - 1
	if maxRetries := GetRetryCount(stdErr.Code); remaining > maxRetries {
		remaining = maxRetries
	}
	return JobOutcome{BPMN: bpmnErr, Retries: remaining}
}

// HandleJobError handles any error in a worker job
func (h *ErrorHandler) HandleJobError(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	outcome := h.Decide(job, err)
	h.logError(job, AsStandardError(err), outcome)

	if outcome.Throw {
		h.throwBPMNError(ctx, client, job, outcome.BPMN)
		return
	}
	h.failJobWithRetries(ctx, client, job, outcome.BPMN, outcome.Retries)
}

func (h *ErrorHandler) failJobWithRetries(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError, retries int) {
	cmd := client.NewFailJobCommand().
		JobKey(job.Key).
		Retries(int32(retries)).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if cmdWithVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			_, _ = cmdWithVars.Send(ctx)
			return
		}
	}

	_, _ = cmd.Send(ctx)
}

func (h *ErrorHandler) throwBPMNError(ctx context.Context, client worker.JobClient, job entities.Job, bpmnErr *BPMNError) {
	cmd := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(bpmnErr.Code).
		ErrorMessage(bpmnErr.Message)

	if varsJSON, err := json.Marshal(bpmnErr.ToErrorVariables()); err == nil {
		if cmdWithVars, err := cmd.VariablesFromString(string(varsJSON)); err == nil {
			_, _ = cmdWithVars.Send(ctx)
			return
		}
	}

	_, _ = cmd.Send(ctx)
}

func (h *ErrorHandler) logError(job entities.Job, stdErr *StandardError, outcome JobOutcome) {
	h.logger.Error("Job failed", map[string]interface{}{
		"jobKey":           job.Key,
		"jobType":          job.Type,
		"errorCode":        string(stdErr.Code),
		"errorKind":        stdErr.Kind.String(),
		"bpmnErrorCode":    outcome.BPMN.Code,
		"message":          outcome.BPMN.Message,
		"details":          stdErr.Details,
		"retryable":        stdErr.Retryable,
		"thrown":           outcome.Throw,
		"retries":          outcome.Retries,
		"errorCategory":    GetErrorCategory(stdErr.Code),
		"workflowInstance": job.ProcessInstanceKey,
	})
}
