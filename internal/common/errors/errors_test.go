package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Error(string, map[string]interface{}) {}

func jobWithRetries(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Type: "ts-return-notify", Retries: retries}}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, NewValidationError("Empty resellerId").StatusCode())
	assert.Equal(t, http.StatusInternalServerError, NewInternalError("boom").StatusCode())
	assert.Equal(t, http.StatusInternalServerError, NewReferenceLookupFailedError("client", fmt.Errorf("down")).StatusCode())
}

func TestAsStandardError(t *testing.T) {
	t.Run("unwraps wrapped standard error", func(t *testing.T) {
		inner := NewValidationError("Client not found")
		got := AsStandardError(fmt.Errorf("stage: %w", inner))
		assert.Same(t, inner, got)
	})

	t.Run("wraps unknown error as internal", func(t *testing.T) {
		cause := fmt.Errorf("connection reset")
		got := AsStandardError(cause)
		assert.Equal(t, ErrCodeInternal, got.Code)
		assert.Equal(t, KindInternal, got.Kind)
		assert.ErrorIs(t, got, cause)
	})
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(NewValidationError("Empty notificationType")))
	assert.False(t, IsValidation(NewTemplateRenderFailedError("key", fmt.Errorf("x"))))
	assert.False(t, IsValidation(nil))
	assert.True(t, IsInternal(fmt.Errorf("plain")))
	assert.False(t, IsInternal(nil))
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationFailed, 0},
		{ErrCodeTemplateNotFound, 0},
		{ErrCodeTemplateRenderFailed, 2},
		{ErrCodeReferenceLookupFailed, 3},
		{ErrCodeInternal, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewTemplateRenderFailedError("complaintClientSmsText", fmt.Errorf("missing")))

	assert.Equal(t, "TEMPLATE_RENDER_FAILED", bpmn.Code)
	assert.Equal(t, 2, bpmn.Retries)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "TEMPLATE_RENDER_FAILED", vars["errorCode"])
	assert.Equal(t, http.StatusInternalServerError, vars["statusCode"])
	assert.Equal(t, "TEMPLATE_RENDER_FAILED", vars["originalErrorCode"])
}

func TestErrorHandler_Decide(t *testing.T) {
	h := NewErrorHandler(nopLogger{})

	t.Run("validation is thrown", func(t *testing.T) {
		out := h.Decide(jobWithRetries(3), NewValidationError("Seller not found"))
		require.True(t, out.Throw)
		assert.Equal(t, "VALIDATION_FAILED", out.BPMN.Code)
		assert.Equal(t, "Seller not found", out.BPMN.Message)
	})

	t.Run("internal fails with one retry consumed", func(t *testing.T) {
		out := h.Decide(jobWithRetries(3), NewReferenceLookupFailedError("client", fmt.Errorf("timeout")))
		assert.False(t, out.Throw)
		assert.Equal(t, 2, out.Retries)
	})

	t.Run("retries are capped per code", func(t *testing.T) {
		out := h.Decide(jobWithRetries(10), NewTemplateRenderFailedError("k", fmt.Errorf("x")))
		assert.False(t, out.Throw)
		assert.Equal(t, 2, out.Retries)
	})

	t.Run("exhausted job is thrown", func(t *testing.T) {
		out := h.Decide(jobWithRetries(0), NewInternalError("boom"))
		assert.True(t, out.Throw)
	})

	t.Run("non retryable internal is thrown", func(t *testing.T) {
		out := h.Decide(jobWithRetries(3), NewTemplateNotFoundError("k", "en"))
		assert.True(t, out.Throw)
		assert.Equal(t, "TEMPLATE_NOT_FOUND", out.BPMN.Code)
	})
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "REFERENCE", GetErrorCategory(ErrCodeReferenceLookupFailed))
	assert.Equal(t, "TEMPLATE", GetErrorCategory(ErrCodeTemplateRenderFailed))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchQueryFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
