package tsreturnnotify

import (
	"context"
	"fmt"
	"testing"

	"complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/observability"
	"complaint-workers/internal/common/translation"
	"complaint-workers/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serviceFixture struct {
	refs     *stubReferences
	renderer stubRenderer
	email    *recordingEmail
	sms      *recordingSms
	mail     stubMail
}

func newServiceFixture() *serviceFixture {
	return &serviceFixture{
		refs:     newReferences(),
		renderer: stubRenderer{texts: defaultTexts()},
		email:    &recordingEmail{},
		sms:      &recordingSms{result: models.SmsResult{Sent: true}},
		mail:     stubMail{from: "noreply@acme.test", recipients: []string{"ops@acme.test"}},
	}
}

func (f *serviceFixture) service(t *testing.T) *Service {
	return NewService(ServiceDependencies{
		References:    f.refs,
		Statuses:      stubStatuses{1: "Open", 2: "Approved"},
		Renderer:      f.renderer,
		Mail:          f.mail,
		Email:         f.email,
		Sms:           f.sms,
		Observability: observability.NewNoop(),
		Logger:        logger.NewTestLogger(t),
	}, DefaultConfig())
}

func (f *serviceFixture) assertNothingSent(t *testing.T) {
	t.Helper()
	assert.Empty(t, f.email.sent)
	assert.Empty(t, f.sms.requests)
}

func TestService_Execute_FullChange(t *testing.T) {
	f := newServiceFixture()

	result, err := f.service(t).Execute(context.Background(), changeEvent())
	require.NoError(t, err)

	assert.Equal(t, &models.DispatchResult{
		NotificationEmployeeByEmail: true,
		NotificationClientByEmail:   true,
		NotificationClientBySms:     models.SmsOutcome{IsSent: true, Message: ""},
	}, result)

	require.Len(t, f.sms.requests, 1)
	assert.Equal(t, "Status changed from Open to Approved", f.sms.requests[0].Variables[models.VarDifferences])
}

func TestService_Execute_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.ChangeEvent)
		wantMsg string
	}{
		{"empty reseller", func(e *models.ChangeEvent) { e.ResellerID = 0 }, "Empty resellerId"},
		{"empty notification type", func(e *models.ChangeEvent) { e.NotificationType = 0 }, "Empty notificationType"},
		{"unknown reseller", func(e *models.ChangeEvent) { e.ResellerID = 999 }, "Seller not found"},
		{"unknown client", func(e *models.ChangeEvent) { e.ClientID = 404 }, "Client not found"},
		{"client is not a customer", func(e *models.ChangeEvent) { e.ClientID = 101 }, "Client not found"},
		{"client of another reseller", func(e *models.ChangeEvent) { e.ClientID = 102 }, "Client not found"},
		{"unknown creator", func(e *models.ChangeEvent) { e.CreatorID = 404 }, "Template Data (CREATOR_NAME) is empty!"},
		{"unknown expert", func(e *models.ChangeEvent) { e.ExpertID = 404 }, "Template Data (EXPERT_NAME) is empty!"},
		{"empty consumption number", func(e *models.ChangeEvent) { e.ConsumptionNumber = "" }, "Template Data (CONSUMPTION_NUMBER) is empty!"},
		{"out of range notification type", func(e *models.ChangeEvent) { e.NotificationType = 99 }, "Template Data (DIFFERENCES) is empty!"},
		{"change without differences", func(e *models.ChangeEvent) { e.Differences = nil }, "Template Data (DIFFERENCES) is empty!"},
		{"unknown target status", func(e *models.ChangeEvent) { e.Differences = &models.Differences{From: 1, To: 42} }, "Status 42 not found"},
		{"zero complaint number", func(e *models.ChangeEvent) { e.ComplaintNumber = "0" }, "Template Data (COMPLAINT_NUMBER) is empty!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			event := changeEvent()
			tt.mutate(event)

			result, err := f.service(t).Execute(context.Background(), event)

			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.IsValidation(err))
			stdErr := errors.AsStandardError(err)
			assert.Equal(t, tt.wantMsg, stdErr.Message)
			assert.Equal(t, 400, stdErr.StatusCode())
			f.assertNothingSent(t)
		})
	}
}

func TestService_Execute_EmptyResellerCallsNoCollaborator(t *testing.T) {
	f := newServiceFixture()
	event := changeEvent()
	event.ResellerID = 0

	_, err := f.service(t).Execute(context.Background(), event)

	require.Error(t, err)
	assert.Zero(t, f.refs.calls)
	f.assertNothingSent(t)
}

func TestService_Execute_LookupOutageIsInternal(t *testing.T) {
	f := newServiceFixture()
	f.refs.err = fmt.Errorf("connection refused")

	_, err := f.service(t).Execute(context.Background(), changeEvent())

	require.Error(t, err)
	assert.True(t, errors.IsInternal(err))
	stdErr := errors.AsStandardError(err)
	assert.Equal(t, errors.ErrCodeReferenceLookupFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Equal(t, 500, stdErr.StatusCode())
	f.assertNothingSent(t)
}

func TestService_Execute_NilSellerIsNotFound(t *testing.T) {
	f := newServiceFixture()
	f.refs.resellers[testReseller] = nil

	result, err := f.service(t).Execute(context.Background(), changeEvent())

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "Seller not found", errors.AsStandardError(err).Message)
	f.assertNothingSent(t)
}

func TestService_Execute_UnrecoverableFailuresAreNotRetried(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*serviceFixture, *models.ChangeEvent)
		wantCode string
	}{
		{
			name: "unknown status code",
			setup: func(_ *serviceFixture, e *models.ChangeEvent) {
				e.Differences = &models.Differences{From: 1, To: 42}
			},
			wantCode: "VALIDATION_FAILED",
		},
		{
			name: "missing catalog text",
			setup: func(f *serviceFixture, _ *models.ChangeEvent) {
				delete(f.renderer.texts, translation.KeyPositionStatusHasChanged)
			},
			wantCode: "TEMPLATE_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture()
			event := changeEvent()
			tt.setup(f, event)

			_, err := f.service(t).Execute(context.Background(), event)
			require.Error(t, err)

			outcome := errors.NewErrorHandler(logger.NewTestLogger(t)).Decide(createMockJob(1, changeVars()), err)
			assert.True(t, outcome.Throw)
			assert.Equal(t, tt.wantCode, outcome.BPMN.Code)
			f.assertNothingSent(t)
		})
	}
}

func TestService_Execute_NewOnlyNotifiesEmployees(t *testing.T) {
	f := newServiceFixture()
	event := changeEvent()
	event.NotificationType = models.NotificationTypeNew
	event.Differences = nil

	result, err := f.service(t).Execute(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, &models.DispatchResult{NotificationEmployeeByEmail: true}, result)
	assert.Equal(t, []string{"ops@acme.test"}, f.email.to())
	assert.Equal(t, "New position added for Ivan Ivanov", f.email.sent[0].msg.Body)
}

func TestService_Execute_Idempotent(t *testing.T) {
	f := newServiceFixture()
	svc := f.service(t)

	first, err := svc.Execute(context.Background(), changeEvent())
	require.NoError(t, err)
	second, err := svc.Execute(context.Background(), changeEvent())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
