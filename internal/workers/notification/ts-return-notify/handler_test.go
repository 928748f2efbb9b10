package tsreturnnotify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"complaint-workers/internal/common/config"
	"complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
)

// ==========================
// Mock Service Implementation
// ==========================

type MockService struct {
	mock.Mock
}

func (m *MockService) Execute(ctx context.Context, event *models.ChangeEvent) (*models.DispatchResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.DispatchResult), args.Error(1)
}

// ==========================
// Fake Gateway
// ==========================

// fakeGateway records the job commands the handler sends.
type fakeGateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	completed []*pb.CompleteJobRequest
	failed    []*pb.FailJobRequest
	thrown    []*pb.ThrowErrorRequest
}

func (g *fakeGateway) CompleteJob(_ context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = append(g.completed, in)
	return &pb.CompleteJobResponse{}, nil
}

func (g *fakeGateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = append(g.failed, in)
	return &pb.FailJobResponse{}, nil
}

func (g *fakeGateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thrown = append(g.thrown, in)
	return &pb.ThrowErrorResponse{}, nil
}

type fakeJobClient struct {
	gateway *fakeGateway
}

func noRetry(context.Context, error) bool { return false }

func (c fakeJobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.gateway, noRetry)
}

func (c fakeJobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.gateway, noRetry)
}

func (c fakeJobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.gateway, noRetry)
}

// ==========================
// Test Helpers
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "complaint-return",
		ElementId:          "Activity_TsReturnNotify",
		CustomHeaders:      "{}",
		Worker:             "test-worker",
		Retries:            3,
		Variables:          string(variablesJSON),
	}}
}

func newTestHandler(t *testing.T, svc executor) *Handler {
	log := logger.NewTestLogger(t)
	return &Handler{
		config:       DefaultConfig(),
		logger:       log,
		service:      svc,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func decodeVariables(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(raw), &vars))
	return vars
}

// ==========================
// Handler Creation Tests
// ==========================

func TestHandler_NewHandler(t *testing.T) {
	tests := []struct {
		name    string
		opts    HandlerOptions
		wantErr string
	}{
		{
			name: "valid configuration",
			opts: HandlerOptions{CustomConfig: DefaultConfig(), Logger: logger.NewNoOpLogger()},
		},
		{
			name: "default logger created when not provided",
			opts: HandlerOptions{CustomConfig: DefaultConfig()},
		},
		{
			name:    "invalid timeout",
			opts:    HandlerOptions{CustomConfig: &Config{Enabled: true, MaxJobsActive: 5, Timeout: -time.Second, MaxConcurrentSends: 1}},
			wantErr: "timeout must be positive",
		},
		{
			name:    "invalid max jobs active",
			opts:    HandlerOptions{CustomConfig: &Config{Enabled: true, Timeout: time.Second, MaxConcurrentSends: 1}},
			wantErr: "max_jobs_active must be positive",
		},
		{
			name:    "invalid concurrency",
			opts:    HandlerOptions{CustomConfig: &Config{Enabled: true, MaxJobsActive: 5, Timeout: time.Second}},
			wantErr: "max_concurrent_sends must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, err := NewHandler(tt.opts)

			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, handler)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, handler.service)
			assert.NotNil(t, handler.errorHandler)
			assert.Equal(t, TaskType, handler.GetTaskType())
		})
	}
}

func TestCreateConfigFromAppConfig(t *testing.T) {
	appConfig := &config.Config{
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: false, MaxJobsActive: 12, Timeout: 45000},
		},
		Notifications: config.NotificationConfig{MaxConcurrentSends: 3},
	}

	cfg := createConfigFromAppConfig(appConfig, nil)

	assert.Equal(t, &Config{
		Enabled:            false,
		MaxJobsActive:      12,
		Timeout:            45 * time.Second,
		MaxConcurrentSends: 3,
	}, cfg)

	custom := &Config{Enabled: true, MaxJobsActive: 1, Timeout: time.Second, MaxConcurrentSends: 1}
	assert.Same(t, custom, createConfigFromAppConfig(appConfig, custom))
	assert.Equal(t, DefaultConfig(), createConfigFromAppConfig(nil, nil))
}

// ==========================
// Handle Tests
// ==========================

func TestHandler_Handle_CompletesWithDispatchResult(t *testing.T) {
	svc := &MockService{}
	svc.On("Execute", mock.Anything, mock.MatchedBy(func(e *models.ChangeEvent) bool {
		return e.ResellerID == testReseller && e.Differences != nil && e.Differences.To == 2
	})).Return(&models.DispatchResult{
		NotificationEmployeeByEmail: true,
		NotificationClientBySms:     models.SmsOutcome{Message: "client has no mobile number"},
	}, nil)

	gw := &fakeGateway{}
	newTestHandler(t, svc).Handle(fakeJobClient{gw}, createMockJob(42, changeVars()))

	svc.AssertExpectations(t)
	require.Len(t, gw.completed, 1)
	assert.Empty(t, gw.failed)
	assert.Empty(t, gw.thrown)
	assert.Equal(t, int64(42), gw.completed[0].JobKey)
	assert.Equal(t, map[string]interface{}{
		"notificationEmployeeByEmail": true,
		"notificationClientByEmail":   false,
		"notificationClientBySms": map[string]interface{}{
			"isSent":  false,
			"message": "client has no mobile number",
		},
	}, decodeVariables(t, gw.completed[0].Variables))
}

func TestHandler_Handle_InvalidInputThrowsWithoutCallingService(t *testing.T) {
	svc := &MockService{}
	vars := changeVars()
	delete(vars, "resellerId")

	gw := &fakeGateway{}
	newTestHandler(t, svc).Handle(fakeJobClient{gw}, createMockJob(42, vars))

	svc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	require.Len(t, gw.thrown, 1)
	assert.Equal(t, "VALIDATION_FAILED", gw.thrown[0].ErrorCode)
	assert.Equal(t, "Empty resellerId", gw.thrown[0].ErrorMessage)
	assert.Empty(t, gw.completed)
}

func TestHandler_Handle_ErrorOutcomes(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantThrown  bool
		wantCode    string
		wantRetries int32
		wantStatus  float64
	}{
		{
			name:       "validation error is thrown",
			err:        errors.NewValidationError("Client not found"),
			wantThrown: true,
			wantCode:   "VALIDATION_FAILED",
			wantStatus: 400,
		},
		{
			name:        "lookup outage fails with retries",
			err:         errors.NewReferenceLookupFailedError("client", fmt.Errorf("connection refused")),
			wantCode:    "REFERENCE_LOOKUP_FAILED",
			wantRetries: 2,
			wantStatus:  500,
		},
		{
			name:        "unknown error fails as internal",
			err:         fmt.Errorf("boom"),
			wantCode:    "INTERNAL_ERROR",
			wantRetries: 2,
			wantStatus:  500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockService{}
			svc.On("Execute", mock.Anything, mock.Anything).Return(nil, tt.err)

			gw := &fakeGateway{}
			newTestHandler(t, svc).Handle(fakeJobClient{gw}, createMockJob(7, changeVars()))

			assert.Empty(t, gw.completed)
			if tt.wantThrown {
				require.Len(t, gw.thrown, 1)
				assert.Empty(t, gw.failed)
				assert.Equal(t, tt.wantCode, gw.thrown[0].ErrorCode)
				vars := decodeVariables(t, gw.thrown[0].Variables)
				assert.Equal(t, tt.wantStatus, vars["statusCode"])
				return
			}

			require.Len(t, gw.failed, 1)
			assert.Empty(t, gw.thrown)
			assert.Equal(t, tt.wantRetries, gw.failed[0].Retries)
			vars := decodeVariables(t, gw.failed[0].Variables)
			assert.Equal(t, tt.wantCode, vars["errorCode"])
			assert.Equal(t, tt.wantStatus, vars["statusCode"])
		})
	}
}

func TestHandler_Handle_Disabled(t *testing.T) {
	svc := &MockService{}
	h := newTestHandler(t, svc)
	h.config.Enabled = false

	gw := &fakeGateway{}
	h.Handle(fakeJobClient{gw}, createMockJob(1, changeVars()))

	svc.AssertNotCalled(t, "Execute", mock.Anything, mock.Anything)
	require.Len(t, gw.completed, 1)
	vars := decodeVariables(t, gw.completed[0].Variables)
	assert.Equal(t, false, vars["notificationEmployeeByEmail"])
}

func TestHandler_RegisterWithoutCamunda(t *testing.T) {
	h := newTestHandler(t, &MockService{})
	assert.Error(t, h.Register())

	h.config.Enabled = false
	assert.NoError(t, h.Register())
}

func TestExtractErrorCode(t *testing.T) {
	assert.Equal(t, "VALIDATION_FAILED", extractErrorCode(errors.NewValidationError("x")))
	assert.Equal(t, "INTERNAL_ERROR", extractErrorCode(fmt.Errorf("x")))
	assert.Equal(t, "UNKNOWN_ERROR", extractErrorCode(nil))
}
