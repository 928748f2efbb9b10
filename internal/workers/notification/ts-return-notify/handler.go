package tsreturnnotify

import (
	"context"
	"fmt"
	"time"

	"complaint-workers/internal/common/camunda"
	"complaint-workers/internal/common/config"
	"complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/metrics"
	"complaint-workers/internal/common/observability"
	"complaint-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "ts-return-notify"

// executor is satisfied by *Service.
type executor interface {
	Execute(ctx context.Context, event *models.ChangeEvent) (*models.DispatchResult, error)
}

type Handler struct {
	config       *Config
	logger       logger.Logger
	camunda      *camunda.Client
	service      executor
	errorHandler *errors.ErrorHandler
	obs          *observability.Observability
	jobWorker    *camunda.CamundaWorker
}

type HandlerOptions struct {
	AppConfig    *config.Config
	Camunda      *camunda.Client
	CustomConfig *Config
	Dependencies ServiceDependencies
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}

	var loggerInstance logger.Logger
	if opts.Logger != nil {
		loggerInstance = opts.Logger
	} else {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.With(map[string]interface{}{"taskType": TaskType})

	deps := opts.Dependencies
	if deps.Logger == nil {
		deps.Logger = loggerInstance
	}

	return &Handler{
		config:       workerConfig,
		logger:       loggerInstance,
		camunda:      opts.Camunda,
		service:      NewService(deps, workerConfig),
		errorHandler: errors.NewErrorHandler(loggerInstance),
		obs:          deps.Observability,
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	ctx, span := h.obs.Tracer().Start(ctx, TaskType)
	defer span.End()

	h.logger.Info("Processing return status notification", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	if !h.config.Enabled {
		h.logger.Info("Worker disabled by configuration", nil)
		h.completeJob(ctx, client, job, &models.DispatchResult{})
		return
	}

	event, err := h.parseInput(job)
	if err == nil {
		var result *models.DispatchResult
		if result, err = h.service.Execute(ctx, event); err == nil {
			h.completeJob(ctx, client, job, result)
			metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
			metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
			h.obs.RecordJobProcessed(ctx, "completed")
			h.obs.RecordJobDuration(ctx, time.Since(startTime), "completed")
			return
		}
	}

	span.RecordError(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(startTime), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) parseInput(job entities.Job) (*models.ChangeEvent, error) {
	variables, err := job.GetVariablesAsMap()
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("Failed to parse job variables: %s", err.Error()))
	}
	return ParseChangeEvent(variables)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, result *models.DispatchResult) {
	request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(result.ToVariables())
	if err != nil {
		h.logger.Error("Failed to create complete job command", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	if _, err = request.Send(ctx); err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return
	}

	h.logger.Info("Completed return status notification", map[string]interface{}{
		"jobKey":          job.GetKey(),
		"employeeByEmail": result.NotificationEmployeeByEmail,
		"clientByEmail":   result.NotificationClientByEmail,
		"clientBySms":     result.NotificationClientBySms.IsSent,
	})
}

// Register opens the job subscription unless the worker is disabled.
func (h *Handler) Register() error {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	if h.camunda == nil {
		return fmt.Errorf("camunda client is not configured")
	}

	h.jobWorker = camunda.StartWorker(h.camunda.GetClient(), camunda.WorkerOptions{
		TaskType:      TaskType,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
		Handler:       h.Handle,
	}, h.logger)

	return nil
}

func (h *Handler) Close() {
	if h.jobWorker != nil {
		h.jobWorker.Stop()
		h.jobWorker = nil
	}
}

func (h *Handler) HealthCheck(ctx context.Context) error {
	if h.camunda == nil {
		return fmt.Errorf("camunda client is not configured")
	}
	if err := h.camunda.HealthCheck(ctx); err != nil {
		return fmt.Errorf("camunda health check failed: %w", err)
	}
	return nil
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func extractErrorCode(err error) string {
	if err == nil {
		return "UNKNOWN_ERROR"
	}
	return string(errors.AsStandardError(err).Code)
}

func createConfigFromAppConfig(appConfig *config.Config, customConfig *Config) *Config {
	if customConfig != nil {
		return customConfig
	}

	cfg := DefaultConfig()

	if appConfig != nil {
		if workerCfg, exists := appConfig.Workers[TaskType]; exists {
			cfg.Enabled = workerCfg.Enabled
			if workerCfg.MaxJobsActive > 0 {
				cfg.MaxJobsActive = workerCfg.MaxJobsActive
			}
			if workerCfg.Timeout > 0 {
				cfg.Timeout = config.GetDuration(workerCfg.Timeout)
			}
		}
		if appConfig.Notifications.MaxConcurrentSends > 0 {
			cfg.MaxConcurrentSends = appConfig.Notifications.MaxConcurrentSends
		}
	}

	return cfg
}
