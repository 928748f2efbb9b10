package tsreturnnotify

import (
	"context"
	stderrors "errors"

	"complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/observability"
	"complaint-workers/internal/common/reference"
	"complaint-workers/internal/models"
)

type ServiceDependencies struct {
	References    ReferenceResolver
	Statuses      StatusNamer
	Renderer      TemplateRenderer
	Mail          MailSettings
	Email         EmailSender
	Sms           SmsSender
	Observability *observability.Observability
	Logger        logger.Logger
}

// Service runs the notification pipeline for one change event.
type Service struct {
	config     *Config
	references ReferenceResolver
	builder    *TemplateDataBuilder
	dispatcher *Dispatcher
	obs        *observability.Observability
	logger     logger.Logger
}

func NewService(deps ServiceDependencies, config *Config) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	return &Service{
		config:     config,
		references: deps.References,
		builder:    NewTemplateDataBuilder(deps.Renderer, deps.Statuses),
		dispatcher: NewDispatcher(DispatcherOptions{
			Mail:               deps.Mail,
			Renderer:           deps.Renderer,
			Email:              deps.Email,
			Sms:                deps.Sms,
			MaxConcurrentSends: config.MaxConcurrentSends,
			Logger:             log,
		}),
		obs:    deps.Observability,
		logger: log,
	}
}

// parties holds the resolved references of one event.
type parties struct {
	reseller *models.Reseller
	client   *models.Client
	creator  *models.Employee
	expert   *models.Employee
}

// Execute validates, resolves, builds and checks the template data, and only
// then dispatches. Any error before dispatch means nothing was sent.
func (s *Service) Execute(ctx context.Context, event *models.ChangeEvent) (*models.DispatchResult, error) {
	if err := validateEvent(event); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(map[string]interface{}{
		"resellerId":       event.ResellerID,
		"notificationType": event.NotificationType.String(),
		"complaintId":      event.ComplaintID,
	})
	log.Info("Executing return status notification", nil)

	stageCtx, end := s.obs.StartStage(ctx, "resolve_references")
	p, err := s.resolve(stageCtx, event)
	end(err)
	if err != nil {
		return nil, err
	}
	log.Debug("References resolved", map[string]interface{}{
		"reseller": p.reseller.Name,
		"clientId": p.client.ID,
	})

	stageCtx, end = s.obs.StartStage(ctx, "build_template_data")
	data, err := s.builder.Build(stageCtx, event, p.client, p.creator, p.expert)
	if err == nil {
		err = ValidateTemplateData(data)
	}
	end(err)
	if err != nil {
		return nil, err
	}

	stageCtx, end = s.obs.StartStage(ctx, "dispatch")
	result := s.dispatcher.Dispatch(stageCtx, DispatchInput{
		ResellerID:       event.ResellerID,
		Client:           p.client,
		NotificationType: event.NotificationType,
		Event:            event,
		TemplateData:     data,
	})
	end(nil)

	return &result, nil
}

func (s *Service) resolve(ctx context.Context, event *models.ChangeEvent) (*parties, error) {
	reseller, err := s.references.ResolveReseller(ctx, event.ResellerID)
	if err != nil && !stderrors.Is(err, reference.ErrNotFound) {
		return nil, errors.NewReferenceLookupFailedError("seller", err)
	}
	if reseller == nil {
		return nil, errors.NewValidationError("Seller not found")
	}

	client, err := s.references.ResolveClient(ctx, event.ClientID)
	if err != nil && !stderrors.Is(err, reference.ErrNotFound) {
		return nil, errors.NewReferenceLookupFailedError("client", err)
	}
	if client == nil || !client.BelongsTo(event.ResellerID) {
		return nil, errors.NewValidationError("Client not found")
	}

	creator, err := s.employee(ctx, event.CreatorID, models.RoleCreator)
	if err != nil {
		return nil, err
	}
	expert, err := s.employee(ctx, event.ExpertID, models.RoleExpert)
	if err != nil {
		return nil, err
	}

	return &parties{reseller: reseller, client: client, creator: creator, expert: expert}, nil
}

// employee tolerates a missing row: the returned employee has no name, so
// the template data check rejects the event.
func (s *Service) employee(ctx context.Context, id int64, role string) (*models.Employee, error) {
	emp, err := s.references.ResolveEmployee(ctx, id)
	switch {
	case stderrors.Is(err, reference.ErrNotFound) || (err == nil && emp == nil):
		return &models.Employee{ID: id, Role: role}, nil
	case err != nil:
		return nil, errors.NewReferenceLookupFailedError("employee", err)
	}

	resolved := *emp
	resolved.Role = role
	return &resolved, nil
}
