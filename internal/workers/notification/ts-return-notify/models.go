package tsreturnnotify

import (
	"context"

	"complaint-workers/internal/common/translation"
	"complaint-workers/internal/models"
)

// ReferenceResolver looks up the parties of a complaint. Missing rows are
// reported with an error wrapping reference.ErrNotFound.
type ReferenceResolver interface {
	ResolveReseller(ctx context.Context, id int64) (*models.Reseller, error)
	ResolveClient(ctx context.Context, id int64) (*models.Client, error)
	ResolveEmployee(ctx context.Context, id int64) (*models.Employee, error)
}

type StatusNamer interface {
	StatusName(ctx context.Context, code int) (string, error)
}

type TemplateRenderer interface {
	Render(ctx context.Context, key translation.TemplateKey, vars map[string]string, resellerID int64) (string, error)
}

// MailSettings provides the reseller sender address and the employees
// allowed to receive a category of notifications.
type MailSettings interface {
	EmailFrom(ctx context.Context, resellerID int64) (string, error)
	PermittedEmails(ctx context.Context, resellerID int64, permit string) ([]string, error)
}

// EmailSender reports one result per message and never fails as a whole.
type EmailSender interface {
	Send(ctx context.Context, msgs []models.EmailMessage, meta models.EmailMeta) []models.DeliveryResult
}

type SmsSender interface {
	Send(ctx context.Context, req models.SmsRequest) models.SmsResult
}

// DispatchInput is everything the dispatcher needs for one event.
type DispatchInput struct {
	ResellerID       int64
	Client           *models.Client
	NotificationType models.NotificationType
	Event            *models.ChangeEvent
	TemplateData     models.TemplateData
}

// statusTo returns the target status of a CHANGE event, or 0 when the
// client channels do not apply.
func (in DispatchInput) statusTo() int {
	if in.NotificationType != models.NotificationTypeChange || in.Event == nil || in.Event.Differences == nil {
		return 0
	}
	return in.Event.Differences.To
}
