package tsreturnnotify

import (
	"context"
	stderrors "errors"
	"fmt"

	"complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/reference"
	"complaint-workers/internal/common/translation"
	"complaint-workers/internal/models"
)

// TemplateDataBuilder assembles the variables shared by every message of one event.
type TemplateDataBuilder struct {
	renderer TemplateRenderer
	statuses StatusNamer
}

func NewTemplateDataBuilder(renderer TemplateRenderer, statuses StatusNamer) *TemplateDataBuilder {
	return &TemplateDataBuilder{renderer: renderer, statuses: statuses}
}

func (b *TemplateDataBuilder) Build(ctx context.Context, event *models.ChangeEvent, client *models.Client, creator, expert *models.Employee) (models.TemplateData, error) {
	differences, err := b.differences(ctx, event)
	if err != nil {
		return models.TemplateData{}, err
	}

	return models.TemplateData{
		ComplaintID:       event.ComplaintID,
		ComplaintNumber:   event.ComplaintNumber,
		CreatorID:         event.CreatorID,
		CreatorName:       creator.DisplayName(),
		ExpertID:          event.ExpertID,
		ExpertName:        expert.DisplayName(),
		ClientID:          event.ClientID,
		ClientName:        client.DisplayName(),
		ConsumptionID:     event.ConsumptionID,
		ConsumptionNumber: event.ConsumptionNumber,
		AgreementNumber:   event.AgreementNumber,
		Date:              event.Date,
		Differences:       differences,
	}, nil
}

// differences is empty for any type other than NEW, and for a CHANGE without
// a status transition. ValidateTemplateData rejects that later.
func (b *TemplateDataBuilder) differences(ctx context.Context, event *models.ChangeEvent) (string, error) {
	switch {
	case event.NotificationType == models.NotificationTypeNew:
		return b.render(ctx, translation.KeyNewPositionAdded, nil, event.ResellerID)

	case event.NotificationType == models.NotificationTypeChange && event.Differences != nil:
		from, err := b.statusName(ctx, event.Differences.From)
		if err != nil {
			return "", err
		}
		to, err := b.statusName(ctx, event.Differences.To)
		if err != nil {
			return "", err
		}
		return b.render(ctx, translation.KeyPositionStatusHasChanged, map[string]string{
			"FROM": from,
			"TO":   to,
		}, event.ResellerID)

	default:
		return "", nil
	}
}

func (b *TemplateDataBuilder) render(ctx context.Context, key translation.TemplateKey, vars map[string]string, resellerID int64) (string, error) {
	text, err := b.renderer.Render(ctx, key, vars, resellerID)
	if err != nil {
		return "", renderError(key, err)
	}
	return text, nil
}

// statusName rejects a status code with no name: the event refers to a
// status that does not exist.
func (b *TemplateDataBuilder) statusName(ctx context.Context, code int) (string, error) {
	name, err := b.statuses.StatusName(ctx, code)
	switch {
	case stderrors.Is(err, reference.ErrNotFound):
		return "", errors.NewValidationError(fmt.Sprintf("Status %d not found", code))
	case err != nil:
		return "", errors.NewTemplateRenderFailedError(string(translation.KeyPositionStatusHasChanged),
			fmt.Errorf("status %d: %w", code, err))
	}
	return name, nil
}

// renderError keeps missing catalog text apart from catalog outages. Missing
// text is a deployment fault and is never retried.
func renderError(key translation.TemplateKey, err error) error {
	var missing *translation.MissingTextError
	switch {
	case stderrors.As(err, &missing):
		return errors.NewTemplateNotFoundError(string(missing.Key), missing.Locale)
	case stderrors.Is(err, translation.ErrMissing):
		return errors.NewTemplateNotFoundError(string(key), "")
	}
	return errors.NewTemplateRenderFailedError(string(key), err)
}
