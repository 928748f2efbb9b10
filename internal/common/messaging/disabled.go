package messaging

import (
	"context"
	"errors"

	"complaint-workers/internal/models"
)

// ErrChannelDisabled is reported for every message of a disabled channel.
var ErrChannelDisabled = errors.New("channel disabled by configuration")

// DisabledEmail stands in for the SES sender when email is switched off.
type DisabledEmail struct{}

func (DisabledEmail) Send(_ context.Context, msgs []models.EmailMessage, _ models.EmailMeta) []models.DeliveryResult {
	results := make([]models.DeliveryResult, len(msgs))
	for i, m := range msgs {
		results[i] = models.DeliveryResult{To: m.To, Err: ErrChannelDisabled}
	}
	return results
}

// DisabledSms stands in for the SNS sender when SMS is switched off.
type DisabledSms struct{}

func (DisabledSms) Send(context.Context, models.SmsRequest) models.SmsResult {
	return models.SmsResult{Message: "sms " + ErrChannelDisabled.Error()}
}
