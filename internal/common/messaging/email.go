// Package messaging delivers rendered notifications over Amazon SES and SNS.
package messaging

import (
	"context"
	"fmt"
	"strconv"

	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"golang.org/x/time/rate"
)

// SESAPI is the subset of the SES client used for sending.
type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type EmailOptions struct {
	ConfigurationSet string
	MaxSendRate      float64 // messages per second; zero disables limiting
	Logger           logger.Logger
}

// EmailSender sends one SES message per EmailMessage.
type EmailSender struct {
	ses              SESAPI
	limiter          *rate.Limiter
	configurationSet string
	logger           logger.Logger
}

func NewEmailSender(api SESAPI, opts EmailOptions) *EmailSender {
	s := &EmailSender{
		ses:              api,
		configurationSet: opts.ConfigurationSet,
		logger:           opts.Logger,
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	if opts.MaxSendRate > 0 {
		burst := int(opts.MaxSendRate)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.MaxSendRate), burst)
	}
	return s
}

// Send delivers msgs in order and reports one result per message. A failed
// message does not stop the rest of the batch.
func (s *EmailSender) Send(ctx context.Context, msgs []models.EmailMessage, meta models.EmailMeta) []models.DeliveryResult {
	results := make([]models.DeliveryResult, 0, len(msgs))
	tags := messageTags(meta)

	for _, msg := range msgs {
		result := models.DeliveryResult{To: msg.To}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				result.Err = fmt.Errorf("send rate wait: %w", err)
				results = append(results, result)
				continue
			}
		}

		out, err := s.ses.SendEmail(ctx, s.buildInput(msg, tags))
		if err != nil {
			result.Err = err
			s.logger.Warn("Email send failed", map[string]interface{}{
				"to":         logger.MaskEmail(msg.To),
				"event":      meta.Event,
				"resellerId": meta.ResellerID,
				"dispatchId": meta.DispatchID,
				"error":      err.Error(),
			})
		} else if out != nil && out.MessageId != nil {
			result.MessageID = *out.MessageId
		}
		results = append(results, result)
	}
	return results
}

func (s *EmailSender) buildInput(msg models.EmailMessage, tags []types.MessageTag) *ses.SendEmailInput {
	input := &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
				Html: &types.Content{Data: aws.String(msg.Body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(msg.From),
		Tags:   tags,
	}
	if s.configurationSet != "" {
		input.ConfigurationSetName = aws.String(s.configurationSet)
	}
	return input
}

// messageTags carries the event metadata into SES event publishing.
func messageTags(meta models.EmailMeta) []types.MessageTag {
	tags := []types.MessageTag{
		{Name: aws.String("event"), Value: aws.String(meta.Event)},
		{Name: aws.String("reseller_id"), Value: aws.String(strconv.FormatInt(meta.ResellerID, 10))},
	}
	if meta.ClientID != 0 {
		tags = append(tags, types.MessageTag{Name: aws.String("client_id"), Value: aws.String(strconv.FormatInt(meta.ClientID, 10))})
	}
	if meta.StatusCode != 0 {
		tags = append(tags, types.MessageTag{Name: aws.String("status_code"), Value: aws.String(strconv.Itoa(meta.StatusCode))})
	}
	if meta.DispatchID != "" {
		tags = append(tags, types.MessageTag{Name: aws.String("dispatch_id"), Value: aws.String(meta.DispatchID)})
	}
	return tags
}
