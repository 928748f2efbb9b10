package messaging

import (
	"context"
	"errors"

	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/translation"
	"complaint-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the subset of the SNS client used for SMS.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// ClientDirectory resolves the client whose mobile number receives the SMS.
type ClientDirectory interface {
	ResolveClient(ctx context.Context, id int64) (*models.Client, error)
}

// TextRenderer renders the SMS text.
type TextRenderer interface {
	Render(ctx context.Context, key translation.TemplateKey, vars map[string]string, resellerID int64) (string, error)
}

type SmsOptions struct {
	SenderID string
	SMSType  string // "Transactional" or "Promotional"
	Logger   logger.Logger
}

// SmsSender publishes the client SMS for a status change.
type SmsSender struct {
	sns      SNSAPI
	clients  ClientDirectory
	renderer TextRenderer
	senderID string
	smsType  string
	logger   logger.Logger
}

func NewSmsSender(api SNSAPI, clients ClientDirectory, renderer TextRenderer, opts SmsOptions) *SmsSender {
	s := &SmsSender{
		sns:      api,
		clients:  clients,
		renderer: renderer,
		senderID: opts.SenderID,
		smsType:  opts.SMSType,
		logger:   opts.Logger,
	}
	if s.smsType == "" {
		s.smsType = "Transactional"
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	return s
}

// Send never returns an error: failures come back as Sent=false with a
// diagnostic in Message.
func (s *SmsSender) Send(ctx context.Context, req models.SmsRequest) models.SmsResult {
	client, err := s.clients.ResolveClient(ctx, req.ClientID)
	if err != nil {
		return s.fail(req, "client lookup failed", err)
	}
	if client.Mobile == "" {
		return models.SmsResult{Message: "client has no mobile number"}
	}

	text, err := s.renderer.Render(ctx, translation.KeyComplaintClientSmsText, req.Variables, req.ResellerID)
	if err != nil {
		return s.fail(req, "sms text rendering failed", err)
	}
	if text == "" {
		return s.fail(req, "sms text rendering failed", errors.New("empty text"))
	}

	out, err := s.sns.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(client.Mobile),
		Message:           aws.String(text),
		MessageAttributes: s.attributes(),
	})
	if err != nil {
		return s.fail(req, "sms publish failed", err)
	}

	result := models.SmsResult{Sent: true}
	if out != nil && out.MessageId != nil {
		result.MessageID = *out.MessageId
	}
	s.logger.Debug("SMS published", map[string]interface{}{
		"to":         logger.MaskPhone(client.Mobile),
		"clientId":   req.ClientID,
		"statusCode": req.StatusCode,
		"messageId":  result.MessageID,
		"dispatchId": req.DispatchID,
	})
	return result
}

func (s *SmsSender) attributes() map[string]types.MessageAttributeValue {
	attrs := map[string]types.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String(s.smsType)},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = types.MessageAttributeValue{DataType: aws.String("String"), StringValue: aws.String(s.senderID)}
	}
	return attrs
}

func (s *SmsSender) fail(req models.SmsRequest, reason string, err error) models.SmsResult {
	s.logger.Warn("SMS not sent", map[string]interface{}{
		"clientId":   req.ClientID,
		"resellerId": req.ResellerID,
		"event":      req.Event,
		"dispatchId": req.DispatchID,
		"reason":     reason,
		"error":      err.Error(),
	})
	return models.SmsResult{Message: reason + ": " + err.Error()}
}
