package tsreturnnotify

import (
	"context"

	"complaint-workers/internal/common/errors"
	"complaint-workers/internal/common/logger"
	"complaint-workers/internal/common/metrics"
	"complaint-workers/internal/common/translation"
	"complaint-workers/internal/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Dispatcher sends the employee and client notifications of one event.
// Channel failures never surface as errors; they only leave the matching
// result field unset.
type Dispatcher struct {
	mail          MailSettings
	renderer      TemplateRenderer
	email         EmailSender
	sms           SmsSender
	maxConcurrent int
	logger        logger.Logger
}

type DispatcherOptions struct {
	Mail               MailSettings
	Renderer           TemplateRenderer
	Email              EmailSender
	Sms                SmsSender
	MaxConcurrentSends int
	Logger             logger.Logger
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	d := &Dispatcher{
		mail:          opts.Mail,
		renderer:      opts.Renderer,
		email:         opts.Email,
		sms:           opts.Sms,
		maxConcurrent: opts.MaxConcurrentSends,
		logger:        opts.Logger,
	}
	if d.maxConcurrent <= 0 {
		d.maxConcurrent = 1
	}
	if d.logger == nil {
		d.logger = logger.NewNoOpLogger()
	}
	return d
}

// Dispatch runs the employee group and, for a CHANGE with a target status,
// the client email and SMS channels concurrently. Each channel returns its
// own outcome and the outcomes are merged once all of them finished.
func (d *Dispatcher) Dispatch(ctx context.Context, in DispatchInput) models.DispatchResult {
	dispatchID := uuid.NewString()
	log := d.logger.WithFields(map[string]interface{}{
		"resellerId": in.ResellerID,
		"dispatchId": dispatchID,
	})

	emailFrom, err := d.mail.EmailFrom(ctx, in.ResellerID)
	if err != nil {
		log.Warn("Sender address lookup failed, email channels skipped", map[string]interface{}{
			"error": err,
		})
		emailFrom = ""
	}
	vars := in.TemplateData.Variables()

	var (
		employeeSent    bool
		clientEmailSent bool
		clientSms       models.SmsOutcome
		g               errgroup.Group
	)

	g.Go(func() error {
		employeeSent = d.notifyEmployees(ctx, in, emailFrom, vars, dispatchID, log)
		return nil
	})

	if statusTo := in.statusTo(); statusTo != 0 {
		g.Go(func() error {
			clientEmailSent = d.notifyClientByEmail(ctx, in, emailFrom, statusTo, vars, dispatchID, log)
			return nil
		})
		g.Go(func() error {
			clientSms = d.notifyClientBySms(ctx, in, statusTo, vars, dispatchID, log)
			return nil
		})
	}

	_ = g.Wait()

	result := models.DispatchResult{
		NotificationEmployeeByEmail: employeeSent,
		NotificationClientByEmail:   clientEmailSent,
		NotificationClientBySms:     clientSms,
	}
	log.Info("Notifications dispatched", map[string]interface{}{
		"employeeByEmail": result.NotificationEmployeeByEmail,
		"clientByEmail":   result.NotificationClientByEmail,
		"clientBySms":     result.NotificationClientBySms.IsSent,
	})
	return result
}

// notifyEmployees reports whether at least one send was issued.
func (d *Dispatcher) notifyEmployees(ctx context.Context, in DispatchInput, emailFrom string, vars map[string]string, dispatchID string, log logger.Logger) bool {
	recipients, err := d.mail.PermittedEmails(ctx, in.ResellerID, models.PermitGoodsReturn)
	if err != nil {
		log.Warn("Employee recipients lookup failed", map[string]interface{}{"error": err})
		return false
	}
	if emailFrom == "" || len(recipients) == 0 {
		metrics.RecordSkip(metrics.ChannelEmployeeEmail)
		return false
	}

	subject, body, err := d.renderEmail(ctx, translation.KeyComplaintEmployeeEmailSubject, translation.KeyComplaintEmployeeEmailBody, vars, in.ResellerID)
	if err != nil {
		d.logSendFailure(log, metrics.ChannelEmployeeEmail, err)
		return false
	}

	meta := models.EmailMeta{
		ResellerID: in.ResellerID,
		Event:      models.EventChangeReturnStatus,
		DispatchID: dispatchID,
	}

	var g errgroup.Group
	g.SetLimit(d.maxConcurrent)
	for _, to := range recipients {
		g.Go(func() error {
			msg := models.EmailMessage{From: emailFrom, To: to, Subject: subject, Body: body}
			d.record(log, metrics.ChannelEmployeeEmail, d.email.Send(ctx, []models.EmailMessage{msg}, meta))
			return nil
		})
	}
	_ = g.Wait()

	return true
}

func (d *Dispatcher) notifyClientByEmail(ctx context.Context, in DispatchInput, emailFrom string, statusTo int, vars map[string]string, dispatchID string, log logger.Logger) bool {
	if emailFrom == "" || in.Client.Email == "" {
		metrics.RecordSkip(metrics.ChannelClientEmail)
		return false
	}

	subject, body, err := d.renderEmail(ctx, translation.KeyComplaintClientEmailSubject, translation.KeyComplaintClientEmailBody, vars, in.ResellerID)
	if err != nil {
		d.logSendFailure(log, metrics.ChannelClientEmail, err)
		return false
	}

	msg := models.EmailMessage{From: emailFrom, To: in.Client.Email, Subject: subject, Body: body}
	d.record(log, metrics.ChannelClientEmail, d.email.Send(ctx, []models.EmailMessage{msg}, models.EmailMeta{
		ResellerID: in.ResellerID,
		Event:      models.EventChangeReturnStatus,
		ClientID:   in.Client.ID,
		StatusCode: statusTo,
		DispatchID: dispatchID,
	}))
	return true
}

func (d *Dispatcher) notifyClientBySms(ctx context.Context, in DispatchInput, statusTo int, vars map[string]string, dispatchID string, log logger.Logger) models.SmsOutcome {
	if in.Client.Mobile == "" {
		metrics.RecordSkip(metrics.ChannelClientSMS)
		return models.SmsOutcome{}
	}

	res := d.sms.Send(ctx, models.SmsRequest{
		ResellerID: in.ResellerID,
		ClientID:   in.Client.ID,
		Event:      models.EventChangeReturnStatus,
		StatusCode: statusTo,
		Variables:  vars,
		DispatchID: dispatchID,
	})
	metrics.RecordSend(metrics.ChannelClientSMS, res.Sent)
	if !res.Sent {
		log.Warn("Client SMS not sent", map[string]interface{}{
			"clientId": in.Client.ID,
			"message":  res.Message,
		})
	}

	return models.SmsOutcome{IsSent: res.Sent, Message: res.Message}
}

func (d *Dispatcher) renderEmail(ctx context.Context, subjectKey, bodyKey translation.TemplateKey, vars map[string]string, resellerID int64) (string, string, error) {
	subject, err := d.renderer.Render(ctx, subjectKey, vars, resellerID)
	if err != nil {
		return "", "", renderError(subjectKey, err)
	}
	body, err := d.renderer.Render(ctx, bodyKey, vars, resellerID)
	if err != nil {
		return "", "", renderError(bodyKey, err)
	}
	return subject, body, nil
}

func (d *Dispatcher) record(log logger.Logger, channel string, results []models.DeliveryResult) {
	for _, r := range results {
		metrics.RecordSend(channel, r.OK())
		if !r.OK() {
			d.logSendFailure(log, channel, errors.NewNotificationSendFailedError(channel, r.Err))
		}
	}
}

func (d *Dispatcher) logSendFailure(log logger.Logger, channel string, err error) {
	stdErr := errors.AsStandardError(err)
	log.Warn("Notification channel failed", map[string]interface{}{
		"channel":   channel,
		"errorCode": string(stdErr.Code),
		"details":   stdErr.Details,
	})
}
