// internal/models/notification.go
package models

// EventChangeReturnStatus tags every message sent for a return status change.
const EventChangeReturnStatus = "CHANGE_RETURN_STATUS"

// PermitGoodsReturn grants employees the right to receive return notifications.
const PermitGoodsReturn = "tsGoodsReturn"

// SmsOutcome is the client SMS result.
type SmsOutcome struct {
	IsSent  bool   `json:"isSent"`
	Message string `json:"message"`
}

// DispatchResult reports per channel whether a notification went out.
type DispatchResult struct {
	NotificationEmployeeByEmail bool       `json:"notificationEmployeeByEmail"`
	NotificationClientByEmail   bool       `json:"notificationClientByEmail"`
	NotificationClientBySms     SmsOutcome `json:"notificationClientBySms"`
}

// ToVariables returns the result as process variables.
func (r DispatchResult) ToVariables() map[string]interface{} {
	return map[string]interface{}{
		"notificationEmployeeByEmail": r.NotificationEmployeeByEmail,
		"notificationClientByEmail":   r.NotificationClientByEmail,
		"notificationClientBySms": map[string]interface{}{
			"isSent":  r.NotificationClientBySms.IsSent,
			"message": r.NotificationClientBySms.Message,
		},
	}
}

// EmailMessage is one rendered email.
type EmailMessage struct {
	From    string
	To      string
	Subject string
	Body    string
}

// EmailMeta tags a batch of emails. ClientID and StatusCode are zero for employee mail.
type EmailMeta struct {
	ResellerID int64
	Event      string
	ClientID   int64
	StatusCode int
	DispatchID string
}

// DeliveryResult is the outcome of one email send.
type DeliveryResult struct {
	To        string
	MessageID string
	Err       error
}

// OK reports whether the message was accepted by the provider.
func (r DeliveryResult) OK() bool { return r.Err == nil }

// SmsRequest asks for the client SMS of a status change.
type SmsRequest struct {
	ResellerID int64
	ClientID   int64
	Event      string
	StatusCode int
	Variables  map[string]string
	DispatchID string
}

// SmsResult is the SMS channel outcome. Message carries a diagnostic, if any.
type SmsResult struct {
	Sent      bool
	Message   string
	MessageID string
}
