// internal/models/complaint.go
package models

import "strconv"

// NotificationType distinguishes a newly added return position from a status change.
type NotificationType int

const (
	NotificationTypeNew    NotificationType = 1
	NotificationTypeChange NotificationType = 2
)

func (t NotificationType) String() string {
	switch t {
	case NotificationTypeNew:
		return "new"
	case NotificationTypeChange:
		return "change"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// Differences holds the status transition of a CHANGE event.
type Differences struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// ChangeEvent is the parsed request that triggers one notification run.
type ChangeEvent struct {
	ResellerID        int64            `json:"resellerId"`
	NotificationType  NotificationType `json:"notificationType"`
	ClientID          int64            `json:"clientId"`
	CreatorID         int64            `json:"creatorId"`
	ExpertID          int64            `json:"expertId"`
	ComplaintID       int64            `json:"complaintId"`
	ComplaintNumber   string           `json:"complaintNumber"`
	ConsumptionID     int64            `json:"consumptionId"`
	ConsumptionNumber string           `json:"consumptionNumber"`
	AgreementNumber   string           `json:"agreementNumber"`
	Date              string           `json:"date"`
	Differences       *Differences     `json:"differences,omitempty"`
}

// Reseller is the seller on whose behalf notifications go out.
type Reseller struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Locale    string `json:"locale"`
	EmailFrom string `json:"emailFrom"`
}

// ContractorTypeCustomer is the only contractor type that can be notified as a client.
const ContractorTypeCustomer = "customer"

// Client is a contractor of type customer belonging to a reseller.
type Client struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	SellerID int64  `json:"sellerId"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
}

// DisplayName prefers the full name and falls back to the raw name.
func (c Client) DisplayName() string {
	if c.FullName != "" {
		return c.FullName
	}
	return c.Name
}

// BelongsTo reports whether the contractor is a customer of resellerID.
func (c Client) BelongsTo(resellerID int64) bool {
	return c.Type == ContractorTypeCustomer && c.SellerID == resellerID
}

// Employee roles in a complaint.
const (
	RoleCreator = "Creator"
	RoleExpert  = "Expert"
)

type Employee struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

func (e Employee) DisplayName() string {
	if e.FullName != "" {
		return e.FullName
	}
	return e.Name
}
