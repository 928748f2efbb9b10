// internal/models/template_data.go
package models

import "strconv"

// Template variable names, in their fixed order.
const (
	VarComplaintID       = "COMPLAINT_ID"
	VarComplaintNumber   = "COMPLAINT_NUMBER"
	VarCreatorID         = "CREATOR_ID"
	VarCreatorName       = "CREATOR_NAME"
	VarExpertID          = "EXPERT_ID"
	VarExpertName        = "EXPERT_NAME"
	VarClientID          = "CLIENT_ID"
	VarClientName        = "CLIENT_NAME"
	VarConsumptionID     = "CONSUMPTION_ID"
	VarConsumptionNumber = "CONSUMPTION_NUMBER"
	VarAgreementNumber   = "AGREEMENT_NUMBER"
	VarDate              = "DATE"
	VarDifferences       = "DIFFERENCES"
)

// TemplateVars lists every template variable in order.
var TemplateVars = []string{
	VarComplaintID,
	VarComplaintNumber,
	VarCreatorID,
	VarCreatorName,
	VarExpertID,
	VarExpertName,
	VarClientID,
	VarClientName,
	VarConsumptionID,
	VarConsumptionNumber,
	VarAgreementNumber,
	VarDate,
	VarDifferences,
}

// TemplateData is the variable set substituted into every notification template.
type TemplateData struct {
	ComplaintID       int64
	ComplaintNumber   string
	CreatorID         int64
	CreatorName       string
	ExpertID          int64
	ExpertName        string
	ClientID          int64
	ClientName        string
	ConsumptionID     int64
	ConsumptionNumber string
	AgreementNumber   string
	Date              string
	Differences       string
}

// TemplateField is one named value of TemplateData.
type TemplateField struct {
	Key   string
	Value interface{} // int64 or string
}

// Empty reports whether the value counts as missing. A string "0" is as
// empty as a zero number.
func (f TemplateField) Empty() bool {
	switch v := f.Value.(type) {
	case int64:
		return v == 0
	case string:
		return v == "" || v == "0"
	default:
		return v == nil
	}
}

// String renders the value for template substitution.
func (f TemplateField) String() string {
	switch v := f.Value.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return v
	default:
		return ""
	}
}

// Fields returns all variables in TemplateVars order.
func (d TemplateData) Fields() []TemplateField {
	return []TemplateField{
		{VarComplaintID, d.ComplaintID},
		{VarComplaintNumber, d.ComplaintNumber},
		{VarCreatorID, d.CreatorID},
		{VarCreatorName, d.CreatorName},
		{VarExpertID, d.ExpertID},
		{VarExpertName, d.ExpertName},
		{VarClientID, d.ClientID},
		{VarClientName, d.ClientName},
		{VarConsumptionID, d.ConsumptionID},
		{VarConsumptionNumber, d.ConsumptionNumber},
		{VarAgreementNumber, d.AgreementNumber},
		{VarDate, d.Date},
		{VarDifferences, d.Differences},
	}
}

// Variables renders the data as substitution values keyed by variable name.
func (d TemplateData) Variables() map[string]string {
	fields := d.Fields()
	vars := make(map[string]string, len(fields))
	for _, f := range fields {
		vars[f.Key] = f.String()
	}
	return vars
}
