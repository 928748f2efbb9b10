package tsreturnnotify

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"complaint-workers/internal/common/errors"
	"complaint-workers/internal/models"
)

// ParseChangeEvent turns raw job variables into a ChangeEvent. Only
// resellerId and notificationType are checked here; every other field is
// coerced and a malformed value becomes the zero value.
func ParseChangeEvent(vars map[string]interface{}) (*models.ChangeEvent, error) {
	event := &models.ChangeEvent{
		ResellerID:        toInt64(vars["resellerId"]),
		NotificationType:  models.NotificationType(toInt64(vars["notificationType"])),
		ClientID:          toInt64(vars["clientId"]),
		CreatorID:         toInt64(vars["creatorId"]),
		ExpertID:          toInt64(vars["expertId"]),
		ComplaintID:       toInt64(vars["complaintId"]),
		ComplaintNumber:   toString(vars["complaintNumber"]),
		ConsumptionID:     toInt64(vars["consumptionId"]),
		ConsumptionNumber: toString(vars["consumptionNumber"]),
		AgreementNumber:   toString(vars["agreementNumber"]),
		Date:              toString(vars["date"]),
		Differences:       toDifferences(vars["differences"]),
	}

	if err := validateEvent(event); err != nil {
		return nil, err
	}
	return event, nil
}

func validateEvent(event *models.ChangeEvent) error {
	if event == nil || event.ResellerID == 0 {
		return errors.NewValidationError("Empty resellerId")
	}
	if event.NotificationType == 0 {
		return errors.NewValidationError("Empty notificationType")
	}
	return nil
}

// ValidateTemplateData fails on the first empty variable, in template order.
func ValidateTemplateData(data models.TemplateData) error {
	for _, field := range data.Fields() {
		if field.Empty() {
			return errors.NewValidationError(fmt.Sprintf("Template Data (%s) is empty!", field.Key))
		}
	}
	return nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0
		}
		return int64(n)
	case int:
		return int64(n)
	case int64:
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		f, _ := n.Float64()
		return int64(f)
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return int64(f)
		}
		return 0
	case bool:
		if n {
			return 1
		}
		return 0
	default:
		return 0
	}
}

func toString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

// toDifferences returns nil unless v is a non-empty object.
func toDifferences(v interface{}) *models.Differences {
	m, ok := v.(map[string]interface{})
	if !ok || len(m) == 0 {
		return nil
	}
	return &models.Differences{
		From: int(toInt64(m["from"])),
		To:   int(toInt64(m["to"])),
	}
}
