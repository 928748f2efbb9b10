// Package translation renders localized notification texts.
package translation

// TemplateKey names a text in the catalog. The set is closed.
type TemplateKey string

const (
	KeyNewPositionAdded              TemplateKey = "NewPositionAdded"
	KeyPositionStatusHasChanged      TemplateKey = "PositionStatusHasChanged"
	KeyComplaintEmployeeEmailSubject TemplateKey = "complaintEmployeeEmailSubject"
	KeyComplaintEmployeeEmailBody    TemplateKey = "complaintEmployeeEmailBody"
	KeyComplaintClientEmailSubject   TemplateKey = "complaintClientEmailSubject"
	KeyComplaintClientEmailBody      TemplateKey = "complaintClientEmailBody"
	KeyComplaintClientSmsText        TemplateKey = "complaintClientSmsText"
)

// Keys lists every known template key.
var Keys = []TemplateKey{
	KeyNewPositionAdded,
	KeyPositionStatusHasChanged,
	KeyComplaintEmployeeEmailSubject,
	KeyComplaintEmployeeEmailBody,
	KeyComplaintClientEmailSubject,
	KeyComplaintClientEmailBody,
	KeyComplaintClientSmsText,
}

// Valid reports whether k is one of Keys.
func (k TemplateKey) Valid() bool {
	for _, known := range Keys {
		if k == known {
			return true
		}
	}
	return false
}
