package tsreturnnotify

import (
	"context"
	"fmt"
	"sync"

	"complaint-workers/internal/common/reference"
	"complaint-workers/internal/common/translation"
	"complaint-workers/internal/models"
)

type stubReferences struct {
	mu        sync.Mutex
	resellers map[int64]*models.Reseller
	clients   map[int64]*models.Client
	employees map[int64]*models.Employee
	err       error
	calls     int
}

func (s *stubReferences) count() {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
}

func (s *stubReferences) ResolveReseller(_ context.Context, id int64) (*models.Reseller, error) {
	s.count()
	if s.err != nil {
		return nil, s.err
	}
	if r, ok := s.resellers[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("seller %d: %w", id, reference.ErrNotFound)
}

func (s *stubReferences) ResolveClient(_ context.Context, id int64) (*models.Client, error) {
	s.count()
	if s.err != nil {
		return nil, s.err
	}
	if c, ok := s.clients[id]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("client %d: %w", id, reference.ErrNotFound)
}

func (s *stubReferences) ResolveEmployee(_ context.Context, id int64) (*models.Employee, error) {
	s.count()
	if s.err != nil {
		return nil, s.err
	}
	if e, ok := s.employees[id]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("employee %d: %w", id, reference.ErrNotFound)
}

type stubStatuses map[int]string

func (s stubStatuses) StatusName(_ context.Context, code int) (string, error) {
	if name, ok := s[code]; ok {
		return name, nil
	}
	return "", fmt.Errorf("status %d: %w", code, reference.ErrNotFound)
}

// stubRenderer substitutes vars into fixed texts.
type stubRenderer struct {
	texts map[translation.TemplateKey]string
	err   error
}

func (r stubRenderer) Render(_ context.Context, key translation.TemplateKey, vars map[string]string, _ int64) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	text, ok := r.texts[key]
	if !ok {
		return "", fmt.Errorf("%s: %w", key, translation.ErrMissing)
	}
	return translation.Substitute(text, vars), nil
}

func defaultTexts() map[translation.TemplateKey]string {
	return map[translation.TemplateKey]string{
		translation.KeyNewPositionAdded:              "New position added",
		translation.KeyPositionStatusHasChanged:      "Status changed from {{FROM}} to {{TO}}",
		translation.KeyComplaintEmployeeEmailSubject: "Complaint {{COMPLAINT_NUMBER}}",
		translation.KeyComplaintEmployeeEmailBody:    "{{DIFFERENCES}} for {{CLIENT_NAME}}",
		translation.KeyComplaintClientEmailSubject:   "Your complaint {{COMPLAINT_NUMBER}}",
		translation.KeyComplaintClientEmailBody:      "Dear {{CLIENT_NAME}}, {{DIFFERENCES}}",
		translation.KeyComplaintClientSmsText:        "{{COMPLAINT_NUMBER}}: {{DIFFERENCES}}",
	}
}

type stubMail struct {
	from       string
	recipients []string
	fromErr    error
	listErr    error
}

func (m stubMail) EmailFrom(context.Context, int64) (string, error) {
	return m.from, m.fromErr
}

func (m stubMail) PermittedEmails(_ context.Context, _ int64, permit string) ([]string, error) {
	if permit != models.PermitGoodsReturn {
		return nil, nil
	}
	return m.recipients, m.listErr
}

type sentEmail struct {
	msg  models.EmailMessage
	meta models.EmailMeta
}

type recordingEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	fail map[string]error
}

func (e *recordingEmail) Send(_ context.Context, msgs []models.EmailMessage, meta models.EmailMeta) []models.DeliveryResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	results := make([]models.DeliveryResult, 0, len(msgs))
	for _, m := range msgs {
		e.sent = append(e.sent, sentEmail{msg: m, meta: meta})
		results = append(results, models.DeliveryResult{To: m.To, Err: e.fail[m.To]})
	}
	return results
}

func (e *recordingEmail) to() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.sent))
	for _, s := range e.sent {
		out = append(out, s.msg.To)
	}
	return out
}

type recordingSms struct {
	mu       sync.Mutex
	requests []models.SmsRequest
	result   models.SmsResult
}

func (s *recordingSms) Send(_ context.Context, req models.SmsRequest) models.SmsResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.result
}

const testReseller int64 = 7

func newReferences() *stubReferences {
	return &stubReferences{
		resellers: map[int64]*models.Reseller{
			testReseller: {ID: testReseller, Name: "Acme Retail", Locale: "en", EmailFrom: "noreply@acme.test"},
		},
		clients: map[int64]*models.Client{
			100: {ID: 100, Type: models.ContractorTypeCustomer, Name: "ivanov", FullName: "Ivan Ivanov", SellerID: testReseller, Email: "ivan@client.test", Mobile: "+15550001111"},
			101: {ID: 101, Type: "supplier", Name: "supplier", SellerID: testReseller},
			102: {ID: 102, Type: models.ContractorTypeCustomer, Name: "foreign", SellerID: 8},
			103: {ID: 103, Type: models.ContractorTypeCustomer, Name: "petrov", SellerID: testReseller, Email: "petrov@client.test"},
		},
		employees: map[int64]*models.Employee{
			10: {ID: 10, Name: "creator", FullName: "Clara Creator"},
			11: {ID: 11, Name: "expert"},
		},
	}
}

func changeVars() map[string]interface{} {
	return map[string]interface{}{
		"resellerId":        float64(testReseller),
		"notificationType":  float64(models.NotificationTypeChange),
		"clientId":          float64(100),
		"creatorId":         float64(10),
		"expertId":          float64(11),
		"complaintId":       float64(500),
		"complaintNumber":   "C-500",
		"consumptionId":     float64(600),
		"consumptionNumber": "CN-600",
		"agreementNumber":   "AG-1",
		"date":              "2024-03-01",
		"differences":       map[string]interface{}{"from": float64(1), "to": float64(2)},
	}
}

func changeEvent() *models.ChangeEvent {
	return &models.ChangeEvent{
		ResellerID:        testReseller,
		NotificationType:  models.NotificationTypeChange,
		ClientID:          100,
		CreatorID:         10,
		ExpertID:          11,
		ComplaintID:       500,
		ComplaintNumber:   "C-500",
		ConsumptionID:     600,
		ConsumptionNumber: "CN-600",
		AgreementNumber:   "AG-1",
		Date:              "2024-03-01",
		Differences:       &models.Differences{From: 1, To: 2},
	}
}
